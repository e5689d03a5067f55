package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/markscan/markscan/internal/model"
)

// Store provides SQLite-based storage for datasheet specifications and
// verification results. It manages connection pooling and provides methods
// for CRUD operations.
//
// Design decision: We use a single database file shared by the spec cache
// and the verification history rather than separate files. This simplifies
// backup/restore operations and keeps the XDG data directory tidy.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "markscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Cached specification lookups, one row per normalized part number.
	-- not_found marks a negative cache entry: the resolver concluded that
	-- no trustworthy source documents this part.
	CREATE TABLE IF NOT EXISTS spec_cache (
		part_number TEXT PRIMARY KEY,
		spec_json TEXT,
		not_found INTEGER NOT NULL DEFAULT 0,
		source TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_spec_fetched ON spec_cache(fetched_at);

	-- Verification results store complete analysis outcomes as JSON
	CREATE TABLE IF NOT EXISTS verifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		part_number TEXT NOT NULL,
		image_ref TEXT NOT NULL,
		classification TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_verif_part ON verifications(part_number);
	CREATE INDEX IF NOT EXISTS idx_verif_timestamp ON verifications(timestamp);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// normalizeKey canonicalizes a part number for use as a cache key.
// Lookups are case-insensitive and ignore surrounding whitespace.
func normalizeKey(partNumber string) string {
	return strings.ToUpper(strings.TrimSpace(partNumber))
}

// SpecEntry represents a cached specification lookup.
type SpecEntry struct {
	// PartNumber is the normalized part number the entry was cached under.
	PartNumber string

	// Spec is the cached specification. It is nil for negative entries.
	Spec *model.OfficialSpecification

	// NotFound marks a negative entry: the resolver exhausted all sources
	// without finding documentation for this part.
	NotFound bool

	// Source names the source class that produced the specification.
	Source string

	// FetchedAt is when the entry was stored.
	FetchedAt time.Time
}

// UpsertSpec inserts or replaces a cached specification entry.
// A nil Spec with NotFound set records a negative lookup so repeated
// analyses of an undocumented part don't hammer the sources.
func (s *Store) UpsertSpec(ctx context.Context, entry *SpecEntry) error {
	var specJSON sql.NullString
	if entry.Spec != nil {
		raw, err := json.Marshal(entry.Spec)
		if err != nil {
			return fmt.Errorf("failed to serialize specification: %w", err)
		}
		specJSON = sql.NullString{String: string(raw), Valid: true}
	}

	notFound := 0
	if entry.NotFound {
		notFound = 1
	}

	query := `
	INSERT INTO spec_cache (part_number, spec_json, not_found, source, fetched_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(part_number) DO UPDATE SET
		spec_json = excluded.spec_json,
		not_found = excluded.not_found,
		source = excluded.source,
		fetched_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query,
		normalizeKey(entry.PartNumber),
		specJSON,
		notFound,
		entry.Source,
	); err != nil {
		return fmt.Errorf("failed to upsert spec cache entry: %w", err)
	}

	return nil
}

// LookupSpec retrieves a cached specification entry no older than ttl.
// It returns nil (without error) when the key is absent, when the entry
// has outlived the TTL, or when the stored JSON cannot be decoded; all
// three cases are plain misses from the caller's point of view.
func (s *Store) LookupSpec(ctx context.Context, partNumber string, ttl time.Duration) (*SpecEntry, error) {
	query := `
	SELECT part_number, spec_json, not_found, source, fetched_at
	FROM spec_cache
	WHERE part_number = ? AND fetched_at > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(ttl.Seconds()))

	var entry SpecEntry
	var specJSON sql.NullString
	var notFound int
	var source sql.NullString
	var fetchedAt string

	err := s.db.QueryRowContext(ctx, query, normalizeKey(partNumber), modifier).Scan(
		&entry.PartNumber,
		&specJSON,
		&notFound,
		&source,
		&fetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up spec cache entry: %w", err)
	}

	entry.NotFound = notFound != 0
	entry.Source = source.String
	entry.FetchedAt = parseTimestamp(fetchedAt)

	if specJSON.Valid && specJSON.String != "" {
		var spec model.OfficialSpecification
		if err := json.Unmarshal([]byte(specJSON.String), &spec); err != nil {
			// A corrupt entry is indistinguishable from a miss; the next
			// successful resolution overwrites it.
			return nil, nil
		}
		entry.Spec = &spec
	}

	if entry.Spec == nil && !entry.NotFound {
		return nil, nil
	}

	return &entry, nil
}

// SaveVerification persists a completed verification result.
func (s *Store) SaveVerification(ctx context.Context, imageRef string, result *model.VerificationResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize verification result: %w", err)
	}

	query := `
	INSERT INTO verifications (part_number, image_ref, classification, confidence, result_json)
	VALUES (?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		normalizeKey(result.PartNumber),
		imageRef,
		result.Classification.String(),
		result.Confidence,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save verification result: %w", err)
	}

	return res.LastInsertId()
}

// VerificationRecord contains summary information about a stored
// verification. This is used for displaying history without loading
// the full result.
type VerificationRecord struct {
	// ID is the unique identifier of the verification in the database.
	ID int64

	// PartNumber is the normalized part number that was verified.
	PartNumber string

	// ImageRef identifies the analyzed image.
	ImageRef string

	// Classification is the verdict text (AUTHENTIC, SUSPECT, COUNTERFEIT).
	Classification string

	// Confidence is the overall authenticity score on a 0-100 scale.
	Confidence int

	// Timestamp is when the verification was performed.
	Timestamp time.Time
}

// GetHistory retrieves verification summaries, newest first. When
// partNumber is empty, records for all parts are returned.
func (s *Store) GetHistory(ctx context.Context, partNumber string) ([]VerificationRecord, error) {
	query := `
	SELECT id, part_number, image_ref, classification, confidence, timestamp
	FROM verifications
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if partNumber != "" {
		query += " AND part_number = ?"
		args = append(args, normalizeKey(partNumber))
	}

	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification history: %w", err)
	}
	defer rows.Close()

	var results []VerificationRecord
	for rows.Next() {
		var rec VerificationRecord
		var timestamp string

		if err := rows.Scan(
			&rec.ID,
			&rec.PartNumber,
			&rec.ImageRef,
			&rec.Classification,
			&rec.Confidence,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification record: %w", err)
		}

		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetVerificationByID retrieves a full verification result by its database ID.
func (s *Store) GetVerificationByID(ctx context.Context, id int64) (*model.VerificationResult, error) {
	query := `
	SELECT result_json FROM verifications
	WHERE id = ?
	`

	var resultJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification result: %w", err)
	}

	var result model.VerificationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse verification result: %w", err)
	}

	return &result, nil
}

// ListVerifiedParts returns the distinct part numbers with stored
// verifications, sorted alphabetically.
func (s *Store) ListVerifiedParts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT part_number FROM verifications
	ORDER BY part_number
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list verified parts: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var part string
		if err := rows.Scan(&part); err != nil {
			return nil, fmt.Errorf("failed to scan part number: %w", err)
		}
		parts = append(parts, part)
	}

	return parts, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
