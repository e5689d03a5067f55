package database

import (
	"context"
	"testing"
	"time"

	"github.com/markscan/markscan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when CreateIfNotExists is set", func(t *testing.T) {
		t.Parallel()
		openTestStore(t)
	})

	t.Run("refuses to create when CreateIfNotExists is unset", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Fatal("Open() expected error for missing database, got nil")
		}
	})
}

func TestStoreSpecCache(t *testing.T) {
	t.Parallel()

	spec := &model.OfficialSpecification{
		PartNumber:     "CY8C29666-24PVXI",
		Manufacturer:   "CYPRESS",
		ValidCountries: []string{"PHILIPPINES", "THAILAND"},
	}

	t.Run("round trip within TTL", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		entry := &SpecEntry{PartNumber: "cy8c29666-24pvxi", Spec: spec, Source: "manufacturer"}
		if err := s.UpsertSpec(ctx, entry); err != nil {
			t.Fatalf("UpsertSpec() error = %v", err)
		}

		// Lookup is case-insensitive on the part number.
		got, err := s.LookupSpec(ctx, "CY8C29666-24PVXI", 30*24*time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got == nil {
			t.Fatal("LookupSpec() = nil, want cached entry")
		}
		if got.NotFound {
			t.Error("LookupSpec() NotFound = true, want false")
		}
		if got.Spec == nil || got.Spec.Manufacturer != "CYPRESS" {
			t.Errorf("LookupSpec() Spec = %+v, want manufacturer CYPRESS", got.Spec)
		}
		if got.Source != "manufacturer" {
			t.Errorf("LookupSpec() Source = %q, want %q", got.Source, "manufacturer")
		}
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		entry := &SpecEntry{PartNumber: "LM358N", Spec: &model.OfficialSpecification{PartNumber: "LM358N"}}
		if err := s.UpsertSpec(ctx, entry); err != nil {
			t.Fatalf("UpsertSpec() error = %v", err)
		}

		// Backdate the row past the freshness window.
		if _, err := s.db.ExecContext(ctx,
			"UPDATE spec_cache SET fetched_at = datetime('now', '-31 days') WHERE part_number = ?",
			"LM358N",
		); err != nil {
			t.Fatalf("failed to backdate entry: %v", err)
		}

		got, err := s.LookupSpec(ctx, "LM358N", 30*24*time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got != nil {
			t.Errorf("LookupSpec() = %+v, want nil for expired entry", got)
		}
	})

	t.Run("negative entry round trip", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		entry := &SpecEntry{PartNumber: "FAKE123", NotFound: true}
		if err := s.UpsertSpec(ctx, entry); err != nil {
			t.Fatalf("UpsertSpec() error = %v", err)
		}

		got, err := s.LookupSpec(ctx, "FAKE123", time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got == nil {
			t.Fatal("LookupSpec() = nil, want negative entry")
		}
		if !got.NotFound || got.Spec != nil {
			t.Errorf("LookupSpec() = %+v, want NotFound with nil Spec", got)
		}
	})

	t.Run("upsert replaces previous entry", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		if err := s.UpsertSpec(ctx, &SpecEntry{PartNumber: "ATMEGA328P", NotFound: true}); err != nil {
			t.Fatalf("UpsertSpec() error = %v", err)
		}
		refreshed := &SpecEntry{
			PartNumber: "ATMEGA328P",
			Spec:       &model.OfficialSpecification{PartNumber: "ATMEGA328P", Manufacturer: "ATMEL"},
			Source:     "aggregator",
		}
		if err := s.UpsertSpec(ctx, refreshed); err != nil {
			t.Fatalf("UpsertSpec() error = %v", err)
		}

		got, err := s.LookupSpec(ctx, "ATMEGA328P", time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got == nil || got.NotFound || got.Spec == nil {
			t.Fatalf("LookupSpec() = %+v, want refreshed positive entry", got)
		}
		if got.Spec.Manufacturer != "ATMEL" {
			t.Errorf("LookupSpec() Manufacturer = %q, want ATMEL", got.Spec.Manufacturer)
		}
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO spec_cache (part_number, spec_json, not_found) VALUES (?, ?, 0)",
			"BROKEN1", "{not json",
		); err != nil {
			t.Fatalf("failed to insert corrupt entry: %v", err)
		}

		got, err := s.LookupSpec(ctx, "BROKEN1", time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got != nil {
			t.Errorf("LookupSpec() = %+v, want nil for corrupt entry", got)
		}
	})

	t.Run("unknown part number is a miss", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)

		got, err := s.LookupSpec(context.Background(), "NOPE999", time.Hour)
		if err != nil {
			t.Fatalf("LookupSpec() error = %v", err)
		}
		if got != nil {
			t.Errorf("LookupSpec() = %+v, want nil", got)
		}
	})
}

func TestStoreVerificationHistory(t *testing.T) {
	t.Parallel()

	result := func(part string, class model.Classification, confidence int) *model.VerificationResult {
		return &model.VerificationResult{
			PartNumber:         part,
			Classification:     class,
			ClassificationText: class.String(),
			Confidence:         confidence,
			AnalyzedAt:         time.Now().UTC(),
		}
	}

	t.Run("save and load by ID", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		id, err := s.SaveVerification(ctx, "chip.png", result("CY8C29666-24PVXI", model.ClassificationAuthentic, 87))
		if err != nil {
			t.Fatalf("SaveVerification() error = %v", err)
		}

		got, err := s.GetVerificationByID(ctx, id)
		if err != nil {
			t.Fatalf("GetVerificationByID() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetVerificationByID() = nil, want stored result")
		}
		if got.PartNumber != "CY8C29666-24PVXI" || got.Confidence != 87 {
			t.Errorf("GetVerificationByID() = %+v, want stored fields", got)
		}
		if got.Classification != model.ClassificationAuthentic {
			t.Errorf("Classification = %v, want %v", got.Classification, model.ClassificationAuthentic)
		}
	})

	t.Run("history filters by part number", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		ctx := context.Background()

		for _, r := range []*model.VerificationResult{
			result("LM358N", model.ClassificationSuspect, 55),
			result("LM358N", model.ClassificationCounterfeit, 20),
			result("ATMEGA328P", model.ClassificationAuthentic, 91),
		} {
			if _, err := s.SaveVerification(ctx, "batch.png", r); err != nil {
				t.Fatalf("SaveVerification() error = %v", err)
			}
		}

		records, err := s.GetHistory(ctx, "lm358n")
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("GetHistory() returned %d records, want 2", len(records))
		}
		for _, rec := range records {
			if rec.PartNumber != "LM358N" {
				t.Errorf("record part = %q, want LM358N", rec.PartNumber)
			}
		}

		all, err := s.GetHistory(ctx, "")
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(all) != 3 {
			t.Errorf("GetHistory(all) returned %d records, want 3", len(all))
		}

		parts, err := s.ListVerifiedParts(ctx)
		if err != nil {
			t.Fatalf("ListVerifiedParts() error = %v", err)
		}
		want := []string{"ATMEGA328P", "LM358N"}
		if len(parts) != len(want) {
			t.Fatalf("ListVerifiedParts() = %v, want %v", parts, want)
		}
		for i := range want {
			if parts[i] != want[i] {
				t.Errorf("ListVerifiedParts()[%d] = %q, want %q", i, parts[i], want[i])
			}
		}
	})

	t.Run("missing ID returns nil", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)

		got, err := s.GetVerificationByID(context.Background(), 42)
		if err != nil {
			t.Fatalf("GetVerificationByID() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetVerificationByID() = %+v, want nil", got)
		}
	})
}
