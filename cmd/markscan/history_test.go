package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/model"
)

// seedHistory creates a database with two verification records and returns
// its directory.
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	results := []*model.VerificationResult{
		{
			PartNumber:         "CY8C29666-24PVXI",
			Confidence:         92,
			Classification:     model.ClassificationAuthentic,
			ClassificationText: "AUTHENTIC",
			AnalyzedAt:         time.Now(),
		},
		{
			PartNumber:         "NE555P",
			Confidence:         31,
			Classification:     model.ClassificationCounterfeit,
			ClassificationText: "COUNTERFEIT",
			AnalyzedAt:         time.Now(),
		},
	}
	for i, result := range results {
		if _, err := store.SaveVerification(ctx, "chip.png", result); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}
	return dir
}

// runHistoryCommand executes the history command and returns its stdout.
func runHistoryCommand(t *testing.T, args []string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"history"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// TestHistoryCmd tests listing stored verification results.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists all records", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)
		output, err := runHistoryCommand(t, []string{"--db-dir", dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(output, "CY8C29666-24PVXI") || !strings.Contains(output, "NE555P") {
			t.Errorf("expected both parts in output:\n%s", output)
		}
		if !strings.Contains(output, "AUTHENTIC") || !strings.Contains(output, "COUNTERFEIT") {
			t.Errorf("expected verdicts in output:\n%s", output)
		}
	})

	t.Run("filters by part number", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)
		output, err := runHistoryCommand(t, []string{"NE555P", "--db-dir", dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(output, "NE555P") {
			t.Errorf("expected filtered part:\n%s", output)
		}
		if strings.Contains(output, "CY8C29666-24PVXI") {
			t.Errorf("expected other part to be filtered out:\n%s", output)
		}
	})

	t.Run("prints one record by id", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)
		output, err := runHistoryCommand(t, []string{"--id", "1", "--db-dir", dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result model.VerificationResult
		if err := json.Unmarshal([]byte(output), &result); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output)
		}
		if result.PartNumber != "CY8C29666-24PVXI" {
			t.Errorf("part number = %q", result.PartNumber)
		}
	})

	t.Run("unknown id is an error", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)
		if _, err := runHistoryCommand(t, []string{"--id", "999", "--db-dir", dir}); err == nil {
			t.Fatal("expected error for unknown id")
		}
	})

	t.Run("lists verified parts", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)
		output, err := runHistoryCommand(t, []string{"--list-parts", "--db-dir", dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(output, "CY8C29666-24PVXI") || !strings.Contains(output, "NE555P") {
			t.Errorf("expected both parts:\n%s", output)
		}
	})

	t.Run("empty history prints a notice", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := database.Open(dir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		_ = store.Close()

		output, err := runHistoryCommand(t, []string{"--db-dir", dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "No verifications recorded") {
			t.Errorf("expected notice:\n%s", output)
		}
	})

	t.Run("missing database is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := runHistoryCommand(t, []string{"--db-dir", t.TempDir()}); err == nil {
			t.Fatal("expected error for missing database")
		}
	})
}
