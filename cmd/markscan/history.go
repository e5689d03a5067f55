package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/database"
)

// NewHistoryCmd creates the history command.
// This command lists verification results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [part-number]",
		Short: "List prior verification results",
		Long: `History lists verification results stored in the local database.

Without arguments it lists every recorded verification, newest first.
With a part number it lists only the verifications of that part.
Use --id to print one stored result in full.

Examples:
  # List all recorded verifications
  markscan history

  # List verifications of one part
  markscan history CY8C29666-24PVXI

  # List all parts that have been verified
  markscan history --list-parts

  # Print one stored result in full as JSON
  markscan history --id 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Print the stored verification with this ID in full")
	cmd.Flags().BoolP("list-parts", "L", false,
		"List all verified part numbers in the database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data dir)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'markscan verify' first): %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	if id > 0 {
		return printVerificationByID(ctx, cmd, store, id)
	}

	listParts, err := cmd.Flags().GetBool("list-parts")
	if err != nil {
		return err
	}
	if listParts {
		return printVerifiedParts(ctx, cmd, store)
	}

	partNumber := ""
	if len(args) > 0 {
		partNumber = args[0]
	}
	return printHistory(ctx, cmd, store, partNumber)
}

// printVerificationByID prints one stored result in full as JSON.
func printVerificationByID(ctx context.Context, cmd *cobra.Command, store *database.Store, id int64) error {
	result, err := store.GetVerificationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load verification %d: %w", id, err)
	}
	if result == nil {
		return fmt.Errorf("no verification with ID %d", id)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printVerifiedParts lists every part number with recorded verifications.
func printVerifiedParts(ctx context.Context, cmd *cobra.Command, store *database.Store) error {
	parts, err := store.ListVerifiedParts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list parts: %w", err)
	}
	if len(parts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No verifications recorded yet.")
		return nil
	}

	for _, part := range parts {
		fmt.Fprintln(cmd.OutOrStdout(), part)
	}
	return nil
}

// printHistory lists verification summaries, newest first.
func printHistory(ctx context.Context, cmd *cobra.Command, store *database.Store, partNumber string) error {
	records, err := store.GetHistory(ctx, partNumber)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		if partNumber != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No verifications recorded for %s.\n", strings.ToUpper(partNumber))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No verifications recorded yet.")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tPART NUMBER\tVERDICT\tCONFIDENCE\tIMAGE")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			r.ID,
			r.Timestamp.Format(time.DateTime),
			r.PartNumber,
			r.Classification,
			r.Confidence,
			r.ImageRef,
		)
	}
	return w.Flush()
}
