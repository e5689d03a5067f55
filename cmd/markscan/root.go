// Package main provides the entry point for the markscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for markscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markscan",
		Short: "Authenticity verification for electronic component markings",
		Long: `markscan verifies the authenticity of electronic component markings.

It fuses OCR readings of a package photo into a single trusted reading,
parses the marking into structured fields (part number, manufacturer,
date code, lot code, country), resolves the official marking specification
for the part, and classifies the component as AUTHENTIC, SUSPECT, or
COUNTERFEIT based on six weighted checks.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
