// Package analyzer assembles the analysis pipeline from configuration and
// exposes a synchronous API for verifying component marking images.
//
// The Analyzer owns no I/O policy of its own: the HTTP client, the database
// store, and the logger are injected, and every knob comes from the Config.
// It exists so that callers (the CLI, tests, embedding programs) get one
// constructor instead of wiring six pipeline steps by hand.
package analyzer
