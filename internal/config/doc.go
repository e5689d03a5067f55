// Package config provides configuration structures and utilities for markscan.
// It defines OCR backend ordering, datasheet source ordering, verification
// check weights, cache TTL, per-call timeouts, and the recognition lookup
// tables (manufacturer prefixes, country codes, confusion pairs).
package config
