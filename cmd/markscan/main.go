// Package main provides the entry point for the markscan CLI.
//
// markscan verifies the authenticity of electronic component markings.
// It fuses OCR readings of a package photo, parses the marking into
// structured fields, resolves the official specification for the part,
// and classifies the component as authentic, suspect, or counterfeit.
//
// Usage:
//
//	markscan verify <image> [image...]
//	markscan history [part-number]
//
// See --help for all available options.
package main

// main is the entry point for markscan.
func main() {
	Execute()
}
