// Package parsers provides implementations of the Parser interface for the
// supported document formats, and a Registry that dispatches on file
// extension. Each parser knows how to extract plain text from one format.
//
// Parsers are registered with the Registry at startup.
package parsers
