// Package html extracts readable text from saved web pages.
//
// Markup, scripts, styles and comments are dropped. Block elements such
// as paragraphs, headings and list items each start a new line so that
// the chunker sees paragraph-like boundaries.
package html
