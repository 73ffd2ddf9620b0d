// Package output renders scan results as JSON, styled terminal text, or a
// standalone HTML document.
package output
