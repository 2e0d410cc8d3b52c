// Package mapping holds the static lookup tables that map Arabic letters and
// common words to their local pronunciation assets.
package mapping
