// Package batch reads practice files: one token per line, optionally bound
// to a verse or an explicit audio URL.
package batch
