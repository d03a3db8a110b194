// Package identity resolves source email addresses to target account ids,
// creating accounts on demand and caching every result for the run.
package identity
