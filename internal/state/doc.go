// Package state persists migration progress between runs. The SQLite store
// maps source tickets to their replicated counterparts and keeps a log of
// per-ticket failures for the status command.
package state
