// Package logging wires log/slog with the console and JSON handlers used by
// the migration CLI, plus the attr helpers shared across components.
package logging
