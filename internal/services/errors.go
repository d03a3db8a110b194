package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatal aborts the whole migration run (session init, source connect).
	ErrFatal = errors.New("fatal error")
	// ErrValidation marks malformed input or an unusable response payload.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks content that could not be located (missing file blob,
	// unknown record). Callers treat it as recoverable unless stated otherwise.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures that a rerun of the batch may clear.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the batch rather than the
// current ticket.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
