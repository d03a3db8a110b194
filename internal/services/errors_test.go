package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(ErrFatal, "glpi", "init session", "status 500", inner)

	if !errors.Is(err, ErrFatal) {
		t.Fatalf("expected ErrFatal marker in %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected inner error preserved in %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "source", "fetch ticket", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestWrapDetailOrdering(t *testing.T) {
	err := Wrap(ErrNotFound, "content", "resolve file", "missing shard", nil)
	want := fmt.Sprintf("%s: content: resolve file: missing shard", ErrNotFound)
	if err.Error() != want {
		t.Fatalf("unexpected message %q, want %q", err.Error(), want)
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(Wrap(ErrTransient, "glpi", "add followup", "", nil)) {
		t.Fatal("transient error must not be fatal")
	}
	if !IsFatal(Wrap(ErrFatal, "glpi", "init session", "", nil)) {
		t.Fatal("fatal marker not detected")
	}
}
