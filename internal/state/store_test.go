package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "migration.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLookupUnknownTicket(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.LookupTicket(context.Background(), 42)
	if err != nil {
		t.Fatalf("LookupTicket failed: %v", err)
	}
	if ok {
		t.Fatal("unknown ticket must not resolve")
	}
}

func TestLinkAndLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.LinkTicket(ctx, 42, 1042, "run-1"); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}

	targetID, ok, err := store.LookupTicket(ctx, 42)
	if err != nil {
		t.Fatalf("LookupTicket failed: %v", err)
	}
	if !ok || targetID != 1042 {
		t.Fatalf("got (%d, %v), want (1042, true)", targetID, ok)
	}
}

func TestLinkOverwritesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.LinkTicket(ctx, 42, 1042, "run-1"); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	if err := store.LinkTicket(ctx, 42, 2042, "run-2"); err != nil {
		t.Fatalf("relink failed: %v", err)
	}

	targetID, _, err := store.LookupTicket(ctx, 42)
	if err != nil {
		t.Fatalf("LookupTicket failed: %v", err)
	}
	if targetID != 2042 {
		t.Fatalf("targetID = %d, want 2042", targetID)
	}

	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("len(links) = %d, want 1", len(links))
	}
	if links[0].RunID != "run-2" {
		t.Fatalf("RunID = %q, want run-2", links[0].RunID)
	}
}

func TestRecordAndListFailures(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	failures := []Failure{
		{SourceID: 7, RunID: "run-1", Stage: "ticket", Detail: "create returned no id"},
		{SourceID: 9, RunID: "run-1", Stage: "attachment", Detail: "content missing"},
		{SourceID: 8, RunID: "run-2", Stage: "ticket", Detail: "timeout"},
	}
	for _, failure := range failures {
		if err := store.RecordFailure(ctx, failure); err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
	}

	got, err := store.FailuresForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("FailuresForRun failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].SourceID != 7 || got[1].SourceID != 9 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].FailedAt.IsZero() {
		t.Fatal("FailedAt should default to now")
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.LinkTicket(ctx, 1, 101, "run-1"); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := store.LinkTicket(ctx, 2, 102, "run-2"); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	if err := store.RecordFailure(ctx, Failure{SourceID: 3, RunID: "run-2", Stage: "thread", Detail: "x"}); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.LinkedTickets != 2 {
		t.Fatalf("LinkedTickets = %d, want 2", summary.LinkedTickets)
	}
	if summary.RecordedFailures != 1 {
		t.Fatalf("RecordedFailures = %d, want 1", summary.RecordedFailures)
	}
	if summary.LastRunID != "run-2" {
		t.Fatalf("LastRunID = %q, want run-2", summary.LastRunID)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "migration.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.LinkTicket(context.Background(), 5, 105, "run-1"); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	targetID, ok, err := reopened.LookupTicket(context.Background(), 5)
	if err != nil {
		t.Fatalf("LookupTicket failed: %v", err)
	}
	if !ok || targetID != 105 {
		t.Fatalf("got (%d, %v), want (105, true)", targetID, ok)
	}
}
