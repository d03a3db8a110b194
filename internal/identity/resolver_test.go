package identity

import (
	"context"
	"errors"
	"testing"

	"ticketferry/internal/glpi"
)

type fakeDirectory struct {
	byEmail map[string]int64
	byLogin map[string]int64

	emailSearches int
	loginSearches int
	creates       int
	nextID        int64
	createErr     error
}

func (f *fakeDirectory) SearchUserByEmail(_ context.Context, _ *glpi.Session, email string) (int64, error) {
	f.emailSearches++
	return f.byEmail[email], nil
}

func (f *fakeDirectory) SearchUserByLogin(_ context.Context, _ *glpi.Session, email string) (int64, error) {
	f.loginSearches++
	return f.byLogin[email], nil
}

func (f *fakeDirectory) CreateUser(_ context.Context, _ *glpi.Session, input glpi.UserInput) (int64, error) {
	f.creates++
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	return f.nextID, nil
}

func TestResolveEmptyEmailMeansNoAccount(t *testing.T) {
	dir := &fakeDirectory{}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	id, err := resolver.Resolve(context.Background(), nil, "   ", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}
	if dir.emailSearches != 0 || dir.creates != 0 {
		t.Fatal("empty email must not touch the directory")
	}
}

func TestResolveNoReplySkipsAPI(t *testing.T) {
	dir := &fakeDirectory{}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	id, err := resolver.Resolve(context.Background(), nil, "No_Reply@Example.com", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != 999999 {
		t.Fatalf("id = %d, want reserved account", id)
	}
	if dir.emailSearches != 0 || dir.loginSearches != 0 || dir.creates != 0 {
		t.Fatal("no-reply resolution must not touch the directory")
	}
}

func TestResolveFindsByEmailFirst(t *testing.T) {
	dir := &fakeDirectory{byEmail: map[string]int64{"alice@example.com": 12}}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	id, err := resolver.Resolve(context.Background(), nil, "Alice@Example.com", "Alice")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != 12 {
		t.Fatalf("id = %d, want 12", id)
	}
	if dir.loginSearches != 0 {
		t.Fatal("login search must not run when email matched")
	}
}

func TestResolveFallsBackToLogin(t *testing.T) {
	dir := &fakeDirectory{byLogin: map[string]int64{"bob@example.com": 34}}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	id, err := resolver.Resolve(context.Background(), nil, "bob@example.com", "Bob")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != 34 {
		t.Fatalf("id = %d, want 34", id)
	}
	if dir.creates != 0 {
		t.Fatal("creation must not run when login matched")
	}
}

func TestResolveCreatesAsLastResort(t *testing.T) {
	dir := &fakeDirectory{nextID: 100}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	id, err := resolver.Resolve(context.Background(), nil, "new@example.com", "New Person")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != 101 {
		t.Fatalf("id = %d, want 101", id)
	}
	if dir.creates != 1 {
		t.Fatalf("creates = %d, want 1", dir.creates)
	}
}

func TestResolveCachesResults(t *testing.T) {
	dir := &fakeDirectory{byEmail: map[string]int64{"alice@example.com": 12}}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	for range 3 {
		if _, err := resolver.Resolve(context.Background(), nil, "alice@example.com", "Alice"); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if dir.emailSearches != 1 {
		t.Fatalf("emailSearches = %d, want 1", dir.emailSearches)
	}
	if resolver.CachedCount() != 1 {
		t.Fatalf("CachedCount = %d, want 1", resolver.CachedCount())
	}
}

func TestResolveCachesCreatedAccounts(t *testing.T) {
	dir := &fakeDirectory{}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	first, err := resolver.Resolve(context.Background(), nil, "new@example.com", "New")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), nil, "new@example.com", "New")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first != second {
		t.Fatalf("cached id mismatch: %d vs %d", first, second)
	}
	if dir.creates != 1 {
		t.Fatalf("creates = %d, want exactly 1", dir.creates)
	}
}

func TestResolveCreateFailure(t *testing.T) {
	dir := &fakeDirectory{createErr: errors.New("api down")}
	resolver := NewResolver(dir, "no_reply@example.com", 999999, nil)

	_, err := resolver.Resolve(context.Background(), nil, "new@example.com", "New")
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("expected ErrCreateFailed, got %v", err)
	}
	if resolver.CachedCount() != 0 {
		t.Fatal("failed resolution must not be cached")
	}
}
