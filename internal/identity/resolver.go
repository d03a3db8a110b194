package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ticketferry/internal/glpi"
	"ticketferry/internal/logging"
)

// ErrCreateFailed reports that an email matched no existing account and the
// fallback account creation did not succeed either.
var ErrCreateFailed = errors.New("identity: account creation failed")

// Directory is the slice of the GLPI API the resolver needs. *glpi.Client
// satisfies it.
type Directory interface {
	SearchUserByEmail(ctx context.Context, s *glpi.Session, email string) (int64, error)
	SearchUserByLogin(ctx context.Context, s *glpi.Session, email string) (int64, error)
	CreateUser(ctx context.Context, s *glpi.Session, input glpi.UserInput) (int64, error)
}

// Resolver maps source email addresses to target account ids. Results are
// cached for the lifetime of the resolver so a sender appearing on hundreds
// of tickets costs one round of API calls; the cache also guarantees an
// account is created at most once per run.
type Resolver struct {
	dir            Directory
	noReplyEmail   string
	noReplyAccount int64
	logger         *slog.Logger

	mu    sync.Mutex
	cache map[string]int64
}

// NewResolver builds a resolver. noReplyEmail addresses resolve to
// noReplyAccount without touching the API.
func NewResolver(dir Directory, noReplyEmail string, noReplyAccount int64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		dir:            dir,
		noReplyEmail:   normalize(noReplyEmail),
		noReplyAccount: noReplyAccount,
		logger:         logging.NewComponentLogger(logger, "identity"),
		cache:          make(map[string]int64),
	}
}

// Resolve returns the target account id for an email address. An empty email
// resolves to zero, meaning no account. Resolution order: the no-reply
// sentinel, the cache, the email search field, the login search field, and
// finally account creation.
func (r *Resolver) Resolve(ctx context.Context, s *glpi.Session, email, realName string) (int64, error) {
	email = normalize(email)
	if email == "" {
		return 0, nil
	}
	if email == r.noReplyEmail {
		return r.noReplyAccount, nil
	}

	r.mu.Lock()
	if id, ok := r.cache[email]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	id, err := r.lookup(ctx, s, email, realName)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.cache[email] = id
	r.mu.Unlock()
	return id, nil
}

func (r *Resolver) lookup(ctx context.Context, s *glpi.Session, email, realName string) (int64, error) {
	id, err := r.dir.SearchUserByEmail(ctx, s, email)
	if err != nil {
		return 0, fmt.Errorf("search by email %q: %w", email, err)
	}
	if id != 0 {
		return id, nil
	}

	id, err = r.dir.SearchUserByLogin(ctx, s, email)
	if err != nil {
		return 0, fmt.Errorf("search by login %q: %w", email, err)
	}
	if id != 0 {
		return id, nil
	}

	r.logger.Debug("creating account", logging.String("email", email))
	id, err = r.dir.CreateUser(ctx, s, glpi.UserInput{Email: email, RealName: realName})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrCreateFailed, email, err)
	}
	r.logger.Info("account created",
		logging.String("email", email),
		logging.Int64("account_id", id))
	return id, nil
}

// CachedCount reports how many addresses have been resolved so far.
func (r *Resolver) CachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
