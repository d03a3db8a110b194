package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ticketferry/internal/config"
	"ticketferry/internal/enummap"
	"ticketferry/internal/glpi"
	"ticketferry/internal/identity"
	"ticketferry/internal/logging"
	"ticketferry/internal/services"
	"ticketferry/internal/source"
	"ticketferry/internal/state"
)

// Outcome aggregates one batch run.
type Outcome struct {
	RunID          string
	DryRun         bool
	Planned        int
	Migrated       int
	Skipped        int
	Failed         int
	Watchers       int
	Followups      int
	Documents      int
	SkippedContent int
	SoftFailures   int
	Duration       time.Duration
}

// Runner owns the lifecycle of one migration batch: the instance lock, the
// API session, and the sequential ticket loop.
type Runner struct {
	cfg    *config.Config
	client *glpi.Client
	db     *source.DB
	store  *state.Store
	logger *slog.Logger
}

// NewRunner wires a batch runner from already-opened resources. The caller
// keeps ownership of db and store and closes them after Run returns.
func NewRunner(cfg *config.Config, client *glpi.Client, db *source.DB,
	store *state.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, client: client, db: db, store: store, logger: logger}
}

// Run migrates every pending ticket in the configured range. Tickets already
// recorded in the state store are skipped, which is what makes interrupted
// runs resumable. Per-ticket hard failures are counted and logged; the batch
// keeps going.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrFatal, "runner", "acquire lock", r.cfg.LockPath(), err)
	}
	if !locked {
		return Outcome{}, services.Wrap(services.ErrFatal, "runner", "acquire lock",
			"another migration is already running", nil)
	}
	defer func() { _ = lock.Unlock() }()

	outcome := Outcome{
		RunID:  uuid.NewString(),
		DryRun: r.cfg.Migration.DryRun,
	}
	logger := r.logger.With(logging.String(logging.FieldRunID, outcome.RunID))
	start := time.Now()

	tickets, err := r.db.Tickets(ctx, r.cfg.Migration.FirstTicket, r.cfg.Migration.LastTicket)
	if err != nil {
		return outcome, services.Wrap(services.ErrFatal, "runner", "load tickets", "", err)
	}
	outcome.Planned = len(tickets)
	logger.Info("batch loaded",
		logging.Int("tickets", len(tickets)),
		logging.Bool("dry_run", outcome.DryRun))

	if outcome.DryRun {
		if err := r.runDry(ctx, tickets, &outcome, logger); err != nil {
			return outcome, err
		}
		outcome.Duration = time.Since(start)
		return outcome, nil
	}

	session, err := r.client.InitSession(ctx)
	if err != nil {
		return outcome, err
	}
	defer func() {
		killCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.client.KillSession(killCtx, session); err != nil {
			logger.Warn("releasing session failed", logging.Error(err))
		}
	}()

	engine := NewEngine(
		r.client,
		r.db,
		identity.NewResolver(r.client, r.cfg.Identity.NoReplyEmail, r.cfg.Identity.NoReplyAccountID, logger),
		source.NewContentResolver(r.db, r.cfg.Source.AttachmentsDir),
		enummap.New(r.cfg.Mappings),
		r.store,
		logger,
		outcome.RunID,
	)

	for _, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			outcome.Duration = time.Since(start)
			return outcome, fmt.Errorf("batch interrupted: %w", err)
		}

		if _, linked, err := r.store.LookupTicket(ctx, ticket.ID); err != nil {
			outcome.Duration = time.Since(start)
			return outcome, services.Wrap(services.ErrFatal, "runner", "lookup link", "", err)
		} else if linked {
			outcome.Skipped++
			continue
		}

		result, err := engine.MigrateTicket(ctx, session, ticket)
		if err != nil {
			logger.Error("ticket migration failed",
				logging.Int64(logging.FieldTicketID, ticket.ID),
				logging.Error(err))
			outcome.Failed++
			if services.IsFatal(err) {
				outcome.Duration = time.Since(start)
				return outcome, err
			}
			continue
		}
		outcome.Migrated++
		outcome.Watchers += result.Watchers
		outcome.Followups += result.Followups
		outcome.Documents += result.Documents
		outcome.SkippedContent += result.SkippedContent
		outcome.SoftFailures += result.SoftFailures
	}

	outcome.Duration = time.Since(start)
	logger.Info("batch finished",
		logging.Int("migrated", outcome.Migrated),
		logging.Int("skipped", outcome.Skipped),
		logging.Int("failed", outcome.Failed),
		logging.Duration("duration", outcome.Duration.Round(time.Millisecond)))
	return outcome, nil
}

// runDry walks the batch without touching the target, reporting what a live
// run would do.
func (r *Runner) runDry(ctx context.Context, tickets []source.Ticket,
	outcome *Outcome, logger *slog.Logger) error {
	for _, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch interrupted: %w", err)
		}
		_, linked, err := r.store.LookupTicket(ctx, ticket.ID)
		if err != nil {
			return services.Wrap(services.ErrFatal, "runner", "lookup link", "", err)
		}
		if linked {
			outcome.Skipped++
			continue
		}
		logger.Info("would migrate",
			logging.Int64(logging.FieldTicketID, ticket.ID),
			logging.String("subject", ticket.Subject))
		outcome.Migrated++
	}
	return nil
}
