package source

import (
	"context"
	"fmt"

	"github.com/coregx/relica"
	_ "github.com/go-sql-driver/mysql"

	"ticketferry/internal/config"
	"ticketferry/internal/services"
)

// DB wraps read-only access to the osTicket schema.
type DB struct {
	rel *relica.DB
}

// Open connects to the osTicket database. The DSN must enable parseTime so
// DATETIME columns scan into time.Time.
func Open(cfg *config.Config) (*DB, error) {
	rel, err := relica.Open("mysql", cfg.Source.DSN,
		relica.WithMaxOpenConns(cfg.Source.MaxOpenConns))
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "source", "open database", "", err)
	}
	return &DB{rel: rel}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	if d == nil || d.rel == nil {
		return nil
	}
	return d.rel.Close()
}

// Stats summarizes the migratable corpus for the plan command.
type Stats struct {
	Tickets       int64
	ThreadEntries int64
	Attachments   int64
	Collaborators int64
}

// CountTickets returns the number of tickets inside the configured id bounds.
func (d *DB) CountTickets(ctx context.Context, first, last int64) (int64, error) {
	query := d.rel.Builder().
		Select("COUNT(*) AS count").
		From("ost_ticket").
		WithContext(ctx)
	switch {
	case first > 0 && last > 0:
		query = query.Where("ticket_id >= ? AND ticket_id <= ?", first, last)
	case first > 0:
		query = query.Where("ticket_id >= ?", first)
	case last > 0:
		query = query.Where("ticket_id <= ?", last)
	}

	var row struct {
		Count int64 `db:"count"`
	}
	if err := query.One(&row); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return row.Count, nil
}

// CorpusStats gathers corpus-wide counts for the plan command.
func (d *DB) CorpusStats(ctx context.Context, first, last int64) (Stats, error) {
	var stats Stats
	var err error

	if stats.Tickets, err = d.CountTickets(ctx, first, last); err != nil {
		return Stats{}, err
	}
	if stats.ThreadEntries, err = d.countScalar(ctx,
		`SELECT COUNT(*) FROM ost_thread_entry te
		 JOIN ost_thread th ON te.thread_id = th.id
		 WHERE th.object_type = 'T'`); err != nil {
		return Stats{}, fmt.Errorf("count thread entries: %w", err)
	}
	if stats.Attachments, err = d.countScalar(ctx,
		`SELECT COUNT(*) FROM ost_attachment WHERE type = 'H'`); err != nil {
		return Stats{}, fmt.Errorf("count attachments: %w", err)
	}
	if stats.Collaborators, err = d.countScalar(ctx,
		`SELECT COUNT(*) FROM ost_thread_collaborator tc
		 JOIN ost_thread th ON tc.thread_id = th.id
		 WHERE th.object_type = 'T'`); err != nil {
		return Stats{}, fmt.Errorf("count collaborators: %w", err)
	}
	return stats, nil
}

func (d *DB) countScalar(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := d.rel.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
