package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/sink"
)

// ensure pgSink implements sink.Sink
var _ sink.Sink = (*pgSink)(nil)

type pgSink struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	collected_at TIMESTAMPTZ NOT NULL,
	topic TEXT NOT NULL,
	name TEXT NOT NULL,
	username TEXT NOT NULL,
	handle TEXT NOT NULL,
	description TEXT NOT NULL,
	followers BIGINT NOT NULL
);
`

// New creates a Postgres-backed lead sink. A failed ping or schema bootstrap
// surfaces as *sink.CredentialError so callers can distinguish a bad DSN from
// a rejected append.
func New(ctx context.Context, dsn string) (sink.Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &sink.CredentialError{Err: fmt.Errorf("postgres sink: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &sink.CredentialError{Err: fmt.Errorf("postgres sink: %w", err)}
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, &sink.WriteError{Err: fmt.Errorf("postgres sink: %w", err)}
	}

	return &pgSink{pool: pool}, nil
}

func (s *pgSink) Append(ctx context.Context, rows []leads.Lead) (int, error) {
	const query = `
	INSERT INTO leads (
		collected_at, topic, name, username, handle, description, followers
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	written := 0
	for _, l := range rows {
		_, err := s.pool.Exec(ctx, query,
			l.Timestamp.UTC(),
			l.Topic,
			l.Name,
			l.Username,
			l.Handle,
			l.Description,
			l.Followers,
		)
		if err != nil {
			return written, &sink.WriteError{Err: err}
		}
		written++
	}
	return written, nil
}

func (s *pgSink) Close() error {
	s.pool.Close()
	return nil
}
