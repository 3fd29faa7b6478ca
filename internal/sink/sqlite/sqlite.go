package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/sink"
)

// ensure sqliteSink implements sink.Sink
var _ sink.Sink = (*sqliteSink)(nil)

type sqliteSink struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	collected_at TEXT NOT NULL,
	topic TEXT NOT NULL,
	name TEXT NOT NULL,
	username TEXT NOT NULL,
	handle TEXT NOT NULL,
	description TEXT NOT NULL,
	followers INTEGER NOT NULL
);
`

// New creates a SQLite-backed lead sink. The leads table is append-only and
// carries no uniqueness constraint: two runs with the same topic produce two
// independent batches of rows.
func New(dsn string) (sink.Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite sink: %w", err)
	}

	return &sqliteSink{db: db}, nil
}

func (s *sqliteSink) Append(ctx context.Context, rows []leads.Lead) (int, error) {
	const query = `
	INSERT INTO leads (
		collected_at, topic, name, username, handle, description, followers
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	// One insert per row, no surrounding transaction: a failure partway
	// leaves earlier rows in place, matching the sheet's append semantics.
	written := 0
	for _, l := range rows {
		_, err := s.db.ExecContext(ctx, query,
			leads.FormatTimestamp(l.Timestamp),
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

func (s *sqliteSink) Close() error {
	return s.db.Close()
}
