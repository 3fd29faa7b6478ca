package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/adamind/xleads/internal/leads"
)

// writerSink prints rows as tab-separated lines. It backs --dry-run, where
// the operator wants to see the batch without touching the sheet.
type writerSink struct {
	mu     sync.Mutex
	w      io.Writer
	header bool
}

// ensure writerSink implements Sink
var _ Sink = (*writerSink)(nil)

// NewWriter creates a sink that writes rows to w, one tab-separated line per
// lead, preceded by a header line on first use.
func NewWriter(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Append(ctx context.Context, rows []leads.Lead) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.header {
		if _, err := fmt.Fprintln(s.w, strings.Join(leads.Columns, "\t")); err != nil {
			return 0, &WriteError{Err: err}
		}
		s.header = true
	}

	written := 0
	for _, l := range rows {
		if _, err := fmt.Fprintln(s.w, strings.Join(l.Row(), "\t")); err != nil {
			return written, &WriteError{Err: err}
		}
		written++
	}
	return written, nil
}

func (s *writerSink) Close() error { return nil }
