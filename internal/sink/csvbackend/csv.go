package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/sink"
)

// ensure csvSink implements sink.Sink
var _ sink.Sink = (*csvSink)(nil)

type csvSink struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a CSV-backed lead sink. The file is opened for appending and a
// header row is written when the file starts out empty.
func New(filePath string) (sink.Sink, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv sink: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv sink: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(leads.Columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("csv sink: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csv sink: %w", err)
		}
	}

	return &csvSink{file: f}, nil
}

func (s *csvSink) Append(ctx context.Context, rows []leads.Lead) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure we're at the end of the file for appending (just in case)
	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return 0, &sink.WriteError{Err: err}
	}

	w := csv.NewWriter(s.file)
	written := 0
	for _, l := range rows {
		if err := ctx.Err(); err != nil {
			w.Flush()
			return written, &sink.WriteError{Err: err}
		}
		if err := w.Write(l.Row()); err != nil {
			w.Flush()
			return written, &sink.WriteError{Err: err}
		}
		written++
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return written, &sink.WriteError{Err: err}
	}
	return written, nil
}

func (s *csvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
