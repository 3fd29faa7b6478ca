package sink

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adamind/xleads/internal/leads"
)

func TestWriterSink(t *testing.T) {
	var buf strings.Builder
	s := NewWriter(&buf)
	defer s.Close()

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	batch := []leads.Lead{
		{Timestamp: ts, Topic: "t", Name: "Jane Doe", Followers: 1200},
	}

	ctx := context.Background()
	if _, err := s.Append(ctx, batch); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, batch); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(leads.Columns, "\t") {
		t.Errorf("unexpected header line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Jane Doe") {
		t.Errorf("expected lead row, got %q", lines[1])
	}
}
