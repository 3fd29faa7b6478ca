// Package gsheet appends leads to a Google Sheets tab through the Sheets v4
// API, authenticated with a pre-provisioned service account key. The target
// sheet must be shared with the service account's email address.
package gsheet

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/sink"
)

// Config identifies the target spreadsheet and the credential used to reach it.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	Tab             string
	// Endpoint overrides the Sheets API base URL and disables authentication.
	// Used by tests; leave empty in production.
	Endpoint string
}

type sheetSink struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// ensure sheetSink implements sink.Sink
var _ sink.Sink = (*sheetSink)(nil)

// New authenticates once, makes sure the target tab exists with the expected
// header row, and returns the sink. Authentication problems surface as
// *sink.CredentialError, everything else as *sink.WriteError.
func New(ctx context.Context, cfg Config) (sink.Sink, error) {
	if cfg.SpreadsheetID == "" {
		return nil, &sink.CredentialError{Err: fmt.Errorf("spreadsheet id is required")}
	}
	if cfg.Tab == "" {
		cfg.Tab = "Leads"
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = []option.ClientOption{
			option.WithEndpoint(cfg.Endpoint),
			option.WithoutAuthentication(),
		}
	} else {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, &sink.CredentialError{Err: fmt.Errorf("service account key: %w", err)}
		}
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &sink.CredentialError{Err: err}
	}

	s := &sheetSink{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		tab:           cfg.Tab,
	}

	if err := s.ensureTab(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureTab creates the tab when missing and writes the header row unless an
// identical one is already in place.
func (s *sheetSink) ensureTab(ctx context.Context) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return &sink.WriteError{Err: fmt.Errorf("open spreadsheet: %w", err)}
	}

	found := false
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.tab {
			found = true
			break
		}
	}

	if !found {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.tab},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return &sink.WriteError{Err: fmt.Errorf("add tab %q: %w", s.tab, err)}
		}
	}

	existing, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("1:1")).Context(ctx).Do()
	if err != nil {
		return &sink.WriteError{Err: fmt.Errorf("read header row: %w", err)}
	}
	if headerMatches(existing) {
		return nil
	}

	header := make([]any, len(leads.Columns))
	for i, c := range leads.Columns {
		header[i] = c
	}
	vr := &sheets.ValueRange{Values: [][]any{header}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeRef("A1:G1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return &sink.WriteError{Err: fmt.Errorf("write header row: %w", err)}
	}
	return nil
}

func headerMatches(vr *sheets.ValueRange) bool {
	if vr == nil || len(vr.Values) == 0 || len(vr.Values[0]) < len(leads.Columns) {
		return false
	}
	for i, want := range leads.Columns {
		got, ok := vr.Values[0][i].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Append writes the whole batch in one values.append call, preserving input
// order. The API appends after the last non-empty row; there is no rollback
// if the call is rejected partway.
func (s *sheetSink) Append(ctx context.Context, rows []leads.Lead) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]any, 0, len(rows))
	for _, l := range rows {
		cells := l.Row()
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		values = append(values, row)
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeRef("A:G"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, &sink.WriteError{Err: err}
	}
	return len(values), nil
}

func (s *sheetSink) Close() error { return nil }

func (s *sheetSink) rangeRef(cells string) string {
	return fmt.Sprintf("'%s'!%s", s.tab, cells)
}
