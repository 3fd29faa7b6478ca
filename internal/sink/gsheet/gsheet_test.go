package gsheet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/sink"
)

// fakeSheets emulates the handful of Sheets v4 endpoints the sink touches.
type fakeSheets struct {
	existingTabs []string
	appendStatus int // non-zero forces this status on values:append

	addedTabs     []string
	headerWritten bool
	appended      [][]any
}

func (f *fakeSheets) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			if f.appendStatus != 0 {
				http.Error(w, "rejected", f.appendStatus)
				return
			}
			var vr struct {
				Values [][]any `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			f.appended = append(f.appended, vr.Values...)
			_, _ = w.Write([]byte(`{}`))

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			var req struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			for _, rq := range req.Requests {
				f.addedTabs = append(f.addedTabs, rq.AddSheet.Properties.Title)
			}
			_, _ = w.Write([]byte(`{}`))

		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
			f.headerWritten = true
			_, _ = w.Write([]byte(`{}`))

		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			_, _ = w.Write([]byte(`{}`)) // no header row yet

		case r.Method == http.MethodGet:
			type props struct {
				Title string `json:"title"`
			}
			type sheetObj struct {
				Properties props `json:"properties"`
			}
			doc := struct {
				Sheets []sheetObj `json:"sheets"`
			}{}
			for _, tab := range f.existingTabs {
				doc.Sheets = append(doc.Sheets, sheetObj{Properties: props{Title: tab}})
			}
			_ = json.NewEncoder(w).Encode(doc)

		default:
			http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
		}
	}
}

func newTestSink(t *testing.T, f *fakeSheets) sink.Sink {
	t.Helper()
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)

	s, err := New(context.Background(), Config{
		SpreadsheetID: "sheet1",
		Tab:           "Leads",
		Endpoint:      ts.URL + "/",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGSheetSink_CreatesTabAndHeader(t *testing.T) {
	f := &fakeSheets{existingTabs: []string{"Other"}}
	s := newTestSink(t, f)
	defer s.Close()

	if len(f.addedTabs) != 1 || f.addedTabs[0] != "Leads" {
		t.Errorf("expected Leads tab to be added, got %v", f.addedTabs)
	}
	if !f.headerWritten {
		t.Error("expected header row to be written")
	}
}

func TestGSheetSink_Append(t *testing.T) {
	f := &fakeSheets{existingTabs: []string{"Leads"}}
	s := newTestSink(t, f)
	defer s.Close()

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	batch := []leads.Lead{
		{Timestamp: ts, Topic: "cardano devs", Name: "Jane Doe", Username: "janedoe", Handle: "https://x.com/janedoe", Description: "Cardano dev", Followers: 1200},
		{Timestamp: ts, Topic: "cardano devs", Name: "John Roe"},
	}

	n, err := s.Append(context.Background(), batch)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if len(f.appended) != 2 {
		t.Fatalf("expected 2 appended rows at the API, got %d", len(f.appended))
	}
	if got := f.appended[0][2]; got != "Jane Doe" {
		t.Errorf("unexpected name cell: %v", got)
	}
	if got := f.appended[0][6]; got != "1200" {
		t.Errorf("unexpected followers cell: %v", got)
	}
}

func TestGSheetSink_AppendRejected(t *testing.T) {
	f := &fakeSheets{existingTabs: []string{"Leads"}, appendStatus: http.StatusTooManyRequests}
	s := newTestSink(t, f)
	defer s.Close()

	_, err := s.Append(context.Background(), []leads.Lead{{Topic: "t"}})
	var werr *sink.WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *sink.WriteError, got %v", err)
	}
}

func TestGSheetSink_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet1",
		CredentialsFile: "/nonexistent/key.json",
	})
	var cerr *sink.CredentialError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *sink.CredentialError, got %v", err)
	}
}
