package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleSummary() Summary {
	start := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	return Summary{
		RunID:           "0f0e6a6e-9a73-4c2d-a0c5-2f6f8a4a1b11",
		Topic:           "hiring a cardano dev",
		StartTime:       start,
		EndTime:         start.Add(3 * time.Second),
		Duration:        3 * time.Second,
		ProviderRecords: 10,
		LeadsParsed:     10,
		RowsAppended:    10,
		SinkDriver:      "gsheet",
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Topic != "hiring a cardano dev" {
		t.Errorf("topic = %q", decoded.Topic)
	}
	if decoded.RowsAppended != 10 {
		t.Errorf("rows_appended = %d", decoded.RowsAppended)
	}
	if !strings.Contains(buf.String(), `"sink_driver": "gsheet"`) {
		t.Errorf("expected indented sink_driver field, got:\n%s", buf.String())
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Lead Run Summary",
		"Topic:        hiring a cardano dev",
		"Leads:        10 parsed",
		"Appended:     10 rows (gsheet)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Hydrated:") {
		t.Errorf("hydration lines should be omitted when zero:\n%s", out)
	}
}

func TestWriteText_IncludesHydration(t *testing.T) {
	s := sampleSummary()
	s.Hydrated = 4
	s.HydrateBlocked = 2

	var buf bytes.Buffer
	if err := WriteText(&buf, s); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Hydrated:     4") {
		t.Errorf("missing hydrated line:\n%s", out)
	}
	if !strings.Contains(out, "Blocked:      2 profile fetches") {
		t.Errorf("missing blocked line:\n%s", out)
	}
}
