package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"
)

// Summary describes one pipeline run.
type Summary struct {
	RunID           string        `json:"run_id"`
	Topic           string        `json:"topic"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration_ns"`
	ProviderRecords int           `json:"provider_records"`
	LeadsParsed     int           `json:"leads_parsed"`
	Hydrated        int           `json:"hydrated"`
	HydrateBlocked  int           `json:"hydrate_blocked"`
	RowsAppended    int           `json:"rows_appended"`
	SinkDriver      string        `json:"sink_driver"`
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable run summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Lead Run Summary
----------------
Run:          {{.RunID}}
Topic:        {{.Topic}}
Time:         {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:     {{.Duration}}
Provider:     {{.ProviderRecords}} raw records
Leads:        {{.LeadsParsed}} parsed
{{- if .Hydrated}}
Hydrated:     {{.Hydrated}}
{{- end}}
{{- if .HydrateBlocked}}
Blocked:      {{.HydrateBlocked}} profile fetches
{{- end}}
Appended:     {{.RowsAppended}} rows ({{.SinkDriver}})
`

	t, err := template.New("runReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
