// Package pipeline sequences one lead run: search the provider, normalize
// the records, optionally hydrate follower counts, append to the sink. Each
// run is a single linear pass; the only external failure points are the
// provider call and the append.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adamind/xleads/internal/hydrate"
	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/metrics"
	"github.com/adamind/xleads/internal/provider"
	"github.com/adamind/xleads/internal/report"
	"github.com/adamind/xleads/internal/sink"
)

// Pipeline wires the run's components together. Provider and Sink are
// required; Hydrator is optional and nil disables hydration.
type Pipeline struct {
	Provider   provider.Provider
	Sink       sink.Sink
	Hydrator   *hydrate.Hydrator
	SinkDriver string

	// Now is the clock used to stamp rows, overridable in tests.
	Now func() time.Time
}

// Run executes one pass for the topic. All leads in a batch share one
// timestamp. There is no retry, no deduplication against earlier runs, and
// no rollback: a sink failure partway through leaves earlier rows written,
// which the returned summary's RowsAppended reflects.
func (p *Pipeline) Run(ctx context.Context, topic string) (report.Summary, error) {
	if p.Provider == nil {
		return report.Summary{}, errors.New("pipeline: provider is required")
	}
	if p.Sink == nil {
		return report.Summary{}, errors.New("pipeline: sink is required")
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	summary := report.Summary{
		RunID:      uuid.New().String(),
		Topic:      topic,
		StartTime:  now().UTC(),
		SinkDriver: p.SinkDriver,
	}

	records, err := p.Provider.Search(ctx, topic)
	if err != nil {
		return summary, err
	}
	summary.ProviderRecords = len(records)

	batch := leads.Normalize(records, topic, summary.StartTime)
	summary.LeadsParsed = len(batch)
	metrics.LeadsParsed.Add(float64(len(batch)))

	if p.Hydrator != nil {
		stats := p.Hydrator.Run(ctx, batch)
		summary.Hydrated = stats.Hydrated
		summary.HydrateBlocked = stats.Blocked
	}

	written, err := p.Sink.Append(ctx, batch)
	summary.RowsAppended = written
	metrics.RowsAppended.WithLabelValues(p.SinkDriver).Add(float64(written))
	if err != nil {
		return summary, err
	}

	summary.EndTime = now().UTC()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	metrics.RunDuration.Observe(summary.Duration.Seconds())
	return summary, nil
}
