package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xleads_provider_requests_total",
			Help: "Search requests issued to the scraping provider, by HTTP status",
		},
		[]string{"status"},
	)

	LeadsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xleads_leads_parsed_total",
			Help: "Leads produced by the normalizer across all runs",
		},
	)

	RowsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xleads_rows_appended_total",
			Help: "Rows appended to a sink, by sink driver",
		},
		[]string{"driver"},
	)

	HydrateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xleads_hydrate_fetches_total",
			Help: "Direct profile fetches performed by the hydrator, by outcome",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xleads_run_duration_seconds",
			Help:    "End-to-end duration of a pipeline run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
)

// Server encapsulates an HTTP server for Prometheus metrics. A one-shot run
// normally finishes before anything scrapes it, so the server is opt-in and
// mostly useful when the binary is invoked in a loop by an external scheduler.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
