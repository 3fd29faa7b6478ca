// Command xleads searches X (x.com) for Cardano-related accounts matching a
// topic and appends the resulting leads to a shared spreadsheet. The actual
// search/scrape work is delegated to a hosted provider; this binary only
// orchestrates one linear pass per invocation.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/adamind/xleads/internal/config"
	"github.com/adamind/xleads/internal/fingerprint"
	"github.com/adamind/xleads/internal/hydrate"
	"github.com/adamind/xleads/internal/metrics"
	"github.com/adamind/xleads/internal/observability"
	"github.com/adamind/xleads/internal/pipeline"
	"github.com/adamind/xleads/internal/provider"
	"github.com/adamind/xleads/internal/report"
	"github.com/adamind/xleads/internal/sink"
	"github.com/adamind/xleads/internal/sink/csvbackend"
	"github.com/adamind/xleads/internal/sink/gsheet"
	"github.com/adamind/xleads/internal/sink/postgres"
	"github.com/adamind/xleads/internal/sink/sqlite"
	"github.com/adamind/xleads/pkg/proxy"
	"github.com/adamind/xleads/pkg/useragent"
)

func main() {
	var (
		topic      string
		cfgPath    string
		sheetTab   string
		maxPages   int
		dryRun     bool
		jsonReport bool
	)

	flag.StringVar(&topic, "topic", "", "topic / niche to search for (e.g. 'nft artists')")
	flag.StringVar(&topic, "t", "", "shorthand for -topic")
	flag.StringVar(&cfgPath, "config", "", "path to YAML config file")
	flag.StringVar(&sheetTab, "sheet-tab", "", "sheet tab to store results (overrides config)")
	flag.IntVar(&maxPages, "max-pages", 0, "max result pages per query (overrides config)")
	flag.BoolVar(&dryRun, "dry-run", false, "print leads instead of writing to the sink")
	flag.BoolVar(&jsonReport, "json", false, "emit the run summary as JSON")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if sheetTab != "" {
		cfg.Sheet.Tab = sheetTab
	}
	if maxPages > 0 {
		cfg.Provider.MaxPages = maxPages
	}
	if dryRun {
		cfg.Sink.Driver = "stdout"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.Options{
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	if topic == "" {
		topic = promptTopic()
	}
	if topic == "" {
		logger.Println("no topic supplied, exiting")
		return
	}

	ctx := context.Background()

	if cfg.Metrics.Enabled {
		srv := metrics.Start(cfg.Metrics.Port)
		defer func() { _ = srv.Stop(ctx) }()
	}

	apify, err := provider.NewApify(provider.ApifyConfig{
		Token:            cfg.Provider.Token,
		BaseURL:          cfg.Provider.BaseURL,
		Actor:            cfg.Provider.Actor,
		ResultsPerPage:   cfg.Provider.ResultsPerPage,
		MaxPagesPerQuery: cfg.Provider.MaxPages,
		Timeout:          time.Duration(cfg.Provider.TimeoutS) * time.Second,
	})
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	dest, err := buildSink(ctx, cfg)
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
	defer dest.Close()

	var hydrator *hydrate.Hydrator
	if cfg.Hydrate.Enabled {
		hydrator, err = buildHydrator(cfg, logger)
		if err != nil {
			logger.Println(err)
			os.Exit(1)
		}
	}

	logger.Printf("searching x.com for cardano accounts about %q", topic)

	pl := &pipeline.Pipeline{
		Provider:   apify,
		Sink:       dest,
		Hydrator:   hydrator,
		SinkDriver: cfg.Sink.Driver,
	}

	summary, err := pl.Run(ctx, topic)
	if err != nil {
		logger.Printf("run failed: %v", err)
		if summary.RowsAppended > 0 {
			logger.Printf("note: %d rows were already appended before the failure", summary.RowsAppended)
		}
		os.Exit(1)
	}

	if jsonReport {
		_ = report.WriteJSON(os.Stdout, summary)
	} else {
		_ = report.WriteText(os.Stdout, summary)
	}
}

func promptTopic() string {
	fmt.Print("Enter topic/niche to search for (e.g. 'nft artists'): ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func buildSink(ctx context.Context, cfg config.Config) (sink.Sink, error) {
	switch cfg.Sink.Driver {
	case "gsheet":
		return gsheet.New(ctx, gsheet.Config{
			CredentialsFile: cfg.Sheet.CredentialsFile,
			SpreadsheetID:   cfg.Sheet.SpreadsheetID,
			Tab:             cfg.Sheet.Tab,
		})
	case "csv":
		return csvbackend.New(cfg.Sink.Path)
	case "sqlite":
		return sqlite.New(cfg.Sink.Path)
	case "postgres":
		return postgres.New(ctx, cfg.Sink.DSN)
	case "stdout":
		return sink.NewWriter(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Sink.Driver)
	}
}

func buildHydrator(cfg config.Config, logger *log.Logger) (*hydrate.Hydrator, error) {
	var pool *proxy.Pool
	if cfg.Hydrate.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.Hydrate.ProxyFile); err != nil {
			return nil, err
		}
	}
	h, err := hydrate.New(hydrate.Config{
		Fingerprint:   fingerprint.Profile(cfg.Hydrate.Fingerprint),
		Timeout:       time.Duration(cfg.Hydrate.TimeoutS) * time.Second,
		RPS:           cfg.Hydrate.RPS,
		Jitter:        cfg.Hydrate.Jitter,
		MaxConcurrent: cfg.Hydrate.MaxConcurrent,
		UAPool:        useragent.NewPool(nil),
		ProxyPool:     pool,
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("profile hydration enabled (rps=%.2f, concurrency=%d)", cfg.Hydrate.RPS, cfg.Hydrate.MaxConcurrent)
	return h, nil
}
