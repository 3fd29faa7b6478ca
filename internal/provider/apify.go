package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/adamind/xleads/internal/metrics"
	"github.com/adamind/xleads/pkg/httpclient"
)

const (
	defaultBaseURL        = "https://api.apify.com"
	defaultActor          = "apify~google-search-scraper"
	defaultResultsPerPage = 100
	defaultTimeout        = 120 * time.Second
)

// ApifyConfig configures the Apify-backed Provider.
type ApifyConfig struct {
	Token            string
	BaseURL          string        // defaults to the public Apify API
	Actor            string        // defaults to the Google search scraper actor
	ResultsPerPage   int           // defaults to 100
	MaxPagesPerQuery int           // defaults to 1
	Timeout          time.Duration // defaults to 120s, matching the actor's sync-run budget
}

// Apify runs the hosted Google search actor in run-sync mode and returns its
// dataset items as raw records. The query is biased toward Cardano-related
// accounts on x.com; the actor does all the actual search/scrape work.
type Apify struct {
	cfg    ApifyConfig
	client *httpclient.Client
}

// ensure Apify implements Provider
var _ Provider = (*Apify)(nil)

// NewApify validates the configuration and builds the client.
func NewApify(cfg ApifyConfig) (*Apify, error) {
	if cfg.Token == "" {
		return nil, errors.New("provider: apify token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Actor == "" {
		cfg.Actor = defaultActor
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = defaultResultsPerPage
	}
	if cfg.MaxPagesPerQuery <= 0 {
		cfg.MaxPagesPerQuery = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	client, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRedirects: 3})
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	return &Apify{cfg: cfg, client: client}, nil
}

// Search issues one run-sync request for the topic and flattens the returned
// dataset items into organic result records. A single request/response cycle:
// any transport failure or non-2xx status becomes a *ProviderError.
func (a *Apify) Search(ctx context.Context, topic string) ([]Record, error) {
	payload := map[string]any{
		"focusOnPaidAds":           false,
		"forceExactMatch":          false,
		"includeIcons":             false,
		"includeUnfilteredResults": false,
		"maxPagesPerQuery":         a.cfg.MaxPagesPerQuery,
		"mobileResults":            false,
		"queries":                  fmt.Sprintf("site:x.com %s cardano", topic),
		"resultsPerPage":           a.cfg.ResultsPerPage,
		"saveHtml":                 false,
		"saveHtmlToKeyValueStore":  true,
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		a.cfg.BaseURL, a.cfg.Actor, url.QueryEscape(a.cfg.Token))

	resp, err := a.client.PostJSON(ctx, endpoint, payload)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("error").Inc()
		return nil, &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	metrics.ProviderRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{StatusCode: resp.StatusCode}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("decode dataset items: %w", err)}
	}

	return flattenItems(datasetItems(body)), nil
}

// datasetItems accepts either a bare array of dataset items or an object
// carrying them under "items". Anything else yields no items.
func datasetItems(body any) []any {
	switch v := body.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items
		}
	}
	return nil
}

// flattenItems extracts the organic result records from each dataset item.
// Some actor versions wrap the payload under a "json" key, and the result
// list appears as either "organicResults" or "results".
func flattenItems(items []any) []Record {
	var records []Record
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if wrapped, ok := obj["json"].(map[string]any); ok {
			obj = wrapped
		}

		organic, ok := obj["organicResults"].([]any)
		if !ok {
			organic, _ = obj["results"].([]any)
		}

		for _, r := range organic {
			if rec, ok := r.(map[string]any); ok {
				records = append(records, Record(rec))
			}
		}
	}
	return records
}
