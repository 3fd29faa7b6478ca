// Package hydrate optionally enriches leads by fetching their public x.com
// profile page directly. The search provider's snippets often omit follower
// counts; a direct fetch can recover them. Hydration is best effort: blocked
// or failed fetches leave the lead exactly as the normalizer produced it.
package hydrate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/adamind/xleads/internal/blockdetect"
	"github.com/adamind/xleads/internal/fingerprint"
	"github.com/adamind/xleads/internal/leads"
	"github.com/adamind/xleads/internal/metrics"
	"github.com/adamind/xleads/pkg/httpclient"
	"github.com/adamind/xleads/pkg/proxy"
	"github.com/adamind/xleads/pkg/ratelimit"
	"github.com/adamind/xleads/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

const maxBodyBytes = 2 << 20

// Config configures the hydrator.
type Config struct {
	Fingerprint   fingerprint.Profile
	Timeout       time.Duration
	RPS           float64
	Jitter        float64
	MaxConcurrent int
	UAPool        *useragent.Pool
	ProxyPool     *proxy.Pool
	// BaseURL overrides the profile host. Used by tests; defaults to https://x.com.
	BaseURL string
}

// Stats summarizes one hydration pass.
type Stats struct {
	Attempted int
	Hydrated  int
	Blocked   int
	Failed    int
}

// Hydrator fetches profile pages with a browser TLS fingerprint, rotating
// User-Agents and (optionally) proxies, paced by a rate limiter.
type Hydrator struct {
	cfg       Config
	client    *httpclient.Client
	limiter   *ratelimit.Limiter
	detectors []blockdetect.Detector
}

// New initializes a Hydrator. A single client is held across fetches so the
// transport can pool connections.
func New(cfg Config) (*Hydrator, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 0.5
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://x.com"
	}

	// Per-request proxy rotation: the proxy URL rides in the request context
	// and the transport's Proxy func reads it back out.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}

	return &Hydrator{
		cfg:       cfg,
		client:    client,
		limiter:   ratelimit.NewLimiter(cfg.RPS, cfg.Jitter),
		detectors: blockdetect.DefaultDetectors(),
	}, nil
}

// Run hydrates in place every lead that has a username but no follower count.
// Fan-out is capped by MaxConcurrent; the pass never fails the run.
func (h *Hydrator) Run(ctx context.Context, ls []leads.Lead) Stats {
	var attempted, hydrated, blocked, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.MaxConcurrent)

	for i := range ls {
		if ls[i].Followers != 0 || ls[i].Username == "" {
			continue
		}
		attempted.Add(1)
		l := &ls[i]
		g.Go(func() error {
			switch h.hydrateOne(gctx, l) {
			case outcomeHydrated:
				hydrated.Add(1)
			case outcomeBlocked:
				blocked.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Stats{
		Attempted: int(attempted.Load()),
		Hydrated:  int(hydrated.Load()),
		Blocked:   int(blocked.Load()),
		Failed:    int(failed.Load()),
	}
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeBlocked
	outcomeHydrated
)

func (h *Hydrator) hydrateOne(ctx context.Context, l *leads.Lead) outcome {
	if err := h.limiter.Wait(ctx); err != nil {
		metrics.HydrateFetches.WithLabelValues("error").Inc()
		return outcomeFailed
	}

	profileURL := h.cfg.BaseURL + "/" + url.PathEscape(l.Username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		metrics.HydrateFetches.WithLabelValues("error").Inc()
		return outcomeFailed
	}

	var activeProxy *url.URL
	if h.cfg.ProxyPool != nil {
		if activeProxy = h.cfg.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", h.cfg.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := h.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = h.cfg.ProxyPool.MarkFailure(activeProxy)
		}
		metrics.HydrateFetches.WithLabelValues("error").Inc()
		return outcomeFailed
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = h.cfg.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.HydrateFetches.WithLabelValues("error").Inc()
		return outcomeFailed
	}

	if _, isBlocked := blockdetect.Detect(&blockdetect.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, h.detectors); isBlocked {
		metrics.HydrateFetches.WithLabelValues("blocked").Inc()
		return outcomeBlocked
	}

	if resp.StatusCode != http.StatusOK {
		metrics.HydrateFetches.WithLabelValues("error").Inc()
		return outcomeFailed
	}

	if !applyProfile(l, body) {
		metrics.HydrateFetches.WithLabelValues("empty").Inc()
		return outcomeFailed
	}

	metrics.HydrateFetches.WithLabelValues("ok").Inc()
	return outcomeHydrated
}

var followersRe = regexp.MustCompile(`([\d][\d,.]*\s*[KkMm]?)\s+Followers`)

// applyProfile pulls whatever the profile page offers into the lead: a
// follower count, and a display name or bio when the normalizer left them
// empty. Returns true when anything was recovered.
func applyProfile(l *leads.Lead, body []byte) bool {
	changed := false

	if m := followersRe.FindSubmatch(body); m != nil {
		if n := leads.ParseFollowers(string(m[1])); n > 0 {
			l.Followers = n
			changed = true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return changed
	}

	// Page titles look like "Jane Doe (@janedoe) / X".
	if l.Name == "" {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		if idx := strings.Index(title, " (@"); idx > 0 {
			l.Name = title[:idx]
			changed = true
		}
	}

	if l.Description == "" {
		if bio, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && bio != "" {
			l.Description = leads.FlattenText(bio)
			changed = true
		}
	}

	return changed
}
