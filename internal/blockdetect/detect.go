package blockdetect

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the slice of an HTTP exchange the detectors need.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector examines a profile fetch to determine whether the host blocked or
// challenged it rather than serving the real page.
type Detector func(r *Response) (detected bool, source string)

// DefaultDetectors returns the detectors relevant to fetching x.com profiles.
func DefaultDetectors() []Detector {
	return []Detector{
		detectRateLimit,
		detectCloudflare,
		detectLoginWall,
		detectJSWall,
	}
}

// Detect runs the response through the detectors. It returns the first
// detection source, or ("", false) when the page looks genuine.
func Detect(r *Response, detectors []Detector) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, d := range detectors {
		if detected, source := d(r); detected {
			return source, true
		}
	}
	return "", false
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

// detectRateLimit flags HTTP 429 and the Retry-After variants hosts use when
// throttling.
func detectRateLimit(r *Response) (bool, string) {
	if r.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimit"
	}
	if r.StatusCode == http.StatusServiceUnavailable && header(r.Headers, "Retry-After") != "" {
		return true, "RateLimit"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(r *Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden && r.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Headers, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(r.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(r.Body, []byte("cf-turnstile")) ||
		bytes.Contains(r.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectLoginWall recognizes the interstitial x.com serves to logged-out
// clients it distrusts.
func detectLoginWall(r *Response) (bool, string) {
	if bytes.Contains(r.Body, []byte("Sign in to X")) ||
		bytes.Contains(r.Body, []byte("Log in to X")) ||
		bytes.Contains(r.Body, []byte(`href="/i/flow/login"`)) {
		return true, "LoginWall"
	}
	return false, ""
}

// detectJSWall recognizes the "JavaScript is not available" shell page, which
// carries none of the profile data.
func detectJSWall(r *Response) (bool, string) {
	if bytes.Contains(r.Body, []byte("JavaScript is not available")) {
		return true, "JSWall"
	}
	return false, ""
}
