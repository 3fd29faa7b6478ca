package provider

import (
	"context"
	"fmt"
)

// Record is one raw profile record as returned by the search provider. The
// key set is controlled entirely by the provider and is not guaranteed stable,
// so it stays an untyped mapping until normalization.
type Record map[string]any

// Provider abstracts the hosted search/scrape service that does the actual
// discovery work. Implementations issue a single request/response cycle per
// Search call: no retry, no backoff, no pagination across result pages.
type Provider interface {
	Search(ctx context.Context, topic string) ([]Record, error)
}

// ProviderError reports a failed search/scrape call: network error, timeout,
// or a non-success HTTP status from the provider.
type ProviderError struct {
	StatusCode int   // 0 when the request never produced a response
	Err        error // underlying cause, may be nil when StatusCode is set
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider: request rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
