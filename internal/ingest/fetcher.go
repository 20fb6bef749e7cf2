package ingest

import (
	"fmt"
	"time"
)

// NewFetcher builds the named fetcher ("http" or "colly") and wraps it in a
// response cache when cacheTTL is positive.
func NewFetcher(kind string, opts FetchOptions, cacheTTL time.Duration) (Fetcher, error) {
	var f Fetcher
	switch kind {
	case "", "http":
		f = NewHTTPFetcher(opts)
	case "colly":
		f = NewCollyFetcher(opts)
	default:
		return nil, fmt.Errorf("unknown fetcher %q", kind)
	}
	if cacheTTL > 0 {
		c := NewCachingFetcher(f, cacheTTL)
		if opts.Timeout > 0 {
			c.timeout = opts.Timeout
		}
		f = c
	}
	return f, nil
}
