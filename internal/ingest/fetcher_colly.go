package ingest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher with a fresh Colly collector per request.
// Retries are off: the collector reports the first failure.
type CollyFetcher struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodySize    int // bytes, Colly truncates beyond this
	DetectCharset  bool
	transport      http.RoundTripper
}

// NewCollyFetcher creates a CollyFetcher sharing the HTTP fetcher's guarded transport.
func NewCollyFetcher(opts FetchOptions) *CollyFetcher {
	opts = opts.withDefaults()

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: opts.Timeout,
	}
	if !opts.AllowPrivate {
		transport.DialContext = safeDialContext(dialer)
	}

	return &CollyFetcher{
		UserAgent:      userAgent,
		RequestTimeout: opts.Timeout,
		MaxBodySize:    int(opts.MaxBodyBytes),
		DetectCharset:  false,
		transport:      transport,
	}
}

// buildCollector creates a configured Colly collector bound to ctx.
func (f *CollyFetcher) buildCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	}
	if f.DetectCharset {
		opts = append(opts, colly.DetectCharset())
	}

	c := colly.NewCollector(opts...)
	if f.transport != nil {
		c.WithTransport(f.transport)
	}
	c.SetRequestTimeout(f.RequestTimeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguage)
	})
	return c
}

// Fetch implements the Fetcher interface, returning a FetchedDocument.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	c := f.buildCollector(ctx)

	var (
		result *FetchedDocument
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		result = &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
			FetchedAt:   time.Now(),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(targetURL); err != nil {
		if status != 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
		}
		return nil, fmt.Errorf("visit failed: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, result.StatusCode)
	}
	return result, nil
}
