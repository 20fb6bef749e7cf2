package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrBodyTooLarge     = errors.New("response body too large")
	ErrBlockedAddress   = errors.New("blocked address")
)

const (
	defaultFetchTimeout = 8 * time.Second
	defaultMaxBodyBytes = 10 << 20
	userAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader        = "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.8,*/*;q=0.7"
	acceptLanguage      = "es-AR,es;q=0.9,en;q=0.5"
)

var blockedPrefixStrings = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedPrefixes = func() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(blockedPrefixStrings))
	for _, s := range blockedPrefixStrings {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

// FetchOptions configures both fetcher implementations.
type FetchOptions struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// AllowPrivate disables the private-address guard (tests and local mirrors).
	AllowPrivate bool
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultFetchTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}

// HTTPFetcher is a plain GET with one timeout and no retries. A failed fetch is
// reported once; the batch decides what to do with it.
type HTTPFetcher struct {
	Client       *http.Client
	MaxBodyBytes int64
}

func NewHTTPFetcher(opts FetchOptions) *HTTPFetcher {
	opts = opts.withDefaults()

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		return checkRedirectTarget(req, via, true)
	}
	if !opts.AllowPrivate {
		transport.DialContext = safeDialContext(dialer)
	} else {
		checkRedirect = func(req *http.Request, via []*http.Request) error {
			return checkRedirectTarget(req, via, false)
		}
	}

	return &HTTPFetcher{
		Client: &http.Client{
			Timeout:       opts.Timeout,
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		MaxBodyBytes: opts.MaxBodyBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req.Header)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}

	return &FetchedDocument{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now(),
	}, nil
}

func setBrowserHeaders(h http.Header) {
	h.Set("User-Agent", userAgent)
	h.Set("Accept", acceptHeader)
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Cache-Control", "no-cache")
}

// safeDialContext refuses to connect to private, loopback or link-local addresses.
func safeDialContext(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("%s resolved to no addresses", host)
		}
		for _, ip := range ips {
			if IsPrivateIP(ip.IP) {
				return nil, fmt.Errorf("%w: %s", ErrBlockedAddress, ip.IP)
			}
		}
		// Dial the address we checked, not a second lookup.
		return d.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
	}
}

// IsPrivateIP reports whether ip is loopback, link-local, private or otherwise not a public address.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return true
	}
	for _, prefix := range blockedPrefixes {
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// checkRedirectTarget limits redirects and, when guarded, validates destinations.
func checkRedirectTarget(req *http.Request, via []*http.Request, guarded bool) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}
	if !guarded {
		return nil
	}
	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("%w: redirect to %s", ErrBlockedAddress, host)
	}
	return nil
}
