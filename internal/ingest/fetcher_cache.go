package ingest

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachingFetcher memoises successful fetches for a TTL. Concurrent requests for the
// same URL share one underlying fetch, which runs detached from any single caller's
// context and is bounded by its own timeout. Errors are never cached.
type CachingFetcher struct {
	next    Fetcher
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	doc       FetchedDocument
	expiresAt time.Time
}

func NewCachingFetcher(next Fetcher, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		next:    next,
		ttl:     ttl,
		timeout: defaultFetchTimeout,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (f *CachingFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	if doc, ok := f.lookup(url); ok {
		return doc, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(url, func() (interface{}, error) {
		if doc, ok := f.lookup(url); ok {
			return doc, nil
		}
		fctx, cancel := context.WithTimeout(shared, f.timeout)
		defer cancel()
		doc, err := f.next.Fetch(fctx, url)
		if err != nil {
			return nil, err
		}
		f.store(url, doc)
		return doc, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		doc := *r.Val.(*FetchedDocument)
		return &doc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *CachingFetcher) lookup(url string) (*FetchedDocument, bool) {
	f.mu.RLock()
	entry, ok := f.entries[url]
	f.mu.RUnlock()
	if !ok || f.now().After(entry.expiresAt) {
		return nil, false
	}
	doc := entry.doc
	return &doc, true
}

// store inserts unless a live entry is already present.
func (f *CachingFetcher) store(url string, doc *FetchedDocument) {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.entries[url]; ok && !now.After(existing.expiresAt) {
		return
	}
	f.entries[url] = cacheEntry{doc: *doc, expiresAt: now.Add(f.ttl)}
}

// Purge drops expired entries.
func (f *CachingFetcher) Purge() int {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for url, entry := range f.entries {
		if now.After(entry.expiresAt) {
			delete(f.entries, url)
			n++
		}
	}
	return n
}

// Clear drops every entry, live or not.
func (f *CachingFetcher) Clear() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	f.entries = make(map[string]cacheEntry)
	return n
}

// Len reports the number of stored entries, including expired ones not yet purged.
func (f *CachingFetcher) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
