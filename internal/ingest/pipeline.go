package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/david/artify/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PipelineOptions bound the work done by one search.
type PipelineOptions struct {
	Concurrency  int
	FetchTimeout time.Duration
	BatchTimeout time.Duration
}

func (o PipelineOptions) withDefaults() PipelineOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 12
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 25 * time.Second
	}
	return o
}

// SearchRequest selects sources and shapes the result list.
type SearchRequest struct {
	// Sources are source ids or groups; empty means every enabled source.
	Sources []string
	Filter  Filter
	Sort    SortKey
}

type SearchResult struct {
	RunID         string               `json:"run_id"`
	Opportunities []models.Opportunity `json:"opportunities"`
	// Total counts deduplicated records before filtering.
	Total       int      `json:"total"`
	Unavailable []string `json:"unavailable"`
	// Partial is set when the batch budget ran out before every page was processed.
	Partial   bool   `json:"partial"`
	Notice    string `json:"notice,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Pipeline fetches listings and detail pages concurrently and assembles records.
// It holds no per-search state and is safe for concurrent use.
type Pipeline struct {
	Registry  *Registry
	Fetcher   Fetcher
	Assembler *Assembler
	opts      PipelineOptions
	now       func() time.Time
}

func NewPipeline(registry *Registry, fetcher Fetcher, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		Registry:  registry,
		Fetcher:   fetcher,
		Assembler: NewAssembler(registry.Rules),
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

// collector gathers results from concurrent tasks.
type collector struct {
	mu          sync.Mutex
	records     []models.Opportunity
	unavailable map[string]bool
}

func (c *collector) add(o models.Opportunity) {
	c.mu.Lock()
	c.records = append(c.records, o)
	c.mu.Unlock()
}

func (c *collector) fail(name string) {
	c.mu.Lock()
	c.unavailable[name] = true
	c.mu.Unlock()
}

// Search runs one batch. It never fails: unreachable sources are listed in
// Unavailable, and when the batch budget runs out the records completed so far
// are returned with Partial set.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) SearchResult {
	start := p.now()
	runID := uuid.NewString()
	result := SearchResult{RunID: runID}

	if purger, ok := p.Fetcher.(interface{ Purge() int }); ok {
		purger.Purge()
	}

	batchCtx, cancel := context.WithTimeout(ctx, p.opts.BatchTimeout)
	defer cancel()

	sources := p.Registry.Select(req.Sources)
	log.Printf("[search %s] %d sources", runID, len(sources))

	col := &collector{unavailable: make(map[string]bool)}
	candidates := p.collectCandidates(batchCtx, runID, sources, col)
	p.processCandidates(batchCtx, runID, candidates, col)

	result.Partial = batchCtx.Err() != nil && ctx.Err() == nil
	if result.Partial {
		log.Printf("[search %s] batch budget of %s exceeded, returning partial results", runID, p.opts.BatchTimeout)
	}

	records := Dedup(col.records)
	MarkOverlaps(records, start)
	UpdateStatuses(records, start)
	result.Total = len(records)

	filtered := req.Filter.Apply(records)
	SortOpportunities(filtered, req.Sort)
	result.Opportunities = filtered
	if len(filtered) == 0 {
		result.Notice = NoResultsNotice
	}

	result.Unavailable = make([]string, 0, len(col.unavailable))
	for name := range col.unavailable {
		result.Unavailable = append(result.Unavailable, name)
	}
	sort.Strings(result.Unavailable)

	result.ElapsedMS = p.now().Sub(start).Milliseconds()
	log.Printf("[search %s] done: %d records, %d after filters, %d unavailable in %dms",
		runID, result.Total, len(filtered), len(result.Unavailable), result.ElapsedMS)
	return result
}

// collectCandidates fetches every listing page with a bounded pool.
func (p *Pipeline) collectCandidates(ctx context.Context, runID string, sources []SourceConfig, col *collector) []Candidate {
	all := make([][]Candidate, len(sources))
	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			cands, err := p.listSource(ctx, src, col)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[%s] listing unavailable: %v", src.ID, err)
					col.fail(sourceLabel(src))
				}
				return nil
			}
			log.Printf("[%s] %d candidates", src.ID, len(cands))
			all[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var out []Candidate
	for _, cands := range all {
		out = append(out, cands...)
	}
	log.Printf("[search %s] %d candidates from %d sources", runID, len(out), len(sources))
	return out
}

// listSource fetches and parses one listing. A listing that is not HTML is
// assembled as a record on its own.
func (p *Pipeline) listSource(ctx context.Context, src SourceConfig, col *collector) ([]Candidate, error) {
	doc, err := p.fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	san := Sanitize(doc.Body, doc.ContentType)
	if san.Kind != KindHTML {
		col.add(p.Assembler.Assemble(documentInput(src.Name, src.URL, san)))
		return nil, nil
	}
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(san.Decoded))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return ExtractCandidates(src, parsed)
}

// processCandidates assembles every candidate, following detail links where configured.
func (p *Pipeline) processCandidates(ctx context.Context, runID string, cands []Candidate, col *collector) {
	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)
	for _, c := range cands {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if rec, ok := p.processCandidate(ctx, c, col); ok {
				col.add(rec)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) processCandidate(ctx context.Context, c Candidate, col *collector) (models.Opportunity, bool) {
	snippet := PageInput{Source: c.Source, URL: c.URL, Title: c.Title, Text: c.Snippet}
	if !c.Follow {
		return p.Assembler.Assemble(snippet), true
	}

	doc, err := p.fetch(ctx, c.URL)
	if err != nil {
		// Work cut off by the batch budget is dropped, not downgraded.
		if ctx.Err() != nil {
			return models.Opportunity{}, false
		}
		log.Printf("[%s] detail page unavailable, using listing snippet: %v", c.SourceID, err)
		col.fail(c.URL)
		return p.Assembler.Assemble(snippet), true
	}

	in := documentInput(c.Source, c.URL, Sanitize(doc.Body, doc.ContentType))
	if !in.Binary {
		in.Title = firstNonEmpty(in.Title, c.Title)
		in.Text = firstNonEmpty(in.Text, c.Snippet)
	}
	return p.Assembler.Assemble(in), true
}

// fetch applies the per-request timeout on top of the batch context.
func (p *Pipeline) fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()
	doc, err := p.Fetcher.Fetch(fctx, url)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("fetcher returned no document")
	}
	return doc, nil
}

// documentInput converts sanitized content into assembler input.
func documentInput(source, url string, san Sanitized) PageInput {
	in := PageInput{Source: source, URL: url, Garbled: san.Garbled}
	switch san.Kind {
	case KindPDF:
		in.Binary = true
		if text, err := extractPDFText(san.Raw); err == nil {
			in.BinaryText = text
		} else {
			log.Printf("[pdf] %s: %v", url, err)
		}
	case KindBinary:
		in.Binary = true
	case KindHTML:
		page := ParsePage(url, san.Decoded)
		in.Title = page.Title
		in.MetaDescription = page.MetaDescription
		in.Text = page.Text
		in.ApplyURL = page.ApplyURL
		in.BasesURL = page.BasesURL
	default:
		in.Text = san.Text
	}
	return in
}

// AssembleDocument runs one fetched document through sanitizing, parsing and assembly.
func (p *Pipeline) AssembleDocument(source string, doc *FetchedDocument) models.Opportunity {
	return p.Assembler.Assemble(documentInput(source, doc.URL, Sanitize(doc.Body, doc.ContentType)))
}

// AssembleURL fetches a single page and assembles it, outside any listing.
func (p *Pipeline) AssembleURL(ctx context.Context, pageURL string) (models.Opportunity, error) {
	doc, err := p.fetch(ctx, pageURL)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	opp := p.AssembleDocument("", doc)
	d := ComputeStatus(opp, p.now())
	opp.Status, opp.StatusReason = d.Status, d.Reason
	return opp, nil
}

func sourceLabel(src SourceConfig) string {
	if src.Name == "" {
		return src.ID
	}
	return src.Name + " (" + src.ID + ")"
}
