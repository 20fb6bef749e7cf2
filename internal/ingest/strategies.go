package ingest

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultMaxItems   = 25
	cardSnippetRunes  = 500
	blockSnippetRunes = 600
)

// ListingStrategy turns a parsed listing page into candidates.
type ListingStrategy interface {
	Extract(src SourceConfig, base *url.URL, doc *goquery.Document) []Candidate
}

// StrategyFactory maps strategy IDs (from sources.yaml) to implementations.
type StrategyFactory struct {
	strategies map[string]ListingStrategy
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		strategies: make(map[string]ListingStrategy),
	}
}

func (f *StrategyFactory) Register(id string, strategy ListingStrategy) {
	f.strategies[id] = strategy
}

func (f *StrategyFactory) Get(id string) (ListingStrategy, error) {
	strategy, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return strategy, nil
}

// IDs lists the registered strategy ids in sorted order.
func (f *StrategyFactory) IDs() []string {
	ids := make([]string, 0, len(f.strategies))
	for id := range f.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Global factory instance. Registration happens in init only.
var GlobalStrategyFactory = NewStrategyFactory()

func init() {
	GlobalStrategyFactory.Register("listing_cards", &CardsStrategy{})
	GlobalStrategyFactory.Register("page_blocks", &BlocksStrategy{})
	GlobalStrategyFactory.Register("heading_scan", &HeadingsStrategy{})
}

// ExtractCandidates runs the source's strategy, dedups by (title, url) and caps at max_items.
func ExtractCandidates(src SourceConfig, doc *goquery.Document) ([]Candidate, error) {
	strategy, err := GlobalStrategyFactory.Get(src.Strategy)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	cands := DedupCandidates(strategy.Extract(src, base, doc))
	limit := src.MaxItems
	if limit <= 0 {
		limit = defaultMaxItems
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func newCandidate(src SourceConfig, title, link, snippet string, follow bool) Candidate {
	return Candidate{
		SourceID: src.ID,
		Source:   src.Name,
		Title:    title,
		URL:      link,
		Snippet:  snippet,
		Follow:   follow,
	}
}

// CardsStrategy reads card-style listings: one container per call with a title link.
type CardsStrategy struct{}

func (s *CardsStrategy) Extract(src SourceConfig, base *url.URL, doc *goquery.Document) []Candidate {
	sel := src.Selectors
	container := firstNonEmpty(sel.Container, "article, .views-row, .node-teaser, .grid__item")
	linkSel := firstNonEmpty(sel.Link, "h2 a, h3 a, a")

	var out []Candidate
	doc.Find(container).Each(func(_ int, card *goquery.Selection) {
		link := card.Find(linkSel).First()
		title := stripMarkup(link.Text())
		if sel.Title != "" {
			title = firstNonEmpty(stripMarkup(card.Find(sel.Title).First().Text()), title)
		}
		snippet := truncateRunes(SanitizeText(card.Text()), cardSnippetRunes)
		if title == "" && snippet == "" {
			return
		}

		href, ok := link.Attr("href")
		target := src.URL
		follow := false
		if ok && strings.TrimSpace(href) != "" {
			target = resolveURL(base, strings.TrimSpace(href))
			follow = src.FollowLinks
		}
		out = append(out, newCandidate(src, title, target, snippet, follow))
	})
	return out
}

var (
	blockMarkerRegex = regexp.MustCompile(`(?i)inscripci[oó]n|fecha\s+l[ií]mite|cierra`)
	callLinkRegex    = regexp.MustCompile(`(?i)convocatoria|sal[oó]n|premio|beca|residenc`)
	callHeadingRegex = regexp.MustCompile(`(?i)convocatoria|residencia|beca|premio`)
)

// BlocksStrategy reads pages that publish calls as content blocks. Blocks that
// mention registration or closing dates become candidates under the page heading;
// without any, anchors naming a call are used instead.
type BlocksStrategy struct{}

func (s *BlocksStrategy) Extract(src SourceConfig, base *url.URL, doc *goquery.Document) []Candidate {
	sel := src.Selectors
	container := firstNonEmpty(sel.Container, "main, .blog, .entry, article")
	marker := compileOr(sel.Match, blockMarkerRegex)
	heading := stripMarkup(doc.Find(firstNonEmpty(sel.Title, "h1, h2, .post-title")).First().Text())

	var out []Candidate
	doc.Find(container).Each(func(_ int, block *goquery.Selection) {
		text := SanitizeText(block.Text())
		if !marker.MatchString(text) {
			return
		}
		title := firstNonEmpty(stripMarkup(block.Find("h1, h2, h3").First().Text()), heading, "Convocatorias")
		out = append(out, newCandidate(src, title, src.URL, truncateRunes(text, blockSnippetRunes), false))
	})
	if len(out) > 0 {
		return out
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		t := stripMarkup(a.Text())
		if t == "" || !callLinkRegex.MatchString(t) {
			return
		}
		href, _ := a.Attr("href")
		out = append(out, newCandidate(src, t, resolveURL(base, strings.TrimSpace(href)), t, src.FollowLinks))
	})
	return out
}

// HeadingsStrategy scans h2/h3 headings naming a call; the parent element is the snippet.
type HeadingsStrategy struct{}

func (s *HeadingsStrategy) Extract(src SourceConfig, base *url.URL, doc *goquery.Document) []Candidate {
	match := compileOr(src.Selectors.Match, callHeadingRegex)
	var out []Candidate
	doc.Find(firstNonEmpty(src.Selectors.Container, "h2, h3")).Each(func(_ int, h *goquery.Selection) {
		t := stripMarkup(h.Text())
		if t == "" || !match.MatchString(t) {
			return
		}
		parent := h.Parent()
		if parent.Length() == 0 {
			parent = h
		}
		target, follow := src.URL, false
		if href, ok := h.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			target, follow = resolveURL(base, strings.TrimSpace(href)), src.FollowLinks
		}
		out = append(out, newCandidate(src, t, target, truncateRunes(SanitizeText(parent.Text()), blockSnippetRunes), follow))
	})
	return out
}

// compileOr compiles a case-insensitive pattern from config, falling back on error or empty.
func compileOr(pattern string, fallback *regexp.Regexp) *regexp.Regexp {
	if pattern == "" {
		return fallback
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fallback
	}
	return re
}
