package ingest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	applyLinkRegex = regexp.MustCompile(`(?i)postul|inscrib|inscripci[oó]n|aplicar|formulario|apply|\bform\b`)
	basesLinkRegex = regexp.MustCompile(`(?i)\bbases\b|reglamento|\brules\b|\.pdf(?:$|[?#])`)
)

const bodySelector = "h1, h2, h3, h4, p, li, td, dd"

// ParsePage extracts title, meta description, body text and the application and
// bases links from decoded HTML. Links are resolved against pageURL.
func ParsePage(pageURL, htmlContent string) Page {
	page := Page{URL: pageURL}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		page.Text = SanitizeText(htmlContent)
		return page
	}

	page.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)
	page.Title = stripMarkup(page.Title)
	page.MetaDescription = stripMarkup(firstNonEmpty(
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
	))

	base, _ := url.Parse(pageURL)
	page.ApplyURL, page.BasesURL = findActionLinks(doc, base)

	doc.Find("script, style, noscript, nav, footer, header, form, iframe, svg").Remove()
	page.Text = blockText(doc.Selection)
	return page
}

// blockText joins block-level element texts, terminating each with a period so
// sentence splitting and labeled-date patterns do not run across blocks.
func blockText(sel *goquery.Selection) string {
	var parts []string
	sel.Find(bodySelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (li > p) are read through their innermost element.
		if s.Find(bodySelector).Length() > 0 {
			return
		}
		if t := SanitizeText(s.Text()); t != "" {
			parts = append(parts, terminate(t))
		}
	})
	if len(parts) == 0 {
		body := sel.Find("body")
		if body.Length() == 0 {
			body = sel
		}
		return SanitizeText(body.Text())
	}
	return strings.Join(parts, " ")
}

func terminate(s string) string {
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return s
	}
	if strings.HasSuffix(s, "…") {
		return s
	}
	return s + "."
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// findActionLinks returns the first application link and the first bases/rules link.
func findActionLinks(doc *goquery.Document, base *url.URL) (apply, bases string) {
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") || strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return true
		}
		label := normalizeSpace(a.Text()) + " " + href
		if apply == "" && applyLinkRegex.MatchString(label) {
			apply = resolveURL(base, href)
		} else if bases == "" && basesLinkRegex.MatchString(label) {
			bases = resolveURL(base, href)
		}
		return apply == "" || bases == ""
	})
	return apply, bases
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
