package ingest

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText normalizes whitespace (alias for normalizeSpace)
func cleanText(s string) string {
	return normalizeSpace(s)
}

// foldText lowercases and strips diacritics so "Límite" and "limite" compare equal.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// TruncateText cuts a string to maxLen runes, appending an ellipsis if truncated.
// It prefers to cut at a word boundary when one is close.
func TruncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	cut := maxLen - 1
	if i := lastSpace(r[:cut]); i > cut*3/4 {
		cut = i
	}
	return strings.TrimRight(string(r[:cut]), " ,;:") + "…"
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// truncateRunes hard-cuts without a marker.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

var strictPolicy = bluemonday.StrictPolicy()

// stripMarkup removes any tags that survived into attribute or text values
// (escaped markup in meta descriptions, listing snippets) and normalizes space.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return cleanText(s)
	}
	return cleanText(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// appendUnique appends a string to a slice if it doesn't already exist (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}

	vLower := strings.ToLower(vClean)
	for _, existing := range list {
		if strings.ToLower(existing) == vLower {
			return list
		}
	}
	return append(list, vClean)
}

// containsAny reports whether lowered text contains any of the keywords.
func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// countKeywords counts how many distinct keywords occur in lowered text.
func countKeywords(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			n++
		}
	}
	return n
}

var yearTokenRegex = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

func countYears(text string) int {
	return len(yearTokenRegex.FindAllStringIndex(text, -1))
}

// wordBoundaryRegex builds a matcher for a folded keyword that must not be part of a longer word.
func wordBoundaryRegex(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(keyword) + `(?:$|[^\p{L}\p{N}])`)
}
