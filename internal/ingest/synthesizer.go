package ingest

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleRunes       = 140
	bodyPhraseRunes     = 80
	DefaultSummaryCount = 3
	DefaultSummaryChars = 360
)

var (
	titleSeparatorRegex = regexp.MustCompile(`\s*[|—–·]\s*|\s+-\s+`)
	sentenceEndRegex    = regexp.MustCompile(`[.!?…]+\s+`)
)

// Synthesizer builds display titles and extractive summaries.
type Synthesizer struct {
	keywords   []string
	generic    map[string]bool
	connectors map[string]bool
}

func NewSynthesizer(rules Rules) *Synthesizer {
	s := &Synthesizer{
		keywords:   foldAll(rules.DomainKeywords),
		generic:    make(map[string]bool, len(rules.GenericTitles)),
		connectors: make(map[string]bool, len(rules.ConnectorWords)),
	}
	for _, g := range rules.GenericTitles {
		s.generic[foldText(strings.TrimSpace(g))] = true
	}
	for _, c := range rules.ConnectorWords {
		s.connectors[strings.ToLower(c)] = true
	}
	return s
}

// Title picks the best segment of the page's own title, else a keyword-anchored
// phrase from the body, else "Convocatoria (<domain>)".
func (s *Synthesizer) Title(raw, body, domain string) string {
	raw = stripMarkup(raw)
	chosen := ""
	if raw != "" && !s.isGeneric(raw) {
		chosen = s.bestSegment(raw)
	}
	if chosen == "" {
		chosen = s.bodyPhrase(body)
	}
	if chosen == "" {
		if domain == "" {
			return "Convocatoria"
		}
		return "Convocatoria (" + domain + ")"
	}
	return TruncateText(s.titleCase(chosen), maxTitleRunes)
}

func (s *Synthesizer) isGeneric(t string) bool {
	return s.generic[foldText(strings.Trim(t, " .:!"))]
}

// bestSegment scores separator-delimited segments by domain keywords plus year
// tokens. The first segment wins ties; generic segments ("Inicio") never win.
func (s *Synthesizer) bestSegment(raw string) string {
	best, bestScore := "", -1
	for _, seg := range titleSeparatorRegex.Split(raw, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" || s.isGeneric(seg) {
			continue
		}
		score := s.score(seg)
		if score > bestScore {
			best, bestScore = seg, score
		}
	}
	return best
}

func (s *Synthesizer) score(text string) int {
	return countKeywords(foldText(text), s.keywords) + countYears(text)
}

// bodyPhrase returns up to ~80 runes of body text starting at the first domain
// keyword, ending at the sentence boundary or the last whole word.
func (s *Synthesizer) bodyPhrase(body string) string {
	body = normalizeSpace(body)
	if body == "" {
		return ""
	}
	orig := []rune(body)
	folded := foldRunes(orig)

	start := -1
	for _, k := range s.keywords {
		if i := strings.Index(folded, k); i >= 0 {
			ri := len([]rune(folded[:i]))
			if start < 0 || ri < start {
				start = ri
			}
		}
	}
	if start < 0 {
		return ""
	}

	end := min(len(orig), start+bodyPhraseRunes)
	phrase := string(orig[start:end])
	if loc := sentenceEndRegex.FindStringIndex(phrase + " "); loc != nil {
		phrase = phrase[:loc[0]]
	} else if end < len(orig) {
		if i := strings.LastIndexByte(phrase, ' '); i > 0 {
			phrase = phrase[:i]
		}
	}
	return strings.Trim(phrase, " ,;:-")
}

// foldRunes folds rune by rune so indexes stay aligned with the original runes.
func foldRunes(rs []rune) string {
	var b strings.Builder
	b.Grow(len(rs))
	for _, r := range rs {
		if r < utf8.RuneSelf {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		d := []rune(norm.NFD.String(string(r)))
		b.WriteRune(unicode.ToLower(d[0]))
	}
	return b.String()
}

// titleCase capitalises words, keeping connectors lowercase (except first) and
// leaving acronyms and tokens with digits untouched.
func (s *Synthesizer) titleCase(t string) string {
	words := strings.Fields(t)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case i > 0 && s.connectors[lower]:
			words[i] = lower
		case hasDigit(w) || isAcronym(w):
		default:
			words[i] = capitalize(lower)
		}
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	for i, r := range w {
		if unicode.IsLetter(r) {
			return w[:i] + string(unicode.ToUpper(r)) + w[i+len(string(r)):]
		}
	}
	return w
}

func hasDigit(w string) bool {
	return strings.IndexFunc(w, unicode.IsDigit) >= 0
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}

// Summary selects the maxSentences highest-scoring sentences (keywords plus years,
// earlier sentence on ties), emits them in document order and truncates to maxChars.
// Garbled input yields the fixed placeholder.
func (s *Synthesizer) Summary(text string, maxSentences, maxChars int, garbled bool) string {
	if garbled {
		return GarbledPlaceholder
	}
	text = normalizeSpace(text)
	if text == "" {
		return ""
	}
	if maxSentences <= 0 {
		maxSentences = DefaultSummaryCount
	}
	if maxChars <= 0 {
		maxChars = DefaultSummaryChars
	}

	sentences := splitSentences(text)
	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		ranked[i] = scored{idx: i, score: s.score(sent)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	if len(ranked) > maxSentences {
		ranked = ranked[:maxSentences]
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].idx < ranked[b].idx })

	picked := make([]string, len(ranked))
	for i, r := range ranked {
		picked[i] = sentences[r.idx]
	}
	return TruncateText(strings.Join(picked, " "), maxChars)
}

// splitSentences cuts after terminal punctuation that is followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEndRegex.FindAllStringIndex(text, -1) {
		end := loc[1]
		if sent := strings.TrimSpace(text[last:end]); sent != "" {
			out = append(out, sent)
		}
		last = end
	}
	if sent := strings.TrimSpace(text[last:]); sent != "" {
		out = append(out, sent)
	}
	return out
}
