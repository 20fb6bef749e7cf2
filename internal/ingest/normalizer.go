package ingest

import (
	"log"
	"regexp"
	"strings"

	"github.com/david/artify/internal/models"
	"github.com/google/uuid"
)

// Assembler merges every extractor's output into one Opportunity per page.
type Assembler struct {
	rules      Rules
	classifier *Classifier
	synth      *Synthesizer
}

func NewAssembler(rules Rules) *Assembler {
	return &Assembler{
		rules:      rules,
		classifier: NewClassifier(rules),
		synth:      NewSynthesizer(rules),
	}
}

// Assemble never fails. A step that panics leaves its field at the default
// (nil date, "—", other type) and the rest of the record is still built.
func (a *Assembler) Assemble(in PageInput) models.Opportunity {
	domain := extractDomain(in.URL)
	opp := models.Opportunity{
		ID:         OpportunityID(in.URL),
		Source:     firstNonEmpty(in.Source, domain),
		URL:        in.URL,
		Type:       models.TypeOther,
		Location:   models.NotFound,
		Scope:      models.ScopeUnknown,
		Prize:      models.NotFound,
		Slots:      models.NotFound,
		Fee:        models.Fee{Status: models.FeeUnknown},
		Difficulty: ScoreDifficulty(a.rules.Difficulty, models.TypeOther, ""),
		ApplyURL:   in.ApplyURL,
		BasesURL:   in.BasesURL,
		Binary:     in.Binary,
		Garbled:    in.Garbled,
	}

	if in.Binary {
		a.assembleBinary(&opp, in, domain)
		return a.finish(opp)
	}

	title := stripMarkup(in.Title)
	meta := stripMarkup(in.MetaDescription)
	text := SanitizeText(in.Text)
	full := strings.Join(nonEmpty(title, meta, text), ". ")

	a.guard(in.URL, "dates", func() {
		opp.OpenAt, opp.Deadline = ParseDateRange(strings.Join(nonEmpty(meta, text), ". "))
		if opp.Deadline == nil && title != "" {
			opp.OpenAt, opp.Deadline = ParseDateRange(title)
		}
	})
	a.guard(in.URL, "facts", func() {
		facts := extractFacts(full, a.rules.FreeFeePhrases)
		opp.Prize, opp.Slots, opp.Fee = facts.Prize, facts.Slots, facts.Fee
	})
	a.guard(in.URL, "type", func() {
		opp.Type = a.classifier.ClassifyType(full)
	})
	a.guard(in.URL, "scope", func() {
		opp.Location, opp.Scope = a.classifier.ClassifyScope(full)
	})
	a.guard(in.URL, "difficulty", func() {
		opp.Difficulty = ScoreDifficulty(a.rules.Difficulty, opp.Type, full)
	})
	a.guard(in.URL, "title", func() {
		opp.Title = a.synth.Title(title, text, domain)
	})
	a.guard(in.URL, "summary", func() {
		opp.Summary = a.synth.Summary(firstNonEmpty(meta, text), DefaultSummaryCount, DefaultSummaryChars, in.Garbled)
	})
	a.guard(in.URL, "tips", func() {
		opp.FitTips = FitTips(a.rules, full)
	})
	return a.finish(opp)
}

// assembleBinary builds the minimal record for documents that are not text.
// PDF text, when the parser could read any, still feeds the date engine.
func (a *Assembler) assembleBinary(opp *models.Opportunity, in PageInput, domain string) {
	opp.Summary = BinaryPlaceholder
	a.guard(in.URL, "title", func() {
		opp.Title = a.synth.Title(firstNonEmpty(in.Title, titleFromFilename(in.URL)), "", domain)
	})
	if in.BinaryText == "" {
		return
	}
	a.guard(in.URL, "dates", func() {
		opp.OpenAt, opp.Deadline = ParseDateRange(in.BinaryText)
	})
}

func (a *Assembler) finish(opp models.Opportunity) models.Opportunity {
	if strings.TrimSpace(opp.Title) == "" {
		opp.Title = "Convocatoria"
		if d := extractDomain(opp.URL); d != "" {
			opp.Title += " (" + d + ")"
		}
	}
	if opp.Summary == "" {
		opp.Summary = models.NotFound
	}
	if err := opp.Validate(); err != nil {
		log.Printf("[assemble] %v", err)
		if opp.OpenAt != nil && opp.Deadline != nil && opp.OpenAt.After(*opp.Deadline) {
			opp.OpenAt = nil
		}
	}
	return opp
}

func (a *Assembler) guard(url, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[assemble] %s step failed for %s: %v", step, url, r)
		}
	}()
	fn()
}

// OpportunityID is stable per URL so repeated searches return the same ids.
func OpportunityID(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String()
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

var nonWordRun = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeTitle lowercases, strips diacritics and collapses non-word runs.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(nonWordRun.ReplaceAllString(foldText(title), " "))
}

// Dedup collapses records sharing (source, normalized title). The more complete
// record wins; on a tie the first one seen stays. Output keeps first-seen order.
func Dedup(opps []models.Opportunity) []models.Opportunity {
	index := make(map[string]int, len(opps))
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		key := foldText(o.Source) + "|" + NormalizeTitle(o.Title)
		if i, ok := index[key]; ok {
			if o.Completeness() > out[i].Completeness() {
				out[i] = o
			}
			continue
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

// DedupCandidates drops listing items repeating an earlier (title, url) pair.
func DedupCandidates(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		key := NormalizeTitle(c.Title) + "|" + strings.TrimRight(c.URL, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
