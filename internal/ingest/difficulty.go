package ingest

import (
	"fmt"
	"math"
	"strconv"

	"github.com/david/artify/internal/models"
)

// DifficultyWeights are the additive adjustments to the base winning probability.
// An all-zero block takes every default; a partial block only defaults the clamp and term lists.
type DifficultyWeights struct {
	Base               float64  `yaml:"base"`
	Prize              float64  `yaml:"prize"`
	Grant              float64  `yaml:"grant"`
	Residency          float64  `yaml:"residency"`
	Currency           float64  `yaml:"currency"`
	SlotStep           float64  `yaml:"slot_step"`
	SlotCap            float64  `yaml:"slot_cap"`
	International      float64  `yaml:"international"`
	Regional           float64  `yaml:"regional"`
	MinProbability     float64  `yaml:"min_probability"`
	MaxProbability     float64  `yaml:"max_probability"`
	CurrencyMarkers    []string `yaml:"currency_markers"`
	InternationalTerms []string `yaml:"international_terms"`
	RegionalTerms      []string `yaml:"regional_terms"`
}

// DefaultDifficultyWeights returns the reference constants.
func DefaultDifficultyWeights() DifficultyWeights {
	return DifficultyWeights{
		Base:               0.18,
		Prize:              -0.06,
		Grant:              0.04,
		Residency:          -0.02,
		Currency:           -0.03,
		SlotStep:           0.01,
		SlotCap:            0.10,
		International:      -0.05,
		Regional:           0.02,
		MinProbability:     0.02,
		MaxProbability:     0.45,
		CurrencyMarkers:    []string{"usd", "$", "€"},
		InternationalTerms: []string{"internacional", "global", "worldwide"},
		RegionalTerms:      []string{"argentina", "caba", "latinoamerica"},
	}
}

func (w DifficultyWeights) withDefaults() DifficultyWeights {
	d := DefaultDifficultyWeights()
	if w.Base == 0 && w.Prize == 0 && w.Grant == 0 && w.Residency == 0 && w.Currency == 0 &&
		w.SlotStep == 0 && w.SlotCap == 0 && w.International == 0 && w.Regional == 0 &&
		w.MinProbability == 0 && w.MaxProbability == 0 {
		d.CurrencyMarkers = orDefault(w.CurrencyMarkers, d.CurrencyMarkers)
		d.InternationalTerms = orDefault(w.InternationalTerms, d.InternationalTerms)
		d.RegionalTerms = orDefault(w.RegionalTerms, d.RegionalTerms)
		return d
	}
	if w.MaxProbability == 0 {
		w.MaxProbability = d.MaxProbability
	}
	if w.MinProbability == 0 {
		w.MinProbability = d.MinProbability
	}
	w.CurrencyMarkers = orDefault(w.CurrencyMarkers, d.CurrencyMarkers)
	w.InternationalTerms = orDefault(w.InternationalTerms, d.InternationalTerms)
	w.RegionalTerms = orDefault(w.RegionalTerms, d.RegionalTerms)
	return w
}

func orDefault(v, d []string) []string {
	if len(v) == 0 {
		return d
	}
	return v
}

func (w DifficultyWeights) validate() error {
	if w.MinProbability <= 0 || w.MaxProbability >= 1 || w.MinProbability >= w.MaxProbability {
		return fmt.Errorf("registry: difficulty clamp [%v, %v] is not a valid probability range", w.MinProbability, w.MaxProbability)
	}
	return nil
}

// ScoreDifficulty turns type and text into a 1–100 competitiveness score, 100 being
// the hardest. The probability is adjusted, clamped, then inverted and clamped again.
func ScoreDifficulty(w DifficultyWeights, typ models.OpportunityType, text string) int {
	folded := foldText(text)

	p := w.Base
	switch typ {
	case models.TypePrize:
		p += w.Prize
	case models.TypeGrant:
		p += w.Grant
	case models.TypeResidency:
		p += w.Residency
	}
	if containsAny(folded, foldAll(w.CurrencyMarkers)) {
		p += w.Currency
	}
	if m := slotsRegex.FindStringSubmatch(folded); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p += math.Min(w.SlotCap, float64(n)*w.SlotStep)
		}
	}
	if containsAny(folded, foldAll(w.InternationalTerms)) {
		p += w.International
	}
	if containsAny(folded, foldAll(w.RegionalTerms)) {
		p += w.Regional
	}

	p = math.Max(w.MinProbability, math.Min(w.MaxProbability, p))
	score := 100 - int(math.Round(p*100))
	return max(1, min(100, score))
}
