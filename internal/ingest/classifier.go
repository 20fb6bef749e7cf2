package ingest

import (
	"regexp"

	"github.com/david/artify/internal/models"
)

// Classifier assigns type and geographic scope from keyword presence.
// Keyword tables are folded and compiled once from the injected rules.
type Classifier struct {
	homeCountry string
	types       []compiledTypeRule
	domestic    []*regexp.Regexp
	countries   []compiledCountry
	intl        []*regexp.Regexp
	intlLabel   string
}

type compiledTypeRule struct {
	typ      models.OpportunityType
	keywords []string
}

type compiledCountry struct {
	name    string
	aliases []*regexp.Regexp
}

func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{
		homeCountry: rules.HomeCountry,
		intlLabel:   rules.Gazetteer.InternationalLabel,
	}
	for _, tr := range rules.TypeRules {
		c.types = append(c.types, compiledTypeRule{typ: tr.Type, keywords: foldAll(tr.Keywords)})
	}
	c.domestic = boundaryMatchers(rules.Gazetteer.Domestic)
	for _, ce := range rules.Gazetteer.Countries {
		c.countries = append(c.countries, compiledCountry{name: ce.Name, aliases: boundaryMatchers(ce.Aliases)})
	}
	c.intl = boundaryMatchers(rules.Gazetteer.InternationalKeywords)
	return c
}

func boundaryMatchers(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range foldAll(words) {
		if w != "" {
			out = append(out, wordBoundaryRegex(w))
		}
	}
	return out
}

// ClassifyType runs the ordered type rules; the first rule with a keyword hit wins.
// Keywords are prefixes ("residenc" matches residencia and residencias).
func (c *Classifier) ClassifyType(text string) models.OpportunityType {
	folded := foldText(text)
	for _, rule := range c.types {
		if containsAny(folded, rule.keywords) {
			return rule.typ
		}
	}
	return models.TypeOther
}

// ClassifyScope guesses a place name and derives the scope from it: the home
// country is domestic, the sentinel is unknown, anything else is foreign.
func (c *Classifier) ClassifyScope(text string) (string, models.Scope) {
	location := c.guessLocation(foldText(text))
	return location, c.scopeOf(location)
}

func (c *Classifier) guessLocation(folded string) string {
	if folded == "" {
		return models.NotFound
	}
	if anyMatch(folded, c.domestic) {
		return c.homeCountry
	}
	for _, country := range c.countries {
		if anyMatch(folded, country.aliases) {
			return country.name
		}
	}
	if anyMatch(folded, c.intl) {
		return c.intlLabel
	}
	return models.NotFound
}

func (c *Classifier) scopeOf(location string) models.Scope {
	switch location {
	case c.homeCountry:
		return models.ScopeDomestic
	case models.NotFound, "":
		return models.ScopeUnknown
	}
	return models.ScopeForeign
}

func anyMatch(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
