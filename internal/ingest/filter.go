package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/david/artify/internal/models"
)

// NoResultsNotice is shown when filters leave nothing to display.
const NoResultsNotice = "no results, relax your filters"

// Filter narrows a result set. Zero values disable each criterion.
type Filter struct {
	Query          string
	Types          []models.OpportunityType
	Scopes         []models.Scope
	From           *time.Time
	To             *time.Time
	FreeOnly       bool
	ExcludeUndated bool
	// OpenOnly drops records whose status is closed.
	OpenOnly bool
}

// Apply returns the records that pass every criterion, preserving order.
func (f Filter) Apply(opps []models.Opportunity) []models.Opportunity {
	terms := strings.Fields(foldText(f.Query))
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if f.matches(o, terms) {
			out = append(out, o)
		}
	}
	return out
}

func (f Filter) matches(o models.Opportunity, terms []string) bool {
	if len(f.Types) > 0 && !containsType(f.Types, o.Type) {
		return false
	}
	if len(f.Scopes) > 0 && !containsScope(f.Scopes, o.Scope) {
		return false
	}
	if f.FreeOnly && !o.Fee.IsFree() {
		return false
	}
	if f.OpenOnly && o.Status == models.StatusClosed {
		return false
	}
	if o.Deadline == nil {
		if f.ExcludeUndated {
			return false
		}
	} else {
		if f.From != nil && o.Deadline.Before(truncateDay(*f.From)) {
			return false
		}
		if f.To != nil && o.Deadline.After(truncateDay(*f.To)) {
			return false
		}
	}
	if len(terms) > 0 {
		haystack := foldText(strings.Join([]string{o.Title, o.Summary, o.Location, o.Source}, " "))
		for _, t := range terms {
			if !strings.Contains(haystack, t) {
				return false
			}
		}
	}
	return true
}

func containsType(list []models.OpportunityType, t models.OpportunityType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsScope(list []models.Scope, s models.Scope) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SortKey selects the ordering of a result list.
type SortKey string

const (
	SortByDeadline   SortKey = "deadline"
	SortByTitle      SortKey = "title"
	SortByDifficulty SortKey = "difficulty"
)

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDeadline:
		return SortByDeadline, nil
	case SortByTitle:
		return SortByTitle, nil
	case SortByDifficulty:
		return SortByDifficulty, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortOpportunities orders records deterministically: by deadline ascending with
// undated records last, by title, or easiest first. Title then URL break ties.
func SortOpportunities(opps []models.Opportunity, key SortKey) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		switch key {
		case SortByTitle:
		case SortByDifficulty:
			if a.Difficulty != b.Difficulty {
				return a.Difficulty < b.Difficulty
			}
		default:
			switch {
			case a.Deadline == nil && b.Deadline != nil:
				return false
			case a.Deadline != nil && b.Deadline == nil:
				return true
			case a.Deadline != nil && b.Deadline != nil && !a.Deadline.Equal(*b.Deadline):
				return a.Deadline.Before(*b.Deadline)
			}
		}
		ta, tb := foldText(a.Title), foldText(b.Title)
		if ta != tb {
			return ta < tb
		}
		return a.URL < b.URL
	})
}
