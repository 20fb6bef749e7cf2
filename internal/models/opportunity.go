package models

import (
	"fmt"
	"strings"
	"time"
)

// OpportunityType is the coarse category of a call. It is derived once at assembly.
type OpportunityType string

const (
	TypeGrant      OpportunityType = "grant"
	TypePrize      OpportunityType = "prize"
	TypeResidency  OpportunityType = "residency"
	TypeOpenCall   OpportunityType = "open_call"
	TypeExhibition OpportunityType = "exhibition"
	TypeOther      OpportunityType = "other"
)

var allTypes = []OpportunityType{TypeGrant, TypePrize, TypeResidency, TypeOpenCall, TypeExhibition, TypeOther}

// ParseOpportunityType maps a user supplied string onto a known type.
func ParseOpportunityType(s string) (OpportunityType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range allTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Scope is the geographic reach of an opportunity relative to the home country.
type Scope string

const (
	ScopeDomestic Scope = "domestic"
	ScopeForeign  Scope = "foreign"
	ScopeUnknown  Scope = "unknown"
)

func ParseScope(s string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeDomestic:
		return ScopeDomestic, true
	case ScopeForeign:
		return ScopeForeign, true
	case ScopeUnknown:
		return ScopeUnknown, true
	}
	return "", false
}

// Status is where an opportunity stands relative to the search date.
type Status string

const (
	StatusOpen     Status = "open"
	StatusUpcoming Status = "upcoming"
	StatusClosed   Status = "closed"
	StatusUnknown  Status = "unknown"
)

// NotFound is the sentinel used by string fields the extractors could not fill.
const NotFound = "—"

// FeeStatus distinguishes "no fee language found" from an explicitly free call.
type FeeStatus string

const (
	FeeUnknown FeeStatus = "unknown"
	FeeFree    FeeStatus = "free"
	FeeAmount  FeeStatus = "amount"
)

type Fee struct {
	Status FeeStatus `json:"status"`
	Amount string    `json:"amount,omitempty"`
}

func (f Fee) IsFree() bool { return f.Status == FeeFree }

// String renders the fee for flat exports: the amount, "0" when free, empty when unknown.
func (f Fee) String() string {
	switch f.Status {
	case FeeAmount:
		return f.Amount
	case FeeFree:
		return "0"
	}
	return ""
}

type Opportunity struct {
	ID           string          `json:"id"`
	Source       string          `json:"source"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	OpenAt       *time.Time      `json:"open_at"`
	Deadline     *time.Time      `json:"deadline"`
	Type         OpportunityType `json:"type"`
	Location     string          `json:"location"`
	Scope        Scope           `json:"scope"`
	Prize        string          `json:"prize"`
	Slots        string          `json:"slots"`
	Fee          Fee             `json:"fee"`
	Summary      string          `json:"summary"`
	Difficulty   int             `json:"difficulty"`
	ApplyURL     string          `json:"apply_url,omitempty"`
	BasesURL     string          `json:"bases_url,omitempty"`
	FitTips      []string        `json:"fit_tips,omitempty"`
	OverlapCount int             `json:"overlap_count"`
	Status       Status          `json:"status"`
	StatusReason string          `json:"status_reason,omitempty"`
	Binary       bool            `json:"binary,omitempty"`
	Garbled      bool            `json:"garbled,omitempty"`
}

// Validate checks the record invariants that assembly must guarantee.
func (o Opportunity) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("opportunity %q: empty title", o.URL)
	}
	if _, ok := ParseOpportunityType(string(o.Type)); !ok {
		return fmt.Errorf("opportunity %q: invalid type %q", o.URL, o.Type)
	}
	if _, ok := ParseScope(string(o.Scope)); !ok {
		return fmt.Errorf("opportunity %q: invalid scope %q", o.URL, o.Scope)
	}
	if o.Difficulty < 1 || o.Difficulty > 100 {
		return fmt.Errorf("opportunity %q: difficulty %d out of range", o.URL, o.Difficulty)
	}
	if o.OpenAt != nil && o.Deadline != nil && o.OpenAt.After(*o.Deadline) {
		return fmt.Errorf("opportunity %q: open date after deadline", o.URL)
	}
	return nil
}

// Completeness ranks duplicates: a stated deadline and an application link matter most.
func (o Opportunity) Completeness() int {
	score := 0
	if o.Deadline != nil {
		score += 2
	}
	if o.ApplyURL != "" {
		score += 2
	}
	if o.BasesURL != "" {
		score++
	}
	return score
}

// DateString formats a calendar date as YYYY-MM-DD, or "" for nil.
func DateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
