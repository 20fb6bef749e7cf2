package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/david/artify/internal/models"
)

const DateParamLayout = "2006-01-02"

// SearchParams are the raw string inputs of a search, as they arrive on a query
// string or a command line. Lists are comma separated.
type SearchParams struct {
	Query          string
	Types          string
	Scopes         string
	From           string // YYYY-MM-DD
	To             string // YYYY-MM-DD
	FreeOnly       string
	ExcludeUndated string
	OpenOnly       string
	Sort           string
	Sources        string
}

// Request validates the parameters and builds a SearchRequest. Unknown types,
// scopes or sort keys, malformed dates or booleans, and inverted ranges are errors.
func (p SearchParams) Request() (SearchRequest, error) {
	var req SearchRequest
	f := &req.Filter

	f.Query = strings.TrimSpace(p.Query)

	for _, raw := range SplitCSV(p.Types) {
		t, ok := models.ParseOpportunityType(raw)
		if !ok {
			return req, fmt.Errorf("invalid type %q", raw)
		}
		f.Types = append(f.Types, t)
	}
	for _, raw := range SplitCSV(p.Scopes) {
		sc, ok := models.ParseScope(raw)
		if !ok {
			return req, fmt.Errorf("invalid scope %q", raw)
		}
		f.Scopes = append(f.Scopes, sc)
	}

	var err error
	if f.From, err = parseDateParam("from", p.From); err != nil {
		return req, err
	}
	if f.To, err = parseDateParam("to", p.To); err != nil {
		return req, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return req, fmt.Errorf("to must not be before from")
	}

	if f.FreeOnly, err = parseBoolParam("free_only", p.FreeOnly); err != nil {
		return req, err
	}
	if f.ExcludeUndated, err = parseBoolParam("exclude_undated", p.ExcludeUndated); err != nil {
		return req, err
	}
	if f.OpenOnly, err = parseBoolParam("open_only", p.OpenOnly); err != nil {
		return req, err
	}

	if req.Sort, err = ParseSortKey(p.Sort); err != nil {
		return req, err
	}
	req.Sources = SplitCSV(p.Sources)
	return req, nil
}

func parseDateParam(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateParamLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func parseBoolParam(name, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// SplitCSV splits a comma-separated parameter into trimmed non-empty strings.
func SplitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
