package ingest

import (
	"regexp"
	"strconv"
	"time"
)

// spanishMonths is keyed by the diacritic-folded month name.
var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

const (
	// spelledDate captures day, month name and year: "15 de noviembre de 2025", "1º de marzo del 2026".
	spelledDate = `(\d{1,2})(?:º|°|ro)?\s+de\s+(\p{L}+)\s+(?:del?\s+)?(\d{4})`
	// numericDate captures day, sep, month, sep, year: "01/03/2025", "1-3-25".
	numericDate = `(\d{1,2})([/.\-])(\d{1,2})([/.\-])(\d{4}|\d{2})`
)

var (
	spelledDateRegex = regexp.MustCompile(`(?i)` + spelledDate)
	numericDateRegex = regexp.MustCompile(`\b` + numericDate + `\b`)

	// labeledDateRegexes are tried first, in order, when looking for a single deadline.
	labeledDateRegexes = []*regexp.Regexp{
		// The qualifier is required: "fecha de apertura" and "fecha de inicio" name the opening day.
		regexp.MustCompile(`(?i)fecha\s+(?:l[ií]mite(?:\s+de\s+\p{L}+)?|de\s+(?:cierre|presentaci[oó]n|entrega|postulaci[oó]n|aplicaci[oó]n))\s*:?\s*(?:el\s+)?(?:d[ií]a\s+)?` + spelledDate),
		regexp.MustCompile(`(?i)cierran?\s+el\s+(?:d[ií]a\s+)?(?:\p{L}+\s+)?` + spelledDate),
		regexp.MustCompile(`(?i)hasta\s+el\s+(?:d[ií]a\s+)?(?:\p{L}+\s+)?` + spelledDate),
		regexp.MustCompile(`(?i)(?:deadline|fecha\s+l[ií]mite|cierre|cierran?)\s*:?[^\d]{0,60}?` + spelledDate),
		regexp.MustCompile(`(?i)(?:deadline|fecha\s+l[ií]mite|cierre|cierran?|hasta\s+el)\s*:?[^\d]{0,30}?` + numericDate + `\b`),
	}

	rangeSpelledRegex = regexp.MustCompile(`(?i)\bdel?\s+` + spelledDate + `\s+al?\s+` + spelledDate)
	// "del 1 al 30 de abril de 2025", "del 15 de marzo al 30 de abril de 2025"
	rangePartialRegex = regexp.MustCompile(`(?i)\bdel?\s+(\d{1,2})(?:º|°)?(?:\s+de\s+(\p{L}+))?\s+al?\s+` + spelledDate)
	rangeNumericRegex = regexp.MustCompile(`(?i)\bdel?\s+` + numericDate + `\s+al?\s+` + numericDate + `\b`)
	untilRegex        = regexp.MustCompile(`(?i)\bhasta\s+(?:el\s+)?(?:d[ií]a\s+)?(?:\p{L}+\s+)?(?:` + spelledDate + `|` + numericDate + `\b)`)
)

// ParseSingleDate extracts one deadline from free text: labeled Spanish phrases first,
// then the first valid bare numeric date, then the generic Spanish parser over the
// whole string. Invalid calendar dates are skipped, never clamped.
func ParseSingleDate(text string) *time.Time {
	if text == "" {
		return nil
	}
	for _, re := range labeledDateRegexes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if t, ok := dateFromLabeledMatch(m); ok {
				return &t
			}
		}
	}
	for _, m := range numericDateRegex.FindAllStringSubmatch(text, -1) {
		if t, ok := numericFromParts(m[1], m[2], m[3], m[4], m[5]); ok {
			return &t
		}
	}
	if t, ok := parseSpanishDate(text); ok {
		return &t
	}
	return nil
}

// ParseDateRange extracts a submission window. "del X al Y" yields both ends,
// "hasta (el) X" yields only the deadline, anything else falls back to ParseSingleDate.
func ParseDateRange(text string) (open, deadline *time.Time) {
	if text == "" {
		return nil, nil
	}

	for _, m := range rangeSpelledRegex.FindAllStringSubmatch(text, -1) {
		o, ok1 := spelledFromParts(m[1], m[2], m[3])
		c, ok2 := spelledFromParts(m[4], m[5], m[6])
		if ok1 && ok2 && !o.After(c) {
			return &o, &c
		}
	}

	for _, m := range rangeNumericRegex.FindAllStringSubmatch(text, -1) {
		o, ok1 := numericFromParts(m[1], m[2], m[3], m[4], m[5])
		c, ok2 := numericFromParts(m[6], m[7], m[8], m[9], m[10])
		if ok1 && ok2 && !o.After(c) {
			return &o, &c
		}
	}

	for _, m := range rangePartialRegex.FindAllStringSubmatch(text, -1) {
		c, ok := spelledFromParts(m[3], m[4], m[5])
		if !ok {
			continue
		}
		if o, ok := openFromPartial(m[1], m[2], c); ok {
			return &o, &c
		}
	}

	for _, m := range untilRegex.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			if t, ok := spelledFromParts(m[1], m[2], m[3]); ok {
				return nil, &t
			}
			continue
		}
		if t, ok := numericFromParts(m[4], m[5], m[6], m[7], m[8]); ok {
			return nil, &t
		}
	}

	return nil, ParseSingleDate(text)
}

// parseSpanishDate is the generic parser: the first spelled date, else the first numeric one.
func parseSpanishDate(text string) (time.Time, bool) {
	for _, m := range spelledDateRegex.FindAllStringSubmatch(text, -1) {
		if t, ok := spelledFromParts(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	for _, m := range numericDateRegex.FindAllStringSubmatch(text, -1) {
		if t, ok := numericFromParts(m[1], m[2], m[3], m[4], m[5]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateFromLabeledMatch handles submatches of labeledDateRegexes: 3 groups for
// spelled dates, 5 for numeric.
func dateFromLabeledMatch(m []string) (time.Time, bool) {
	switch len(m) {
	case 4:
		return spelledFromParts(m[1], m[2], m[3])
	case 6:
		// A label rules out version numbers, so "cierre 1.3.25" is a date.
		if m[2] != m[4] {
			return time.Time{}, false
		}
		return civilFromNumeric(m[1], m[3], m[5])
	}
	return time.Time{}, false
}

func spelledFromParts(day, month, year string) (time.Time, bool) {
	mon, ok := spanishMonths[foldText(month)]
	if !ok {
		return time.Time{}, false
	}
	d, err1 := strconv.Atoi(day)
	y, err2 := strconv.Atoi(year)
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	return civilDate(y, int(mon), d)
}

// numericFromParts reads a/b/y day-first, swapping to month-first only when the
// day-first reading is not a real calendar date. Mixed separators are rejected.
func numericFromParts(a, sep1, b, sep2, year string) (time.Time, bool) {
	if sep1 != sep2 {
		return time.Time{}, false
	}
	// Unlabeled, "2.1.25" is a version number, not a date.
	if sep1 == "." && len(year) != 4 {
		return time.Time{}, false
	}
	return civilFromNumeric(a, b, year)
}

func civilFromNumeric(a, b, year string) (time.Time, bool) {
	first, err1 := strconv.Atoi(a)
	second, err2 := strconv.Atoi(b)
	y, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 100 {
		y += 2000
	}
	if t, ok := civilDate(y, second, first); ok {
		return t, true
	}
	return civilDate(y, first, second)
}

// openFromPartial completes the opening day of "del D (de MES) al ..." from the closing date.
func openFromPartial(day, month string, closing time.Time) (time.Time, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	mon := closing.Month()
	if month != "" {
		m, ok := spanishMonths[foldText(month)]
		if !ok {
			return time.Time{}, false
		}
		mon = m
	}
	open, ok := civilDate(closing.Year(), int(mon), d)
	if !ok {
		return time.Time{}, false
	}
	// "del 15 de diciembre al 15 de enero de 2026" opens the year before.
	if open.After(closing) {
		return civilDate(closing.Year()-1, int(mon), d)
	}
	return open, true
}

// civilDate builds a UTC midnight date, rejecting combinations time.Date would normalize.
func civilDate(year, month, day int) (time.Time, bool) {
	if year < 1900 || year > 2999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
