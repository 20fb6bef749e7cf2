package ingest

import (
	"time"

	"github.com/david/artify/internal/models"
)

// openWindowDays is how long an undated call is assumed to stay open.
const openWindowDays = 30

// MarkOverlaps sets OverlapCount on every record to the number of other records
// whose submission window intersects its own. A missing open date counts from
// today and a missing deadline runs openWindowDays past today.
func MarkOverlaps(opps []models.Opportunity, today time.Time) {
	today = truncateDay(today)
	type window struct{ start, end time.Time }

	windows := make([]window, len(opps))
	for i, o := range opps {
		w := window{start: today, end: today.AddDate(0, 0, openWindowDays)}
		if o.OpenAt != nil {
			w.start = truncateDay(*o.OpenAt)
		}
		if o.Deadline != nil {
			w.end = truncateDay(*o.Deadline)
		}
		if w.end.Before(w.start) {
			w.start = w.end
		}
		windows[i] = w
	}

	for i := range opps {
		n := 0
		for j := range opps {
			if i == j {
				continue
			}
			if !windows[i].end.Before(windows[j].start) && !windows[j].end.Before(windows[i].start) {
				n++
			}
		}
		opps[i].OverlapCount = n
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
