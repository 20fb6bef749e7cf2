package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/david/artify/internal/models"
	"github.com/google/uuid"
)

const (
	icsProductID       = "-//artify//convocatorias//ES"
	icsDescriptionRune = 200
)

// WriteICS writes an iCalendar feed with one all-day event per opportunity that
// has a deadline. Events span [deadline, deadline+1 day).
func WriteICS(w io.Writer, opps []models.Opportunity, now time.Time) error {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetMethod(ics.MethodPublish)

	for _, o := range opps {
		if o.Deadline == nil {
			continue
		}
		description := truncateRunes(o.Summary, icsDescriptionRune)
		if description == models.NotFound {
			description = ""
		}

		ev := cal.AddEvent(EventUID(o.URL))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(*o.Deadline)
		ev.SetAllDayEndAt(o.Deadline.AddDate(0, 0, 1))
		ev.SetSummary(o.Title + " (cierre)")
		ev.SetDescription(strings.TrimSpace(description + "\n" + o.URL))
		if o.URL != "" {
			ev.SetURL(o.URL)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

// EventUID is a UUIDv5 of the opportunity URL, stable across exports.
func EventUID(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String() + "@artify"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
