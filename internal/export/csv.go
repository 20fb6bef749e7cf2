package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/david/artify/internal/models"
)

// Columns is the stable CSV column order.
var Columns = []string{
	"title", "url", "source", "type", "location", "scope",
	"open_at", "deadline", "prize", "slots", "fee", "summary",
}

// WriteCSV writes a header row and one row per opportunity.
func WriteCSV(w io.Writer, opps []models.Opportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range opps {
		if err := cw.Write(Row(o)); err != nil {
			return fmt.Errorf("write csv row %q: %w", o.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Row renders one opportunity in Columns order. Null dates become empty strings.
func Row(o models.Opportunity) []string {
	return []string{
		o.Title,
		o.URL,
		o.Source,
		string(o.Type),
		o.Location,
		string(o.Scope),
		models.DateString(o.OpenAt),
		models.DateString(o.Deadline),
		o.Prize,
		o.Slots,
		o.Fee.String(),
		o.Summary,
	}
}

// Filename builds a download name such as "convocatorias_artify.csv".
func Filename(ext string) string {
	return "convocatorias_artify." + strings.TrimPrefix(ext, ".")
}
