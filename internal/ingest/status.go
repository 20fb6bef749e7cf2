package ingest

import (
	"time"

	"github.com/david/artify/internal/models"
)

type StatusDecision struct {
	Status models.Status
	Reason string
}

// resultsKeywords mark pages announcing winners or a closed call rather than an
// open one. They are matched against title and summary, never the URL.
var resultsKeywords = []string{
	"resultados finales",
	"ganadores del",
	"ganadoras del",
	"seleccionados del",
	"convocatoria cerrada",
	"inscripcion cerrada",
	"inscripciones cerradas",
	"winners announced",
	"final results",
}

// ComputeStatus decides the status of a record on the given day. Deadlines are
// inclusive: a call closing today is still open.
func ComputeStatus(opp models.Opportunity, today time.Time) StatusDecision {
	today = truncateDay(today)

	if containsAny(foldText(opp.Title+" "+opp.Summary), resultsKeywords) {
		return StatusDecision{Status: models.StatusClosed, Reason: "results_page"}
	}
	if opp.Deadline != nil && truncateDay(*opp.Deadline).Before(today) {
		return StatusDecision{Status: models.StatusClosed, Reason: "deadline_passed"}
	}
	if opp.OpenAt != nil && truncateDay(*opp.OpenAt).After(today) {
		return StatusDecision{Status: models.StatusUpcoming, Reason: "open_date_in_future"}
	}
	if opp.Deadline == nil {
		return StatusDecision{Status: models.StatusUnknown, Reason: "no_deadline"}
	}
	return StatusDecision{Status: models.StatusOpen, Reason: "deadline_ahead"}
}

// UpdateStatuses applies ComputeStatus to every record in place.
func UpdateStatuses(opps []models.Opportunity, today time.Time) {
	for i := range opps {
		d := ComputeStatus(opps[i], today)
		opps[i].Status = d.Status
		opps[i].StatusReason = d.Reason
	}
}
