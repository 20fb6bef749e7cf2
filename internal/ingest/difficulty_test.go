package ingest

import (
	"testing"

	"github.com/david/artify/internal/models"
)

func TestScoreDifficulty(t *testing.T) {
	w := DefaultDifficultyWeights()
	tests := []struct {
		name string
		typ  models.OpportunityType
		text string
		want int
	}{
		{"base only", models.TypeOther, "", 82},
		{"prize with slots", models.TypePrize, "Premio Nacional de Pintura. Cupos: 3 ganadores. Sin costo de inscripción.", 85},
		{"residency", models.TypeResidency, "Convocatoria abierta del 01/03/2025 al 30/04/2025 para residencias en Buenos Aires", 84},
		{"grant with capped slots and regional", models.TypeGrant, "Se otorgarán 50 becas para artistas de Argentina", 66},
		{"international prize in dollars", models.TypePrize, "Premio internacional de USD 10.000", 96},
		{"euro marker", models.TypeOther, "Premio de €500", 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreDifficulty(w, tt.typ, tt.text); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreDifficulty_Clamped(t *testing.T) {
	high := DifficultyWeights{Base: 0.9}.withDefaults()
	if got := ScoreDifficulty(high, models.TypeOther, ""); got != 55 {
		t.Fatalf("expected probability clamped to 0.45 (55), got %d", got)
	}

	low := DifficultyWeights{Base: 0.001}.withDefaults()
	if got := ScoreDifficulty(low, models.TypeOther, ""); got != 98 {
		t.Fatalf("expected probability clamped to 0.02 (98), got %d", got)
	}
}

func TestScoreDifficulty_AlwaysInRange(t *testing.T) {
	w := DefaultDifficultyWeights()
	texts := []string{
		"",
		"USD $ € internacional global worldwide",
		"argentina caba latinoamerica 999 cupos",
		"\x00\x01 garbage ���",
	}
	for _, typ := range []models.OpportunityType{models.TypeGrant, models.TypePrize, models.TypeResidency, models.TypeOpenCall, models.TypeExhibition, models.TypeOther} {
		for _, text := range texts {
			got := ScoreDifficulty(w, typ, text)
			if got < 1 || got > 100 {
				t.Fatalf("score %d out of range for %s %q", got, typ, text)
			}
		}
	}
}

func TestDifficultyWeights_Validate(t *testing.T) {
	if err := DefaultDifficultyWeights().validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	bad := DefaultDifficultyWeights()
	bad.MinProbability, bad.MaxProbability = 0.5, 0.4
	if err := bad.validate(); err == nil {
		t.Fatal("expected an inverted clamp to fail validation")
	}
}
