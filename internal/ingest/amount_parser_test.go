package ingest

import (
	"testing"

	"github.com/david/artify/internal/models"
)

func TestExtractFacts(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		prize string
		slots string
		fee   models.Fee
	}{
		{
			name:  "national prize scenario",
			text:  "Premio Nacional de Pintura — Inscripción: hasta el 15 de noviembre de 2025. Cupos: 3 ganadores. Sin costo de inscripción.",
			prize: models.NotFound,
			slots: "3",
			fee:   models.Fee{Status: models.FeeFree},
		},
		{
			name:  "usd prize",
			text:  "Premio adquisición de USD 5.000 para la obra ganadora.",
			prize: "USD 5.000",
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeUnknown},
		},
		{
			name:  "peso prize with space and fee",
			text:  "Primer premio $ 1.500.000. Arancel de inscripción: $2.000 por obra.",
			prize: "$ 1.500.000",
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeAmount, Amount: "$ 2.000"},
		},
		{
			name:  "us dollar sign",
			text:  "Se otorgarán 10 becas de US$ 2,000 cada una.",
			prize: "US$ 2,000",
			slots: "10",
			fee:   models.Fee{Status: models.FeeUnknown},
		},
		{
			name:  "euro fee",
			text:  "Open call internacional. Fee: €25.",
			prize: "€ 25",
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeAmount, Amount: "€ 25"},
		},
		{
			name:  "fee in words",
			text:  "La inscripción de 30 euros se abona online.",
			prize: models.NotFound,
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeAmount, Amount: "€ 30"},
		},
		{
			name:  "registration date is not a fee",
			text:  "Inscripción: 15 de marzo. Participación gratuita.",
			prize: models.NotFound,
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeFree},
		},
		{
			name:  "registration year is not a fee",
			text:  "Inscripción 2025 abierta.",
			prize: models.NotFound,
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeUnknown},
		},
		{
			name:  "work count is not a fee",
			text:  "Inscripción de 3 obras por artista.",
			prize: models.NotFound,
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeUnknown},
		},
		{
			name:  "finalists",
			text:  "Se elegirán 12 finalistas",
			prize: models.NotFound,
			slots: "12",
			fee:   models.Fee{Status: models.FeeUnknown},
		},
		{
			name:  "empty",
			text:  "",
			prize: models.NotFound,
			slots: models.NotFound,
			fee:   models.Fee{Status: models.FeeUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFacts(tt.text)
			if got.Prize != tt.prize {
				t.Fatalf("prize: expected %q, got %q", tt.prize, got.Prize)
			}
			if got.Slots != tt.slots {
				t.Fatalf("slots: expected %q, got %q", tt.slots, got.Slots)
			}
			if got.Fee != tt.fee {
				t.Fatalf("fee: expected %+v, got %+v", tt.fee, got.Fee)
			}
		})
	}
}

func TestExtractFacts_FirstMatchWins(t *testing.T) {
	got := ExtractFacts("Premio de $100.000 y mención de $50.000. 2 ganadores y 5 finalistas.")
	if got.Prize != "$ 100.000" {
		t.Fatalf("expected first prize, got %q", got.Prize)
	}
	if got.Slots != "2" {
		t.Fatalf("expected first slot count, got %q", got.Slots)
	}
}
