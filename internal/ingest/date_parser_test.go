package ingest

import (
	"fmt"
	"testing"
	"time"
)

var monthNames = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDate(t *testing.T, got *time.Time, want time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected %s, got nil", want.Format("2006-01-02"))
	}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
}

func TestParseSingleDate_EveryCalendarDayRoundTrips(t *testing.T) {
	for _, year := range []int{2024, 2025, 2026} {
		for m := time.January; m <= time.December; m++ {
			last := day(year, m+1, 0).Day()
			for d := 1; d <= last; d++ {
				want := day(year, m, d)

				spelled := fmt.Sprintf("%d de %s de %d", d, monthNames[m-1], year)
				assertDate(t, ParseSingleDate(spelled), want)

				numeric := fmt.Sprintf("%d/%d/%d", d, int(m), year)
				assertDate(t, ParseSingleDate(numeric), want)
			}
		}
	}
}

func TestParseSingleDate_Formats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *time.Time
	}{
		{"labeled limit", "Fecha límite: 15 de marzo de 2025", ptr(day(2025, 3, 15))},
		{"labeled closing", "La convocatoria cierra el 2 de junio de 2025", ptr(day(2025, 6, 2))},
		{"until", "Recibimos obras hasta el 30 de septiembre de 2025.", ptr(day(2025, 9, 30))},
		{"setiembre variant", "cierre: 10 de setiembre de 2025", ptr(day(2025, 9, 10))},
		{"accented month", "Cierran el 3 de MARZO de 2026", ptr(day(2026, 3, 3))},
		{"ordinal and del", "hasta el 1º de abril del 2026", ptr(day(2026, 4, 1))},
		{"dash separator", "Entrega 05-11-2025", ptr(day(2025, 11, 5))},
		{"dot separator", "Entrega 05.11.2025", ptr(day(2025, 11, 5))},
		{"two digit year", "cierre 1/3/25", ptr(day(2025, 3, 1))},
		{"day first when both valid", "05/06/2025", ptr(day(2025, 6, 5))},
		{"swap when day first is invalid", "12/25/2025", ptr(day(2025, 12, 25))},
		{"invalid day rejected", "31/04/2025", nil},
		{"invalid spelled date rejected", "30 de febrero de 2025", nil},
		{"mixed separators rejected", "05/06-2025", nil},
		{"version number is not a date", "release 1.2.25", nil},
		{"labeled dotted two digit year", "cierre 1.3.25", ptr(day(2025, 3, 1))},
		{"labeled mixed separators rejected", "cierre 1.3/25", nil},
		{"labeled presentation", "Fecha de presentación: 20 de mayo de 2025", ptr(day(2025, 5, 20))},
		{"labeled limit with noun", "Fecha límite de inscripción: el 9 de julio de 2025", ptr(day(2025, 7, 9))},
		{"lone opening date uses generic parser", "Fecha de apertura 1 de marzo de 2025", ptr(day(2025, 3, 1))},
		{"unknown month", "15 de brumario de 2025", nil},
		{"empty", "", nil},
		{"no date", "Convocatoria abierta para artistas", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSingleDate(tt.text)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %s", got.Format("2006-01-02"))
				}
				return
			}
			assertDate(t, got, *tt.want)
		})
	}
}

func TestParseSingleDate_LabeledBeatsEarlierBareDate(t *testing.T) {
	text := "Publicado el 01/02/2025. Fecha límite: 15 de marzo de 2025."
	assertDate(t, ParseSingleDate(text), day(2025, 3, 15))
}

func TestParseSingleDate_OpeningDateDoesNotBeatDeadline(t *testing.T) {
	text := "Fecha de apertura 1 de marzo de 2025. Fecha límite: 30 de abril de 2025."
	assertDate(t, ParseSingleDate(text), day(2025, 4, 30))

	open, deadline := ParseDateRange(text)
	checkOptional(t, "open", open, nil)
	checkOptional(t, "deadline", deadline, ptr(day(2025, 4, 30)))
}

func TestParseSingleDate_InvalidCandidateFallsThrough(t *testing.T) {
	text := "Fecha límite: 31 de abril de 2025. Luego 10/05/2025."
	assertDate(t, ParseSingleDate(text), day(2025, 5, 10))
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		open     *time.Time
		deadline *time.Time
	}{
		{"numeric range", "Convocatoria abierta del 01/03/2025 al 30/04/2025", ptr(day(2025, 3, 1)), ptr(day(2025, 4, 30))},
		{"spelled range", "del 15 de marzo de 2025 al 30 de abril de 2025", ptr(day(2025, 3, 15)), ptr(day(2025, 4, 30))},
		{"shared month", "Inscripción del 1 al 30 de abril de 2025", ptr(day(2025, 4, 1)), ptr(day(2025, 4, 30))},
		{"shared year", "del 15 de marzo al 30 de abril de 2025", ptr(day(2025, 3, 15)), ptr(day(2025, 4, 30))},
		{"across new year", "del 15 de diciembre al 15 de enero de 2026", ptr(day(2025, 12, 15)), ptr(day(2026, 1, 15))},
		{"until spelled", "hasta el 15 de noviembre de 2025", nil, ptr(day(2025, 11, 15))},
		{"until numeric", "Recepción hasta 20/10/2025", nil, ptr(day(2025, 10, 20))},
		{"single fallback", "Cierre: 10/10/2025", nil, ptr(day(2025, 10, 10))},
		{"reversed range is not a range", "del 30/04/2025 al 01/03/2025", nil, ptr(day(2025, 4, 30))},
		{"nothing", "sin fechas", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, deadline := ParseDateRange(tt.text)
			checkOptional(t, "open", open, tt.open)
			checkOptional(t, "deadline", deadline, tt.deadline)
		})
	}
}

func checkOptional(t *testing.T, label string, got, want *time.Time) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Fatalf("%s: expected nil, got %s", label, got.Format("2006-01-02"))
	case want != nil && got == nil:
		t.Fatalf("%s: expected %s, got nil", label, want.Format("2006-01-02"))
	case want != nil && !got.Equal(*want):
		t.Fatalf("%s: expected %s, got %s", label, want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
}

func ptr[T any](v T) *T { return &v }
