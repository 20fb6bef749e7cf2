package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

const cardsListing = `<html><body>
<div class="views-row"><h2><a href="/convocatorias/premio-1">Premio Uno</a></h2><p>Cierra el 1 de junio de 2025</p></div>
<div class="views-row"><h2><a href="/convocatorias/premio-1/">Premio Uno</a></h2></div>
<article><h3><a href="https://otro.org/beca">Beca Dos</a></h3></article>
<div class="views-row"></div>
</body></html>`

func TestCardsStrategy(t *testing.T) {
	src := SourceConfig{ID: "t", Name: "Test", URL: "https://ejemplo.org/convocatorias", Strategy: "listing_cards", FollowLinks: true}
	cands, err := ExtractCandidates(src, mustDoc(t, cardsListing))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates after dedup, got %d: %+v", len(cands), cands)
	}

	first := cands[0]
	if first.Title != "Premio Uno" || first.URL != "https://ejemplo.org/convocatorias/premio-1" {
		t.Fatalf("unexpected first candidate %+v", first)
	}
	if !first.Follow {
		t.Fatal("expected follow_links to carry over")
	}
	if !strings.Contains(first.Snippet, "1 de junio de 2025") {
		t.Fatalf("expected card text in snippet, got %q", first.Snippet)
	}
	if first.SourceID != "t" || first.Source != "Test" {
		t.Fatalf("expected source fields, got %+v", first)
	}
	if cands[1].URL != "https://otro.org/beca" {
		t.Fatalf("expected absolute link kept, got %q", cands[1].URL)
	}
}

func TestExtractCandidates_MaxItems(t *testing.T) {
	src := SourceConfig{ID: "t", URL: "https://ejemplo.org/", Strategy: "listing_cards", MaxItems: 1}
	cands, err := ExtractCandidates(src, mustDoc(t, cardsListing))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
}

func TestExtractCandidates_UnknownStrategy(t *testing.T) {
	src := SourceConfig{ID: "t", URL: "https://ejemplo.org/", Strategy: "nope"}
	if _, err := ExtractCandidates(src, mustDoc(t, cardsListing)); err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
}

func TestBlocksStrategy(t *testing.T) {
	src := SourceConfig{ID: "b", URL: "https://blog.org/convocatorias", Strategy: "page_blocks"}

	t.Run("blocks with registration markers", func(t *testing.T) {
		html := `<html><body><main><h2>Salón de Primavera</h2><p>Inscripción hasta el 10/10/2025</p></main></body></html>`
		cands, err := ExtractCandidates(src, mustDoc(t, html))
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(cands))
		}
		c := cands[0]
		if c.Title != "Salón de Primavera" || c.URL != src.URL || c.Follow {
			t.Fatalf("unexpected candidate %+v", c)
		}
		if !strings.Contains(c.Snippet, "10/10/2025") {
			t.Fatalf("expected block text in snippet, got %q", c.Snippet)
		}
	})

	t.Run("falls back to call links", func(t *testing.T) {
		html := `<html><body><div><a href="/premio-x">Premio X</a><a href="/contacto">Contacto</a></div></body></html>`
		cands, err := ExtractCandidates(src, mustDoc(t, html))
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if len(cands) != 1 || cands[0].URL != "https://blog.org/premio-x" {
			t.Fatalf("unexpected candidates %+v", cands)
		}
	})
}

func TestHeadingsStrategy(t *testing.T) {
	src := SourceConfig{ID: "h", URL: "https://bandadas.example/", Strategy: "heading_scan", FollowLinks: true}
	html := `<html><body>
<section><h2>Convocatoria Residencia 2025</h2><p>Detalles</p></section>
<section><h2>Noticias</h2></section>
<div><h3><a href="/beca">Beca Z</a></h3></div>
</body></html>`

	cands, err := ExtractCandidates(src, mustDoc(t, html))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(cands), cands)
	}
	if cands[0].URL != src.URL || cands[0].Follow {
		t.Fatalf("heading without link should point at the listing, got %+v", cands[0])
	}
	if !strings.Contains(cands[0].Snippet, "Detalles") {
		t.Fatalf("expected parent text in snippet, got %q", cands[0].Snippet)
	}
	if cands[1].URL != "https://bandadas.example/beca" || !cands[1].Follow {
		t.Fatalf("unexpected linked heading %+v", cands[1])
	}
}

func TestGlobalStrategyFactory_IDs(t *testing.T) {
	got := strings.Join(GlobalStrategyFactory.IDs(), ",")
	if got != "heading_scan,listing_cards,page_blocks" {
		t.Fatalf("unexpected strategy ids %q", got)
	}
}
