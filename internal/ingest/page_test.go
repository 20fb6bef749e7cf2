package ingest

import (
	"strings"
	"testing"
)

const detailPage = `<html><head>
<title>Inicio | Museo</title>
<meta property="og:title" content="Premio Adquisición 2025">
<meta name="description" content="Convocatoria &lt;b&gt;abierta&lt;/b&gt; hasta el 30 de mayo de 2025">
</head><body>
<nav>Menu Inicio</nav>
<h1>Premio Adquisición 2025</h1>
<p>Las bases están disponibles</p>
<ul><li><p>Categoría pintura</p></li></ul>
<a href="#top">arriba</a>
<a href="/bases.pdf">Descargar bases</a>
<a href="https://forms.example.org/x">Postulate acá</a>
<script>var deadline = "hasta el 1 de enero de 2030";</script>
<footer>Contacto</footer>
</body></html>`

func TestParsePage(t *testing.T) {
	page := ParsePage("https://museo.org/premio", detailPage)

	if page.Title != "Premio Adquisición 2025" {
		t.Fatalf("expected og:title, got %q", page.Title)
	}
	if page.MetaDescription != "Convocatoria abierta hasta el 30 de mayo de 2025" {
		t.Fatalf("expected markup-free description, got %q", page.MetaDescription)
	}
	if page.BasesURL != "https://museo.org/bases.pdf" {
		t.Fatalf("expected resolved bases link, got %q", page.BasesURL)
	}
	if page.ApplyURL != "https://forms.example.org/x" {
		t.Fatalf("expected apply link, got %q", page.ApplyURL)
	}

	want := "Premio Adquisición 2025. Las bases están disponibles. Categoría pintura."
	if page.Text != want {
		t.Fatalf("expected text %q, got %q", want, page.Text)
	}
	for _, noise := range []string{"2030", "Menu", "Contacto"} {
		if strings.Contains(page.Text, noise) {
			t.Fatalf("text should not contain %q: %q", noise, page.Text)
		}
	}
}

func TestParsePage_TitleFallbacks(t *testing.T) {
	page := ParsePage("https://x.org", `<html><head><title> Beca  de Creación </title></head><body><h1>Otra</h1></body></html>`)
	if page.Title != "Beca de Creación" {
		t.Fatalf("expected <title>, got %q", page.Title)
	}

	page = ParsePage("https://x.org", `<html><body><h1>Salón Anual</h1></body></html>`)
	if page.Title != "Salón Anual" {
		t.Fatalf("expected <h1>, got %q", page.Title)
	}
}

func TestParsePage_BodyFallback(t *testing.T) {
	page := ParsePage("https://x.org", `<html><body><div>Solo texto   suelto</div></body></html>`)
	if page.Text != "Solo texto suelto" {
		t.Fatalf("expected body text, got %q", page.Text)
	}
}
