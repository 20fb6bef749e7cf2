package ingest

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"

	rpdf "rsc.io/pdf"
)

// maxPDFPages bounds how much of a large document is scanned for dates.
const maxPDFPages = 20

// extractPDFText returns the text fragments of the first pages of a PDF.
// The parser panics on some malformed files; that is reported as an error.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= min(reader.NumPage(), maxPDFPages); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		writeFragments(&builder, page.Content().Text)
		builder.WriteString("\n")
	}

	return SanitizeText(builder.String()), nil
}

// writeFragments joins glyph runs, adding a space where the horizontal gap
// between runs is wider than a fraction of the font size and a newline on a new baseline.
func writeFragments(b *strings.Builder, fragments []rpdf.Text) {
	var prev *rpdf.Text
	for i := range fragments {
		t := &fragments[i]
		if prev != nil {
			switch {
			case math.Abs(t.Y-prev.Y) > prev.FontSize/2:
				b.WriteString("\n")
			case t.X-(prev.X+prev.W) > prev.FontSize*0.15:
				b.WriteString(" ")
			}
		}
		b.WriteString(t.S)
		prev = t
	}
}

// titleFromFilename turns ".../bases-premio-2025.pdf" into "bases premio 2025".
func titleFromFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(name)
	return normalizeSpace(name)
}
