package ingest

import (
	"bytes"
	"html"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// BinaryPlaceholder is the summary given to documents we cannot read as text.
const BinaryPlaceholder = "binary document, open link for details"

// GarbledPlaceholder is the summary given to text that decoded into junk.
const GarbledPlaceholder = "unreadable content, open link for details"

// garbledRatio is the share of junk runes above which decoded text is considered garbage.
const garbledRatio = 0.10

var binaryMagic = [][]byte{
	[]byte("%PDF-"),
	[]byte("\x89PNG"),
	[]byte("\xff\xd8\xff"),
	[]byte("GIF8"),
	[]byte("PK\x03\x04"),
	[]byte("\x1f\x8b"),
	[]byte("\xd0\xcf\x11\xe0"),
}

// Sanitize sniffs and decodes a fetched byte stream. It never panics and never
// returns an error: undecodable input comes back flagged Garbled or as a binary kind.
func Sanitize(raw []byte, contentType string) Sanitized {
	if len(raw) == 0 {
		return Sanitized{Kind: KindText}
	}

	if kind, ok := sniffBinary(raw, contentType); ok {
		return Sanitized{Kind: kind, Raw: raw}
	}

	decoded, ok := decode(raw, contentType)
	if !ok {
		return Sanitized{Kind: KindBinary, Raw: raw, Garbled: true}
	}

	out := Sanitized{Kind: KindText, Decoded: decoded}
	if looksLikeHTML(decoded, contentType) {
		out.Kind = KindHTML
		// Markup, inline SVG paths and scripts are not page text.
		out.Garbled = isGarbled(html.UnescapeString(strictPolicy.Sanitize(decoded)))
	} else {
		out.Text = SanitizeText(decoded)
		out.Garbled = isGarbled(decoded)
	}
	return out
}

func sniffBinary(raw []byte, contentType string) (DocKind, bool) {
	ct := strings.ToLower(contentType)
	if bytes.HasPrefix(raw, []byte("%PDF-")) || strings.Contains(ct, "application/pdf") {
		return KindPDF, true
	}
	for _, magic := range binaryMagic {
		if bytes.HasPrefix(raw, magic) {
			return KindBinary, true
		}
	}
	sniffed := http.DetectContentType(raw)
	if strings.HasPrefix(sniffed, "text/") {
		return "", false
	}
	// DetectContentType falls back to octet-stream for anything without a text
	// signature, which includes Latin-1 pages. Only NUL bytes are a reliable signal.
	if bytes.IndexByte(raw[:min(len(raw), 1024)], 0) >= 0 {
		return KindBinary, true
	}
	return "", false
}

// decode tries UTF-8, then a declared or sniffed charset, then Latin-1.
func decode(raw []byte, contentType string) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}
	if enc, name, certain := charset.DetermineEncoding(raw, contentType); certain && name != "utf-8" {
		if out, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(out) {
			return string(out), true
		}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

func looksLikeHTML(s, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	head := strings.ToLower(s[:min(len(s), 512)])
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") || strings.Contains(head, "<body") || strings.Contains(head, "<div")
}

// SanitizeText collapses replacement-character runs to a space, drops control and
// other non-printable characters (keeping letters, marks, digits, punctuation and
// symbols such as currency signs) and collapses whitespace.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, string(utf8.RuneError))

	var b strings.Builder
	b.Grow(len(s))
	prevReplacement := false
	for _, r := range s {
		if r == utf8.RuneError {
			if !prevReplacement {
				b.WriteByte(' ')
			}
			prevReplacement = true
			continue
		}
		prevReplacement = false
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
			// dropped
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r),
			unicode.IsPunct(r), unicode.IsSymbol(r):
			b.WriteRune(r)
		}
	}
	return normalizeSpace(b.String())
}

// isGarbled flags decoded text dominated by replacement or control characters,
// or long text with almost no letters.
func isGarbled(s string) bool {
	total, junk, letters := 0, 0, 0
	for _, r := range s {
		total++
		switch {
		case r == utf8.RuneError:
			junk++
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			junk++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if total == 0 {
		return false
	}
	if float64(junk)/float64(total) > garbledRatio {
		return true
	}
	return total > 200 && float64(letters)/float64(total) < 0.2
}
