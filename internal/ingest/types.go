package ingest

import (
	"context"
	"time"
)

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// DocKind is what the sanitizer decided a byte stream is.
type DocKind string

const (
	KindHTML   DocKind = "html"
	KindText   DocKind = "text"
	KindPDF    DocKind = "pdf"
	KindBinary DocKind = "binary"
)

// Sanitized is decoded content ready for parsing.
type Sanitized struct {
	Kind DocKind
	// Decoded is the UTF-8 content with markup intact (HTML/text kinds only).
	Decoded string
	// Text is the whitespace-collapsed clean text. For HTML it is filled by ParsePage.
	Text    string
	Garbled bool
	// Raw is kept for binary kinds so PDF text can still be mined for dates.
	Raw []byte
}

// Page is a parsed document: the inputs the assembler needs.
type Page struct {
	URL             string
	Title           string
	MetaDescription string
	Text            string
	ApplyURL        string
	BasesURL        string
}

// Candidate is an item found on a listing page.
type Candidate struct {
	SourceID string
	Source   string
	Title    string
	URL      string
	Snippet  string
	Follow   bool
}

// PageInput is everything the assembler merges into one record.
type PageInput struct {
	Source          string
	URL             string
	Title           string
	MetaDescription string
	Text            string
	ApplyURL        string
	BasesURL        string
	Garbled         bool
	Binary          bool
	// BinaryText is text mined out of a binary document (PDF), used for dates only.
	BinaryText string
}
