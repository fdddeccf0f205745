// Package loader fetches raw text from ingestion sources: web pages, local
// text and Markdown files, docx documents, and inline text submissions.
package loader

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors for source fetching. Use errors.Is() in calling code.
var (
	// ErrFetch indicates the source could not be retrieved or decoded.
	ErrFetch = errors.New("source fetch failed")

	// ErrUnsupportedType indicates a document kind the loader cannot handle.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrTooLarge indicates the source exceeds the configured size limit.
	ErrTooLarge = errors.New("source exceeds size limit")
)

// Kind tags the document variant a source resolves to.
type Kind string

const (
	KindWeb      Kind = "web"
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindDocx     Kind = "docx"
	KindPDF      Kind = "pdf"
	KindInline   Kind = "inline"
)

// Source describes one ingestion input.
type Source struct {
	// Ref is the URL, file path, or caller-chosen identifier for inline
	// submissions. It doubles as the chunk source identifier.
	Ref string

	// Kind selects the loader variant. Zero value means auto-detect.
	Kind Kind

	// Inline carries the raw text when Kind is KindInline.
	Inline string
}

// DefaultMaxSourceBytes caps how much content a single source may carry.
const DefaultMaxSourceBytes = 50 << 20 // 50 MB

// Client fetches sources with a shared HTTP client and size limit.
type Client struct {
	http     *http.Client
	maxBytes int64
}

// New creates a loader client. maxBytes <= 0 uses DefaultMaxSourceBytes.
func New(maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	return &Client{
		http:     &http.Client{Timeout: 60 * time.Second},
		maxBytes: maxBytes,
	}
}

// Detect infers the document kind from the source reference.
func Detect(ref string) Kind {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return KindWeb
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".md", ".markdown":
		return KindMarkdown
	case ".docx":
		return KindDocx
	case ".pdf":
		return KindPDF
	default:
		return KindText
	}
}

// Fetch retrieves the raw text for a source, dispatching on its kind.
func (c *Client) Fetch(ctx context.Context, src Source) (string, error) {
	kind := src.Kind
	if kind == "" {
		kind = Detect(src.Ref)
	}

	switch kind {
	case KindInline:
		if int64(len(src.Inline)) > c.maxBytes {
			return "", ErrTooLarge
		}
		return src.Inline, nil
	case KindWeb:
		return c.fetchURL(ctx, src.Ref)
	case KindText, KindMarkdown:
		return c.readFile(src.Ref)
	case KindDocx:
		return c.readDocx(src.Ref)
	case KindPDF:
		return c.readPDF(src.Ref)
	default:
		return "", ErrUnsupportedType
	}
}
