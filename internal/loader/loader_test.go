package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		ref  string
		want Kind
	}{
		{"https://example.com/page", KindWeb},
		{"http://example.com", KindWeb},
		{"notes/design.md", KindMarkdown},
		{"README.markdown", KindMarkdown},
		{"report.docx", KindDocx},
		{"report.pdf", KindPDF},
		{"plain.txt", KindText},
		{"no-extension", KindText},
	}

	for _, tt := range tests {
		if got := Detect(tt.ref); got != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.ref, got, tt.want)
		}
	}
}

func TestFetch_Inline(t *testing.T) {
	c := New(0)

	text, err := c.Fetch(context.Background(), Source{
		Ref:    "text:abc",
		Kind:   KindInline,
		Inline: "raw submitted text",
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "raw submitted text" {
		t.Errorf("Fetch() = %q", text)
	}
}

func TestFetch_InlineTooLarge(t *testing.T) {
	c := New(8)

	_, err := c.Fetch(context.Background(), Source{
		Kind:   KindInline,
		Inline: "this exceeds eight bytes",
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("# Note\n\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(0)
	text, err := c.Fetch(context.Background(), Source{Ref: path})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(text, "# Note") {
		t.Errorf("Fetch() = %q", text)
	}
}

func TestFetch_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(10)
	_, err := c.Fetch(context.Background(), Source{Ref: path})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}

func TestFetch_PDFInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(0)
	_, err := c.Fetch(context.Background(), Source{Ref: path, Kind: KindPDF})
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestFetch_PDFTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(10)
	_, err := c.Fetch(context.Background(), Source{Ref: path, Kind: KindPDF})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}

func TestFetch_WebHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>t</title><style>p{}</style></head>
<body>
<nav>skip this nav</nav>
<h1>Main Title</h1>
<p>First paragraph.</p>
<h2>Sub  Section</h2>
<p>Second paragraph.</p>
<script>var skipped = true;</script>
</body></html>`))
	}))
	defer srv.Close()

	c := New(0)
	text, err := c.Fetch(context.Background(), Source{Ref: srv.URL, Kind: KindWeb})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.Contains(text, "# Main Title") {
		t.Errorf("h1 not converted to heading marker:\n%s", text)
	}
	if !strings.Contains(text, "## Sub Section") {
		t.Errorf("h2 not converted (whitespace collapsed):\n%s", text)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Errorf("paragraph text missing:\n%s", text)
	}
	if strings.Contains(text, "skipped") || strings.Contains(text, "skip this nav") {
		t.Errorf("script/nav content leaked into output:\n%s", text)
	}
}

func TestFetch_WebPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain body, no html handling"))
	}))
	defer srv.Close()

	c := New(0)
	text, err := c.Fetch(context.Background(), Source{Ref: srv.URL, Kind: KindWeb})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "plain body, no html handling" {
		t.Errorf("Fetch() = %q", text)
	}
}

func TestFetch_WebPDFInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("this is not pdf data"))
	}))
	defer srv.Close()

	c := New(0)
	_, err := c.Fetch(context.Background(), Source{Ref: srv.URL, Kind: KindWeb})
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestFetch_WebErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(0)
	_, err := c.Fetch(context.Background(), Source{Ref: srv.URL, Kind: KindWeb})
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestFetch_WebTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	c := New(100)
	_, err := c.Fetch(context.Background(), Source{Ref: srv.URL, Kind: KindWeb})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}

func TestExtractDocxText(t *testing.T) {
	const docXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Report Title</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>First part</w:t></w:r>
      <w:r><w:t xml:space="preserve"> of the body.</w:t></w:r>
    </w:p>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading2"/></w:pPr>
      <w:r><w:t>Findings</w:t></w:r>
    </w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

	text, err := extractDocxText(strings.NewReader(docXML))
	if err != nil {
		t.Fatalf("extractDocxText() error = %v", err)
	}

	if !strings.Contains(text, "# Report Title") {
		t.Errorf("Heading1 not converted:\n%s", text)
	}
	if !strings.Contains(text, "## Findings") {
		t.Errorf("Heading2 not converted:\n%s", text)
	}
	if !strings.Contains(text, "First part of the body.") {
		t.Errorf("adjacent runs not joined:\n%s", text)
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"Heading6", 6},
		{"Heading7", 0},
		{"Normal", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := docxHeadingLevel(tt.style); got != tt.want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}
}
