package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts plain text from a PDF file on disk.
func (c *Client) readPDF(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if info.Size() > c.maxBytes {
		return "", ErrTooLarge
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: parse pdf %s: %v", ErrFetch, path, err)
	}
	defer f.Close()

	return pdfText(reader)
}

// extractPDF extracts plain text from in-memory PDF bytes, used for URLs
// served with an application/pdf content type.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse pdf: %v", ErrFetch, err)
	}
	return pdfText(reader)
}

// pdfText drains the reader's plain-text stream. The pdf library panics
// on some malformed files, so extraction runs behind a recover.
func pdfText(reader *pdf.Reader) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", ErrFetch, r)
		}
	}()

	stream, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", ErrFetch, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, stream); err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", ErrFetch, err)
	}
	return sb.String(), nil
}
