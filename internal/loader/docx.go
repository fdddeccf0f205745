package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// readDocx extracts paragraph text from a docx archive. Paragraphs styled
// Heading1-Heading6 are re-emitted as Markdown-style "#" lines so the
// chunker preserves the document's section hierarchy.
func (c *Client) readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", ErrFetch, err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%w: docx has no word/document.xml", ErrFetch)
	}
	if docFile.UncompressedSize64 > uint64(c.maxBytes) {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, path)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open document.xml: %v", ErrFetch, err)
	}
	defer rc.Close()

	text, err := extractDocxText(io.LimitReader(rc, c.maxBytes))
	if err != nil {
		return "", err
	}
	return text, nil
}

// extractDocxText walks WordprocessingML, collecting run text per paragraph
// and mapping HeadingN paragraph styles to "#" markers.
func extractDocxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var out strings.Builder
	var para strings.Builder
	var style string
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse docx xml: %v", ErrFetch, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
				style = ""
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "t":
				inText = true
			case "tab":
				para.WriteString(" ")
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushDocxParagraph(&out, para.String(), style)
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	return out.String(), nil
}

func flushDocxParagraph(out *strings.Builder, text, style string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if level := docxHeadingLevel(style); level > 0 {
		out.WriteString(strings.Repeat("#", level))
		out.WriteString(" ")
		text = collapseWhitespace(text)
	}
	out.WriteString(text)
	out.WriteString("\n\n")
}

func docxHeadingLevel(style string) int {
	const prefix = "Heading"
	if !strings.HasPrefix(style, prefix) {
		return 0
	}
	rest := style[len(prefix):]
	if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}
