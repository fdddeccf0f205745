// Package parser provides Markdown parsing and hierarchical chunking.
package parser

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document represents a parsed heading-structured document.
type Document struct {
	// Frontmatter metadata (from YAML), if present.
	Frontmatter map[string]any

	// Title extracted from frontmatter or the first h1.
	Title string

	// Content after frontmatter removal.
	Content string

	// Sections in document order, including a path-less preamble section
	// for content that precedes the first heading.
	Sections []Section
}

// Section is one heading-delimited region of the document.
type Section struct {
	// Level is 1-6 for h1-h6, 0 for the preamble.
	Level int

	// Heading is the heading text without the marker.
	Heading string

	// Path is the stack of enclosing heading titles, outermost first,
	// including this section's own heading.
	Path []string

	// Text is the section body including its heading line, so that
	// concatenating all section texts reproduces the document.
	Text string
}

var headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Parse splits a Markdown document into frontmatter and heading sections.
func Parse(content string) *Document {
	doc := &Document{
		Frontmatter: make(map[string]any),
	}

	remaining := content
	if strings.HasPrefix(content, "---\n") {
		if endIdx := strings.Index(content[4:], "\n---"); endIdx > 0 {
			frontmatterYAML := content[4 : 4+endIdx]
			remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")

			if err := yaml.Unmarshal([]byte(frontmatterYAML), &doc.Frontmatter); err != nil {
				// Malformed frontmatter is treated as absent.
				doc.Frontmatter = make(map[string]any)
			}
		}
	}

	doc.Content = remaining
	doc.Sections = parseSections(remaining)
	doc.Title = extractTitle(doc.Frontmatter, doc.Sections)

	return doc
}

// extractTitle gets the title from frontmatter or the first h1.
func extractTitle(fm map[string]any, sections []Section) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	for _, s := range sections {
		if s.Level == 1 {
			return s.Heading
		}
	}
	return ""
}

// parseSections walks the document line by line, maintaining the stack of
// enclosing headings. A heading of level N pops all entries of level >= N
// before pushing itself.
func parseSections(content string) []Section {
	var sections []Section

	var pathTitles []string
	var pathLevels []int

	current := Section{}
	var text strings.Builder

	flush := func() {
		current.Text = text.String()
		if strings.TrimSpace(current.Text) != "" {
			sections = append(sections, current)
		}
		text.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if match := headingRegex.FindStringSubmatch(line); match != nil {
			flush()

			level := len(match[1])
			heading := strings.TrimSpace(match[2])

			for len(pathLevels) > 0 && pathLevels[len(pathLevels)-1] >= level {
				pathTitles = pathTitles[:len(pathTitles)-1]
				pathLevels = pathLevels[:len(pathLevels)-1]
			}
			pathTitles = append(pathTitles, heading)
			pathLevels = append(pathLevels, level)

			current = Section{
				Level:   level,
				Heading: heading,
				Path:    append([]string(nil), pathTitles...),
			}
		}

		text.WriteString(line)
		text.WriteString("\n")
	}

	flush()
	return sections
}

// FrontmatterString extracts a string value from frontmatter.
func (d *Document) FrontmatterString(key string) string {
	if v, ok := d.Frontmatter[key].(string); ok {
		return v
	}
	return ""
}
