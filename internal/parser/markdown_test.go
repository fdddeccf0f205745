package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_Frontmatter(t *testing.T) {
	content := `---
title: Design Notes
tags: [infra, storage]
---

# Overview

Some content.
`

	doc := Parse(content)

	if doc.Title != "Design Notes" {
		t.Errorf("Title = %q, want 'Design Notes'", doc.Title)
	}
	if doc.FrontmatterString("title") != "Design Notes" {
		t.Errorf("FrontmatterString(title) = %q", doc.FrontmatterString("title"))
	}
	if strings.Contains(doc.Content, "tags:") {
		t.Error("Content should not include frontmatter")
	}
}

func TestParse_MalformedFrontmatter(t *testing.T) {
	content := "---\n: : not yaml [\n---\n\n# Heading\n\nBody.\n"

	doc := Parse(content)

	if len(doc.Frontmatter) != 0 {
		t.Errorf("malformed frontmatter should be ignored, got %v", doc.Frontmatter)
	}
	if doc.Title != "Heading" {
		t.Errorf("Title = %q, want fallback to first h1", doc.Title)
	}
}

func TestParse_TitleFromFirstH1(t *testing.T) {
	doc := Parse("intro text\n\n# Real Title\n\ncontent\n")
	if doc.Title != "Real Title" {
		t.Errorf("Title = %q, want 'Real Title'", doc.Title)
	}
}

func TestParse_PreambleSection(t *testing.T) {
	doc := Parse("Text before any heading.\n\n# First\n\nSection body.\n")

	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}

	preamble := doc.Sections[0]
	if preamble.Level != 0 || len(preamble.Path) != 0 {
		t.Errorf("preamble should have level 0 and empty path, got level=%d path=%v",
			preamble.Level, preamble.Path)
	}
	if !strings.Contains(preamble.Text, "Text before any heading.") {
		t.Errorf("preamble text = %q", preamble.Text)
	}
}

func TestParse_HeadingPathStack(t *testing.T) {
	content := `# Top

a

## Mid

b

### Deep

c

## Mid Two

d

# Top Two

e
`
	doc := Parse(content)

	wantPaths := [][]string{
		{"Top"},
		{"Top", "Mid"},
		{"Top", "Mid", "Deep"},
		{"Top", "Mid Two"},
		{"Top Two"},
	}

	if len(doc.Sections) != len(wantPaths) {
		t.Fatalf("got %d sections, want %d", len(doc.Sections), len(wantPaths))
	}
	for i, want := range wantPaths {
		if !reflect.DeepEqual(doc.Sections[i].Path, want) {
			t.Errorf("section[%d].Path = %v, want %v", i, doc.Sections[i].Path, want)
		}
	}
}

func TestParse_SectionsReproduceContent(t *testing.T) {
	content := "# A\n\nfirst\n\n## B\n\nsecond\n\n# C\n\nthird\n"

	doc := Parse(content)

	var joined strings.Builder
	for _, s := range doc.Sections {
		joined.WriteString(s.Text)
	}
	if joined.String() != content {
		t.Errorf("concatenated sections differ from input:\ngot:  %q\nwant: %q",
			joined.String(), content)
	}
}

func TestParse_HeadingOnlySection(t *testing.T) {
	content := "# Sparse\n\n# Full\n\nbody\n"

	doc := Parse(content)

	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	// Heading-only sections keep their heading line so the document can
	// be reproduced from its sections.
	if !strings.Contains(doc.Sections[0].Text, "# Sparse") {
		t.Errorf("section[0].Text = %q", doc.Sections[0].Text)
	}
}
