package service

import (
	"fmt"
	"strings"

	"github.com/orionbase/orion/internal/models"
)

// NoContextMessage is returned by FormatContext when no matches were
// found. Callers pass it through to the user verbatim.
const NoContextMessage = "No relevant context found."

const contextDelimiter = "\n\n---\n\n"

// FormatContext renders retrieval matches as a single prompt-ready
// context block. Each match is preceded by a citation line naming its
// source and section so an LLM can attribute its answer.
func FormatContext(matches []models.Match) string {
	if len(matches) == 0 {
		return NoContextMessage
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("[source: %s", m.Chunk.Metadata.Source))
		if path := models.HeaderPathString(m.Chunk.Metadata.HeaderPath); path != "" {
			b.WriteString(fmt.Sprintf(" | section: %s", path))
		}
		b.WriteString("]\n")
		b.WriteString(m.Chunk.Text)
		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, contextDelimiter)
}
