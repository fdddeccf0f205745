package parser

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orionbase/orion/internal/models"
)

// ErrInvalidText reports input that cannot be chunked.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// DefaultMaxChunkSize bounds chunk length in characters when the caller
// passes no explicit size.
const DefaultMaxChunkSize = 1000

// Chunk splits rawText into an ordered sequence of chunks. Sections are cut
// at heading boundaries; a section longer than maxChunkSize is split further
// at paragraph, then sentence, then word boundaries, never mid-word.
// Adjacent chunks never overlap and whitespace-only chunks are discarded.
//
// Output is deterministic: identical input always yields identical chunks
// and identifiers, which makes re-ingestion an idempotent overwrite.
func Chunk(rawText, sourceID string, maxChunkSize int) ([]models.Chunk, error) {
	if !utf8.ValidString(rawText) {
		return nil, ErrInvalidText
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	doc := Parse(rawText)

	var chunks []models.Chunk
	emit := func(text string, path []string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		index := len(chunks)
		chunks = append(chunks, models.Chunk{
			ID:   models.ChunkID(sourceID, index),
			Text: text,
			Metadata: models.ChunkMetadata{
				Source:     sourceID,
				HeaderPath: path,
				Index:      index,
				WordCount:  len(strings.Fields(text)),
			},
		})
	}

	for _, section := range doc.Sections {
		if len(section.Text) <= maxChunkSize {
			emit(section.Text, section.Path)
			continue
		}
		for _, part := range splitByParagraphs(section.Text, maxChunkSize) {
			emit(part, section.Path)
		}
	}

	return chunks, nil
}

// splitByParagraphs packs paragraphs into chunks of at most maxSize
// characters. A single paragraph exceeding maxSize is split at sentence
// boundaries.
func splitByParagraphs(text string, maxSize int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		if strings.TrimSpace(para) == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > maxSize {
			flush()
		}

		if len(para) > maxSize {
			flush()
			parts = append(parts, splitBySentences(para, maxSize)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}

	flush()
	return parts
}

// splitBySentences packs sentences into chunks of at most maxSize
// characters. A single sentence exceeding maxSize falls back to word
// boundaries.
func splitBySentences(text string, maxSize int) []string {
	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+1+len(sentence) > maxSize {
			flush()
		}

		if len(sentence) > maxSize {
			flush()
			parts = append(parts, splitByWords(sentence, maxSize)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	flush()
	return parts
}

// splitByWords packs whole words into chunks of at most maxSize characters.
// A single word longer than maxSize is kept intact.
func splitByWords(text string, maxSize int) []string {
	var parts []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > maxSize {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// splitSentences splits text at sentence-ending punctuation followed by
// whitespace or end of input.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Likely an abbreviation like "Dr."
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
