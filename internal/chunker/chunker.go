// Package chunker splits document text into bounded-size passages for
// embedding and retrieval.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"compliance-ai/internal/models"
)

const (
	// targetTokens is the approximate token budget per chunk.
	targetTokens = 200
	// runesPerToken is a rough chars-per-token estimate; no tokenizer is
	// loaded at this layer.
	runesPerToken = 4

	defaultMaxRunes = targetTokens * runesPerToken
)

// Chunker splits documents into sentence-aligned chunks targeting a fixed
// rune budget. Chunk ids are {documentID}_{index}, so re-chunking the same
// document yields the same ids.
type Chunker struct {
	maxRunes int
	splitter *regexp.Regexp
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxRunes overrides the per-chunk rune budget.
func WithMaxRunes(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxRunes = n
		}
	}
}

// New creates a Chunker with the default ~200-token budget.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxRunes: defaultMaxRunes,
		splitter: regexp.MustCompile(`[^.!?\n]+[.!?\n]+`),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits a document into chunks. Document metadata is copied onto
// every chunk with the parent id set. Empty or whitespace-only text yields
// zero chunks.
func (c *Chunker) Chunk(doc models.Document) []models.DocumentChunk {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil
	}

	sentences := c.sentences(text)

	meta := models.ChunkMetadata{
		DocumentMetadata: doc.Metadata,
		DocumentID:       doc.ID,
	}

	var chunks []models.DocumentChunk
	var current []string
	currentRunes := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, models.DocumentChunk{
			ID:       chunkID(doc.ID, len(chunks)),
			Text:     strings.Join(current, " "),
			Metadata: meta,
		})
		current = current[:0]
		currentRunes = 0
	}

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)

		// A single sentence over budget is hard-split on its own.
		if n > c.maxRunes {
			flush()
			for _, part := range hardSplit(sentence, c.maxRunes) {
				chunks = append(chunks, models.DocumentChunk{
					ID:       chunkID(doc.ID, len(chunks)),
					Text:     part,
					Metadata: meta,
				})
			}
			continue
		}

		if currentRunes > 0 && currentRunes+1+n > c.maxRunes {
			flush()
		}
		current = append(current, sentence)
		currentRunes += n
		if len(current) > 1 {
			currentRunes++ // joining space
		}
	}
	flush()

	return chunks
}

// sentences splits text on sentence terminators and newlines, keeping any
// trailing fragment that lacks a terminator.
func (c *Chunker) sentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// hardSplit cuts text into windows of at most maxRunes runes, preferring
// the last space in each window over a mid-word cut.
func hardSplit(text string, maxRunes int) []string {
	runes := []rune(text)
	var parts []string
	start := 0
	for start < len(runes) {
		end := start + maxRunes
		if end >= len(runes) {
			parts = append(parts, strings.TrimSpace(string(runes[start:])))
			break
		}
		cut := end
		if idx := strings.LastIndex(string(runes[start:end]), " "); idx > 0 {
			cut = start + utf8.RuneCountInString(string(runes[start:end])[:idx]) + 1
		}
		part := strings.TrimSpace(string(runes[start:cut]))
		if part != "" {
			parts = append(parts, part)
		}
		start = cut
	}
	return parts
}

func chunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}
