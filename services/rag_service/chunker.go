package rag_service

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits normalized text into overlapping fixed-size segments.
// Splitting prefers paragraph, then sentence, then word boundaries before
// falling back to a hard cut. The separator precedence is configurable;
// only the size/overlap geometry is load-bearing.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " "},
	}
}

// Split produces the chunk sequence for one document. The same input always
// yields the same chunks. Empty text yields no chunks; text shorter than the
// chunk size yields exactly one.
func (c *Chunker) Split(text, sourceID string) []Chunk {
	if len(text) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			chunks = append(chunks, Chunk{
				Text:        text[start:],
				SourceID:    sourceID,
				StartOffset: start,
			})
			break
		}

		cut := c.cutPoint(text, start, end)
		chunks = append(chunks, Chunk{
			Text:        text[start:cut],
			SourceID:    sourceID,
			StartOffset: start,
		})

		next := alignRuneStart(text, cut-c.overlap)
		if next <= start {
			// Degenerate geometry (tiny chunks); give up on overlap
			// rather than stall.
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint looks for the highest-priority separator within the last fifth of
// the window and cuts just after it, so sentences spanning the boundary end
// up whole in one of the two overlapping chunks. No separator means a hard cut.
func (c *Chunker) cutPoint(text string, start, end int) int {
	window := text[start:end]
	minIdx := len(window) - c.chunkSize/5
	if minIdx < 0 {
		minIdx = 0
	}
	for _, sep := range c.separators {
		if idx := strings.LastIndex(window, sep); idx >= minIdx {
			return start + idx + len(sep)
		}
	}
	// Hard cut: never split a multi-byte rune, the chunk text must stay
	// valid UTF-8 for storage and embedding.
	if aligned := alignRuneStart(text, end); aligned > start {
		return aligned
	}
	return end
}

// alignRuneStart moves i back to the start of the rune it points into.
func alignRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

func (c *Chunker) ChunkSize() int { return c.chunkSize }
func (c *Chunker) Overlap() int   { return c.overlap }
