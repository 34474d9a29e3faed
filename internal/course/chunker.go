package course

import "strings"

// Chunking defaults, in characters.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 100
)

// Chunker splits normalized text into sentence-aligned chunks of at most
// Size characters, where consecutive chunks share trailing sentences of the
// previous chunk up to the Overlap budget. Sentence boundaries are never
// split, so a single sentence longer than Size becomes its own oversized
// chunk rather than being truncated.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a chunker with the given target size and overlap budget.
// Non-positive values fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split chunks one lesson body. Whitespace runs are collapsed to single
// spaces before splitting, so chunk text is stable regardless of the source
// document's line wrapping.
func (c *Chunker) Split(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	sentences := splitSentences(normalized)

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		end := i
		for end < len(sentences) {
			need := len(sentences[end])
			if size > 0 {
				need++ // joining space
			}
			if size+need > c.Size && end > i {
				break
			}
			size += need
			end++
		}

		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}

		// Re-include trailing sentences of this chunk that fit the overlap
		// budget, so no content gap opens at the boundary.
		next := end - c.overlapCount(sentences[i:end])
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}

// overlapCount returns how many trailing sentences of chunk fit within the
// overlap budget. The first sentence is never counted, so Split always
// advances.
func (c *Chunker) overlapCount(chunk []string) int {
	budget := c.Overlap
	count := 0
	for k := len(chunk) - 1; k > 0; k-- {
		need := len(chunk[k]) + 1
		if need > budget {
			break
		}
		budget -= need
		count++
	}
	return count
}

// splitSentences cuts after terminal punctuation ('.', '!', '?') followed by
// a space. Input is whitespace-normalized, so a single space is the only
// separator. A trailing fragment without terminal punctuation is kept as its
// own sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				sentences = append(sentences, text[start:i+1])
				i++ // skip separator
				start = i + 1
			}
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}
