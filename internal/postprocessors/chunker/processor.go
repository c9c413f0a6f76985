// Package chunker provides a boundary-aware text chunker.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultMinChunkSize is the smallest trimmed chunk that is kept.
const DefaultMinChunkSize = 100

// breakSearchWindow is how far back from the ideal end a break point is looked for.
const breakSearchWindow = 400

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c2a8e-3b7d-4e59-9a0c-5d2e8f41b7a3")

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// sentenceEnds are tried in order; the first with a match in the back half wins.
var sentenceEnds = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Chunker splits text into overlapping chunks that end on natural boundaries.
// Offsets and sizes are byte offsets into the normalised text.
type Chunker struct {
	chunkSize    int
	overlap      int
	minChunkSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the minimum trimmed length of an emitted chunk.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minChunkSize = size
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultChunkOverlap,
		minChunkSize: DefaultMinChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FromSettings creates a chunker from configured settings. Unset or invalid
// values keep their defaults.
func FromSettings(s domain.ChunkingSettings) *Chunker {
	opts := []Option{WithChunkSize(s.ChunkSize), WithOverlap(s.Overlap)}
	if s.MinChunkSize > 0 {
		opts = append(opts, WithMinChunkSize(s.MinChunkSize))
	}
	return New(opts...)
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// MinChunkSize returns the configured minimum chunk size.
func (c *Chunker) MinChunkSize() int { return c.minChunkSize }

// Normalise converts line endings to \n, collapses runs of three or more
// newlines to a blank line and trims surrounding whitespace.
func (c *Chunker) Normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Split normalises text and cuts it into chunks.
func (c *Chunker) Split(text, documentID string) []domain.Chunk {
	text = c.Normalise(text)
	n := len(text)
	if n == 0 {
		return nil
	}

	if n <= c.chunkSize {
		return []domain.Chunk{c.newChunk(documentID, 0, text, 0, n)}
	}

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}
	chunks := make([]domain.Chunk, 0, n/step+1)

	start := 0
	for start < n {
		end := start + c.chunkSize
		if end < n {
			end = c.findBreak(text, start, end)
		} else {
			end = n
		}

		content := text[start:end]
		if len(strings.TrimSpace(content)) >= c.minChunkSize {
			chunks = append(chunks, c.newChunk(documentID, len(chunks), content, start, end))
		}

		if end >= n {
			break
		}

		next := alignRuneStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next

		if start >= n-c.minChunkSize {
			break
		}
	}

	return chunks
}

// findBreak returns the end offset for a chunk starting at start whose ideal
// end is idealEnd. Break points are only accepted in the back half of the
// search window.
func (c *Chunker) findBreak(text string, start, idealEnd int) int {
	windowStart := idealEnd - breakSearchWindow
	if windowStart < start {
		windowStart = start
	}
	window := text[windowStart:idealEnd]
	half := len(window) / 2

	accept := func(idx, width int) (int, bool) {
		if idx > half {
			return windowStart + idx + width, true
		}
		return 0, false
	}

	if end, ok := accept(strings.LastIndex(window, "\n\n"), 2); ok {
		return end
	}

	for _, delim := range sentenceEnds {
		if end, ok := accept(strings.LastIndex(window, delim), len(delim)); ok {
			return end
		}
	}

	if end, ok := accept(strings.LastIndex(window, "\n"), 1); ok {
		return end
	}

	if end, ok := accept(strings.LastIndex(window, " "), 1); ok {
		return end
	}

	if end := alignRuneStart(text, idealEnd); end > start {
		return end
	}
	return idealEnd
}

func (c *Chunker) newChunk(documentID string, position int, content string, start, end int) domain.Chunk {
	return domain.Chunk{
		ID:         ChunkID(documentID, position),
		DocumentID: documentID,
		Content:    content,
		StartIndex: start,
		EndIndex:   end,
		Position:   position,
	}
}

// ChunkID derives the chunk ID for a document position.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+":"+strconv.Itoa(position))).String()
}

// alignRuneStart moves i back to the start of the UTF-8 sequence it falls in.
func alignRuneStart(text string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
