package chunker

import (
	"strings"

	"github.com/jmhartley/docdex/pkg/types"
)

const (
	// DefaultChunkSize is the target child span length in runes.
	DefaultChunkSize = 2000

	// DefaultOverlap is the number of runes shared between adjacent
	// child spans.
	DefaultOverlap = 150

	// boundaryWindow is the fraction of the chunk tail searched for a
	// whitespace break before cutting mid-word.
	boundaryWindow = 0.2
)

// Chunker splits document text into a two-level hierarchy: header-delimited
// parent spans, then fixed-size overlapping child spans.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the given child span size and overlap, both in
// runes. Out-of-range values fall back to the defaults.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// parent is one header-delimited span of the source text.
type parent struct {
	section string // header text of the span, "" before the first header
	content string
}

// Chunk splits text into chunks with stable identifiers. Chunk IDs depend
// only on the file name and the (parent, child) position, so identical
// input always produces identical output. A parent that is empty after
// trimming yields no chunks; parent indices follow the split order of the
// raw text.
func (c *Chunker) Chunk(filename, text string) []types.Chunk {
	parents := splitParents(text)

	var chunks []types.Chunk
	seq := 0
	for i, p := range parents {
		children := c.splitChildren(p.content)
		for j, childText := range children {
			chunk := types.Chunk{
				ID:       types.ChunkID(filename, i, j),
				Filename: filename,
				Content:  childText,
				Index:    seq,
				Section:  p.section,
			}
			chunk.ComputeContentHash()
			chunks = append(chunks, chunk)
			seq++
		}
	}
	return chunks
}

// splitParents cuts the text at markdown header lines (#, ##, ### followed
// by a space). Header lines stay in their span's content; each span is
// tagged with the header that opened it. Text before the first header
// becomes an untagged leading span.
func splitParents(text string) []parent {
	lines := strings.Split(text, "\n")

	var parents []parent
	var current []string
	section := ""

	flush := func() {
		if len(current) > 0 {
			parents = append(parents, parent{
				section: section,
				content: strings.Join(current, "\n"),
			})
		}
	}

	for _, line := range lines {
		if h, ok := headerText(line); ok {
			flush()
			current = []string{line}
			section = h
			continue
		}
		current = append(current, line)
	}
	flush()

	if parents == nil {
		return []parent{{content: text}}
	}
	return parents
}

// headerText returns the title of a markdown header line of level 1-3.
func headerText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	for level := 1; level <= 3; level++ {
		marker := strings.Repeat("#", level) + " "
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	return "", false
}

// splitChildren cuts one parent span into overlapping fixed-size pieces.
// Windows prefer to end on whitespace inside the final boundaryWindow
// fraction of the span. Pieces that trim to nothing are dropped.
func (c *Chunker) splitChildren(text string) []string {
	runes := []rune(text)
	n := len(runes)

	if n == 0 {
		return nil
	}
	if n <= c.size {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	var out []string
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = breakAt(runes, start, end)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}

		if end >= n {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// breakAt backtracks from end to the last whitespace rune within the
// boundary window, keeping the cut out of the middle of a word when it can.
func breakAt(runes []rune, start, end int) int {
	limit := end - int(float64(end-start)*boundaryWindow)
	for i := end - 1; i > limit; i-- {
		switch runes[i] {
		case ' ', '\n', '\t':
			return i + 1
		}
	}
	return end
}
