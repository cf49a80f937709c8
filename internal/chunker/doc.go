// Package chunker divides document text into retrievable spans for
// embedding and search.
//
// Splitting happens in two passes. The first pass cuts the text at markdown
// header lines (levels 1-3) into parent spans, each tagged with the header
// that opened it; text before the first header forms an untagged leading
// span, and files without headers become a single span. The second pass
// cuts each parent into fixed-size child spans with a configurable overlap,
// preferring to break on whitespace near the window edge.
//
// # Basic Usage
//
//	c := chunker.New(2000, 150)
//	chunks := c.Chunk("journal.md", text)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s [%d] %q\n", chunk.ID[:8], chunk.Index, chunk.Section)
//	}
//
// # Stable Identity
//
// A chunk's ID is a hash of (filename, parent index, child index) and
// nothing else. Re-chunking byte-identical input yields byte-identical IDs
// and text, on any machine, which is what makes the commit writer's
// delete-then-reinsert replace step idempotent.
//
// Empty parents are dropped rather than emitted as zero-length chunks.
// Chunk.Index is the document-wide sequence number used to reassemble the
// original text in order.
package chunker
