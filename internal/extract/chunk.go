package extract

import "github.com/joseph-ayodele/po-extractor/constants"

// Chunk is a run of consecutive pages sent in one completion call.
// FirstPage and LastPage are zero-based and inclusive.
type Chunk struct {
	Index     int
	FirstPage int
	LastPage  int
}

// PlanChunks partitions pageCount pages into ceil(pageCount/size) chunks.
// A non-positive size uses the default of three pages.
func PlanChunks(pageCount, size int) []Chunk {
	if size <= 0 {
		size = constants.DefaultPagesPerChunk
	}
	if pageCount <= 0 {
		return nil
	}
	chunks := make([]Chunk, 0, (pageCount+size-1)/size)
	for first := 0; first < pageCount; first += size {
		last := min(first+size, pageCount) - 1
		chunks = append(chunks, Chunk{Index: len(chunks), FirstPage: first, LastPage: last})
	}
	return chunks
}
