package ingest

import (
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/pdfx"
)

// UploadRequest is the file-upload parcel's content, per spec §4.5: "On
// receiving a file-upload parcel {content, filename, kg_name, toc?, meta?}".
type UploadRequest struct {
	Content  []byte
	Filename string
	KGName   string
	TOC      []pdfx.Chapter // caller-supplied subchapters, may be nil
	Meta     map[string]any
}

// SavedDocument is step 1-3's output: the persisted file plus its
// extracted pages and the composed top-level table of contents.
type SavedDocument struct {
	FileID string
	Pages  []string
	Root   pdfx.Chapter
}

// PageOutcome records one page's processing result for the completion
// parcel and for logging; Err is non-nil only after all retries fail.
type PageOutcome struct {
	Index    int
	Sections [][]string
	Err      error
}

// Completion is published on `Retrieved/Pdf/Retrieval` once every page has
// been attempted, per spec §4.5 step 5.
type Completion struct {
	FileID      string `json:"file_id"`
	KGName      string `json:"kg_name"`
	TotalPages  int    `json:"total_pages"`
	FailedPages []int  `json:"failed_pages,omitempty"`
	Triplets    int    `json:"triplets_added"`
}

// tripletBatch pairs one page's assembled triplets with its page index, the
// value processPage returns once AddTriplets has merged them.
type tripletBatch struct {
	Page     int
	Triplets []kg.Triplet
}
