// Package ingest implements the PDF ingest pipeline (PdfRetriever, spec
// §4.5): persist the upload, extract page text, locate each page's TOC
// section paths, run the fact/concept extractor, assemble triplets, and
// merge them into the knowledge graph, with immediate per-page retry.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfshiu/wastepro/engine/extract"
	"github.com/mfshiu/wastepro/engine/fileservice"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/pdfx"
	"github.com/mfshiu/wastepro/pkg/fn"
	"github.com/mfshiu/wastepro/pkg/resilience"
)

// PageRetries is the per-page retry count, immediate (no backoff), per
// spec §4.5 step 4d: "retry up to 3 times, then skip the page and log."
const PageRetries = 3

// FileSaver is the minimal surface Run needs from FileService, satisfied by
// *fileservice.Service.
type FileSaver interface {
	Save(filename string, content []byte) (fileservice.Info, error)
}

// KGMerger is the minimal surface Run needs from the knowledge graph,
// satisfied by *kg.GraphStore.
type KGMerger interface {
	AddTriplets(ctx context.Context, fileID string, page int, triplets []kg.Triplet) error
}

// Deps holds the external dependencies for one pipeline run.
type Deps struct {
	Files     FileSaver
	KG        KGMerger
	Extractor *extract.Extractor
	KGBreaker *resilience.Breaker // optional; wraps the AddTriplets call
	Logger    *slog.Logger
}

// pageInput is one page's processing unit, carrying everything a retry
// attempt needs to redo the work from scratch.
type pageInput struct {
	fileID   string
	index    int
	text     string
	sections [][]string
	meta     map[string]any
	kgName   string
}

// processPage runs step 4a-4c for one page: extract triplets and merge them
// into the graph. Grounded on extract_tool.py's per-page flow and
// pdf_retriever.py's locate_sections + add_triplets call.
func processPage(deps Deps) fn.Stage[pageInput, tripletBatch] {
	return func(ctx context.Context, in pageInput) fn.Result[tripletBatch] {
		extracted, err := deps.Extractor.Extract(ctx, in.text)
		if err != nil {
			return fn.Err[tripletBatch](fmt.Errorf("ingest: page %d: %w", in.index, err))
		}

		triplets := extract.AssembleTriplets(in.sections, extracted, in.meta)

		merge := func(ctx context.Context) error {
			return deps.KG.AddTriplets(ctx, in.fileID, in.index, triplets)
		}
		if deps.KGBreaker != nil {
			err = deps.KGBreaker.Call(ctx, merge)
		} else {
			err = merge(ctx)
		}
		if err != nil {
			return fn.Err[tripletBatch](fmt.Errorf("ingest: page %d: add triplets: %w", in.index, err))
		}

		return fn.Ok(tripletBatch{Page: in.index, Triplets: triplets})
	}
}

// Run executes the full PDF ingest pipeline for one upload, per spec §4.5
// steps 1-4. It returns the Completion for step 5; the caller is
// responsible for publishing it to `Retrieved/Pdf/Retrieval`.
func Run(ctx context.Context, deps Deps, req UploadRequest) (Completion, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	// Step 1: persist synchronously.
	info, err := deps.Files.Save(req.Filename, req.Content)
	if err != nil {
		return Completion{}, fmt.Errorf("ingest: save upload: %w", err)
	}

	// Step 2: extract page text.
	pages, err := pdfx.ExtractPages(info.FilePath)
	if err != nil {
		return Completion{}, fmt.Errorf("ingest: extract pages: %w", err)
	}

	return runPages(ctx, deps, info.FileID, req.KGName, req.Filename, pages, req.TOC, req.Meta, log)
}

// runPages executes steps 3-4 over already-extracted page text, split out
// from Run so it can be exercised without a real PDF file on disk.
func runPages(ctx context.Context, deps Deps, fileID, kgName, title string, pages []string, callerTOC []pdfx.Chapter, meta map[string]any, log *slog.Logger) (Completion, error) {
	// Step 3: compose the top-level table of contents, wrapping the
	// caller-supplied subchapters (or none) under a document root spanning
	// every page.
	toc := []pdfx.Chapter{{
		Name:        title,
		StartPage:   0,
		EndPage:     len(pages),
		Subchapters: callerTOC,
	}}

	stage := fn.RetryStage(fn.RetryOpts{MaxAttempts: PageRetries}, processPage(deps))

	var failedPages []int
	totalTriplets := 0
	for i, text := range pages {
		sections := pdfx.LocateSections(i, toc)
		result := stage(ctx, pageInput{
			fileID:   fileID,
			index:    i,
			text:     text,
			sections: sections,
			meta:     meta,
			kgName:   kgName,
		})
		if result.IsErr() {
			_, pageErr := result.Unwrap()
			log.Error("ingest: page failed after retries", "file_id", fileID, "page", i, "error", pageErr)
			failedPages = append(failedPages, i)
			continue
		}
		batch, _ := result.Unwrap()
		totalTriplets += len(batch.Triplets)
	}

	return Completion{
		FileID:      fileID,
		KGName:      kgName,
		TotalPages:  len(pages),
		FailedPages: failedPages,
		Triplets:    totalTriplets,
	}, nil
}
