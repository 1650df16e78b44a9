package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/extract"
	"github.com/mfshiu/wastepro/engine/fileservice"
	"github.com/mfshiu/wastepro/engine/ingest"
	"github.com/mfshiu/wastepro/engine/llm"
	"github.com/mfshiu/wastepro/engine/pdfx"
	"github.com/mfshiu/wastepro/pkg/resilience"
)

// newPdfAgent wires the PDF-retrieval agent (spec §4.5): accept an upload
// parcel on FileUpload/Pdf/Retrieval, run it through the ingest pipeline,
// and always publish a completion on Retrieved/Pdf/Retrieval, even when
// the pipeline itself errors or some pages failed, per spec §5: "a failed
// ingest yields a Retrieved/Pdf/Retrieval parcel regardless."
func newPdfAgent(nc *nats.Conn, log *slog.Logger, files *fileservice.Service, kgSvc *kgService, chat *llm.Service) *agent.Agent {
	a := agent.New("PdfRetrieval", nc, log)
	breaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)

	handler := func(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		kgName, _ := p.Content["kg_name"].(string)
		filename, _ := p.Content["filename"].(string)
		if kgName == "" || filename == "" {
			return nil, fmt.Errorf("pdfretrieval: kg_name and filename are required")
		}

		var content []byte
		if p.IsBinary() {
			content = p.Binary
		} else if s, ok := p.Content["content"].(string); ok {
			content = []byte(s)
		}

		var toc []pdfx.Chapter
		if raw, ok := p.Content["toc"]; ok {
			if err := decodeAny(raw, &toc); err != nil {
				return nil, fmt.Errorf("pdfretrieval: decode toc: %w", err)
			}
		}
		meta, _ := p.Content["meta"].(map[string]any)

		inst, err := kgSvc.open(ctx, kgName)
		if err != nil {
			return nil, fmt.Errorf("pdfretrieval: open kg %q: %w", kgName, err)
		}

		deps := ingest.Deps{
			Files:     files,
			KG:        inst.store,
			Extractor: extract.NewExtractor(chat),
			KGBreaker: breaker,
			Logger:    log,
		}

		completion, runErr := ingest.Run(ctx, deps, ingest.UploadRequest{
			Content:  content,
			Filename: filename,
			KGName:   kgName,
			TOC:      toc,
			Meta:     meta,
		})
		if runErr != nil {
			log.Error("pdfretrieval: pipeline failed", "kg_name", kgName, "filename", filename, "error", runErr)
			completion.KGName = kgName
		}

		body, err := toMap(completion)
		if err != nil {
			return nil, fmt.Errorf("pdfretrieval: marshal completion: %w", err)
		}
		if err := a.Publish(ctx, "Retrieved/Pdf/Retrieval", domain.NewTextParcel(body)); err != nil {
			log.Error("pdfretrieval: publish completion", "error", err)
		}
		return nil, runErr
	}

	_ = a.Subscribe("FileUpload/Pdf/Retrieval", handler)
	return a
}
