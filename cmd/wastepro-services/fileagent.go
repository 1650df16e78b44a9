package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/fileservice"
)

// newFileAgent wires the file service (spec §4.3): persist whatever the
// caller sent under content (binary or string) and return the sidecar plus
// the derived {file_id, file_path, mime_type, encoding}.
func newFileAgent(nc *nats.Conn, log *slog.Logger, files *fileservice.Service) *agent.Agent {
	a := agent.New("FileService", nc, log)

	handler := func(_ context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		filename, _ := p.Content["filename"].(string)
		if filename == "" {
			return nil, fmt.Errorf("fileservice: filename is required")
		}

		var content []byte
		switch {
		case p.IsBinary():
			content = p.Binary
		default:
			if s, ok := p.Content["content"].(string); ok {
				content = []byte(s)
			}
		}

		info, err := files.Save(filename, content)
		if err != nil {
			return nil, fmt.Errorf("fileservice: save %s: %w", filename, err)
		}

		result := map[string]any{
			"file_id":   info.FileID,
			"file_path": info.FilePath,
			"mime_type": info.MimeType,
			"encoding":  info.Encoding,
		}
		for k, v := range p.Content {
			if k == "content" || k == "filename" {
				continue
			}
			result[k] = v
		}
		return result, nil
	}

	_ = a.Subscribe("FileUpload/FileService/Services", handler)
	return a
}
