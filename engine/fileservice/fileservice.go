// Package fileservice persists uploaded file content under a content
// directory keyed by a derived file_id, per spec §4.3.
package fileservice

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mfshiu/wastepro/engine/domain"
)

// Info is the sidecar info returned alongside a persisted file, per spec
// §4.3: "return the sidecar plus {file_id, file_path, mime_type, encoding}".
type Info struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	MimeType string `json:"mime_type"`
	Encoding string `json:"encoding"`
}

// Service writes uploaded content under a single home directory.
type Service struct {
	home string
}

func New(home string) *Service {
	return &Service{home: home}
}

// Save computes file_id = uuid(sha1(filename + epoch_ms + rand))[:32],
// writes content to <home>/<file_id[:2]>/<file_id>-<filename>, and returns
// the resulting Info. MIME type is derived from the filename extension.
func (s *Service) Save(filename string, content []byte) (Info, error) {
	fileID := newFileID(filename)
	dir := filepath.Join(s.home, fileID[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("%w: mkdir %s: %v", domain.ErrFileIO, dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s", fileID, filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return Info{}, fmt.Errorf("%w: write %s: %v", domain.ErrFileIO, path, err)
	}

	return Info{
		FileID:   fileID,
		Filename: filename,
		FilePath: path,
		MimeType: mimeTypeFor(filename),
		Encoding: "utf-8",
	}, nil
}

func newFileID(filename string) string {
	seed := fmt.Sprintf("%s%d%d", filename, time.Now().UnixMilli(), rand.Int63())
	sum := sha1.Sum([]byte(seed))
	id := uuid.NewSHA1(uuid.NameSpaceOID, sum[:])
	return hex.EncodeToString(id[:])[:32]
}

func mimeTypeFor(filename string) string {
	ext := filepath.Ext(filename)
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
