package attach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// LocalUploader writes blobs under a local directory and hands back a
// URL served by the /blobs static route. This is the single-process
// reference behavior; production injects S3Uploader instead.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(_ context.Context, f File) (models.Attachment, error) {
	key := uuid.NewString() + "-" + sanitize(f.Name)
	if err := os.WriteFile(filepath.Join(u.dir, key), f.Data, 0o644); err != nil {
		return models.Attachment{}, fmt.Errorf("write blob: %w", err)
	}
	return models.Attachment{
		Name: f.Name,
		URL:  u.baseURL + "/blobs/" + key,
		Type: f.ContentType,
		Size: f.Size,
	}, nil
}

// Dir is the directory blobs are written to, for the static route.
func (u *LocalUploader) Dir() string { return u.dir }

func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, name)
}
