package attach

import (
	"context"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// File is a raw upload as received from a client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Uploader turns a raw file into a durable attachment record. The
// message pipeline only depends on this seam, so a deployment can
// swap the local blob store for object storage without touching it.
type Uploader interface {
	Upload(ctx context.Context, f File) (models.Attachment, error)
}
