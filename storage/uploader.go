package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// NewObjectKey строит уникальный ключ вида "<prefix>/<uuid><ext>".
func NewObjectKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+strings.ToLower(ext))
}
