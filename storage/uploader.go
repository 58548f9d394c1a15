package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object: its bucket key, the public URL it
// can be fetched from and the ETag the store reported.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores tournament and team images. Keys are stable per
// owner, so re-uploading replaces the previous image.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
