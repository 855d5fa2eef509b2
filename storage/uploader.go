package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectUploader puts documents into an object store and resolves their public URLs.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}
