package storage

import "context"

type UploadResult struct {
	Success  bool
	URL      string
	PublicID string
	Message  string
}

// Uploader stores a document and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, name string, content []byte) (UploadResult, error)
}
