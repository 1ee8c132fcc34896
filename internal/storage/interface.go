package storage

import "context"

// ImageUploader stores profile images. This interface allows for easy mocking in tests.
type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, filename, contentType string) (*UploadResult, error)
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
