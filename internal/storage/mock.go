package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockUploadedFile is one upload captured by MockUploader
type MockUploadedFile struct {
	Key         string
	Filename    string
	ContentType string
	Data        []byte
}

// MockUploader keeps uploads in memory
type MockUploader struct {
	mu sync.Mutex

	BaseURL       string
	UploadedFiles []MockUploadedFile
	ShouldFail    bool
	FailError     error
}

// NewMockUploader creates a mock rooted at baseURL
func NewMockUploader(baseURL string) *MockUploader {
	return &MockUploader{BaseURL: baseURL}
}

func (m *MockUploader) UploadImage(ctx context.Context, data []byte, filename, contentType string) (*UploadResult, error) {
	if m.ShouldFail {
		if m.FailError != nil {
			return nil, m.FailError
		}
		return nil, fmt.Errorf("mock upload failure")
	}
	if !IsAllowedImageType(contentType) {
		return nil, fmt.Errorf("unsupported image type: %s", contentType)
	}

	key := ImageObjectName(filename)
	token := uuid.New().String()

	m.mu.Lock()
	m.UploadedFiles = append(m.UploadedFiles, MockUploadedFile{
		Key:         key,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	})
	m.mu.Unlock()

	return &UploadResult{
		Key:    key,
		URL:    ImageURL(m.BaseURL, key, token),
		Token:  token,
		Bucket: "mock",
		Size:   int64(len(data)),
	}, nil
}

// Uploads returns a copy of the captured uploads
func (m *MockUploader) Uploads() []MockUploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockUploadedFile, len(m.UploadedFiles))
	copy(out, m.UploadedFiles)
	return out
}

var _ ImageUploader = (*MockUploader)(nil)
