package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	crmapp "github.com/mar-ia/crm/internal/application/crm"
)

var _ crmapp.AttachmentStorage = (*LocalAttachmentStorage)(nil)

// LocalAttachmentStorage hands out unsigned URLs under BaseURL.
// It is wired when no bucket is configured, for local development only.
type LocalAttachmentStorage struct {
	BaseURL string
}

// NewLocalAttachmentStorage creates a LocalAttachmentStorage
func NewLocalAttachmentStorage(baseURL string) *LocalAttachmentStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/attachments"
	}
	return &LocalAttachmentStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalAttachmentStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("upload", storageKey, expiresIn)
}

func (s *LocalAttachmentStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("download", storageKey, expiresIn)
}

func (s *LocalAttachmentStorage) url(op, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + op + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}
