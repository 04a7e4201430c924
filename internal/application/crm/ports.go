package crm

import (
	"context"
	"time"
)

// AttachmentStorage hands out presigned URLs for client attachments.
// The bytes never pass through this service.
type AttachmentStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}
