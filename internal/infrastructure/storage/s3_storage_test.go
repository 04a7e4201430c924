package storage

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "crm-attachments",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3AttachmentStorage_Validation(t *testing.T) {
	_, err := NewS3AttachmentStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3AttachmentStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3AttachmentStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
	assert.ErrorContains(t, err, "credentials are required")

	s, err := NewS3AttachmentStorage(testStorageConfig(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "crm-attachments", s.Bucket())
	assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)

	got, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestS3AttachmentStorage_Presign(t *testing.T) {
	s, err := NewS3AttachmentStorage(testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.GenerateUploadURL(ctx, "", "application/pdf", 0)
	assert.ErrorIs(t, err, errEmptyKey)

	raw, expiresAt, err := s.GenerateUploadURL(ctx, "tenants/t/clients/c/contract.pdf", "application/pdf", 5*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/crm-attachments/tenants/t/clients/c/contract.pdf"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	raw, _, err = s.GenerateDownloadURL(ctx, "tenants/t/clients/c/contract.pdf", 0)
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}

func TestS3AttachmentStorage_EnsureBucket_Integration(t *testing.T) {
	endpoint := os.Getenv("CRM_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("CRM_TEST_S3_ENDPOINT not set")
	}
	cfg := testStorageConfig()
	cfg.Endpoint = endpoint
	cfg.AccessKey = os.Getenv("CRM_TEST_S3_ACCESS_KEY")
	cfg.SecretKey = os.Getenv("CRM_TEST_S3_SECRET_KEY")

	s, err := NewS3AttachmentStorage(cfg)
	require.NoError(t, err)
	require.NoError(t, s.EnsureBucket(context.Background()))
	require.NoError(t, s.EnsureBucket(context.Background()))
}
