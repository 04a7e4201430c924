package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAttachmentStorage(t *testing.T) {
	s := NewLocalAttachmentStorage("http://files.local/")
	ctx := context.Background()

	up, expiresAt, err := s.GenerateUploadURL(ctx, "a/b.pdf", "application/pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, up, "http://files.local/upload/a/b.pdf?expires=")
	assert.True(t, expiresAt.After(time.Now()))

	down, _, err := s.GenerateDownloadURL(ctx, "a/b.pdf", 0)
	require.NoError(t, err)
	assert.Contains(t, down, "/download/a/b.pdf")

	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, errEmptyKey)

	assert.Equal(t, "http://localhost:9000/attachments", NewLocalAttachmentStorage("").BaseURL)
}
