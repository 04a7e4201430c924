package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}

func TestGormLogger_TraceError_TagsTenant(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "warn", 0)

	ctx := context.WithValue(context.Background(), TenantIDKey, "tenant-1")
	ctx = context.WithValue(ctx, OrganizationIDKey, "org-1")
	gl.Trace(ctx, time.Now(), sqlFunc("SELECT * FROM leads", 0), errors.New("boom"))

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, "SQL error", entry.Message)
	assert.Equal(t, "tenant-1", entry.ContextMap()["tenant_id"])
	assert.Equal(t, "org-1", entry.ContextMap()["organization_id"])
}

func TestGormLogger_IgnoresRecordNotFound(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "info", 0)

	gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, recorded.Len())
}

func TestGormLogger_SlowQuery(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "warn", time.Millisecond)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFunc("SELECT 1", 1), nil)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "Slow SQL", recorded.All()[0].Message)
}

func TestGormLogger_SilentAndLogMode(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "silent", 0)

	gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), errors.New("x"))
	assert.Equal(t, 0, recorded.Len())

	verbose := gl.LogMode(gormlogger.Info)
	verbose.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), nil)
	assert.Equal(t, 1, recorded.Len())
	assert.Equal(t, "SQL query", recorded.All()[0].Message)
}
