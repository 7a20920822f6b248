package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newGormTestLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func invoiceQuery() (string, int64) {
	return "SELECT * FROM invoices WHERE tenant_id = ? AND status = 'UNPAID'", 7
}

func TestNewGormLogger(t *testing.T) {
	gl, _ := newGormTestLogger(gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)

	t.Run("options override the defaults", func(t *testing.T) {
		gl, _ := newGormTestLogger(gormlogger.Warn,
			WithSlowThreshold(time.Second),
			WithIgnoreRecordNotFoundError(false),
		)

		assert.Equal(t, time.Second, gl.slowThreshold)
		assert.False(t, gl.ignoreRecordNotFoundError)
	})
}

func TestGormLoggerLogMode(t *testing.T) {
	gl, _ := newGormTestLogger(gormlogger.Info)

	adjusted, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Error, adjusted.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel, "original stays untouched")
}

func TestGormLoggerLevels(t *testing.T) {
	t.Run("info passes through at info level", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)
		gl.Info(context.Background(), "migrated %s", "invoices")

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "migrated invoices")
	})

	t.Run("warn and error keep their level", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)
		gl.Warn(context.Background(), "retrying transaction %d", 2)
		gl.Error(context.Background(), "constraint violated")

		entries := logs.All()
		require.Len(t, entries, 2)
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	})

	t.Run("silent suppresses everything", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Silent)
		gl.Info(context.Background(), "hidden")
		gl.Warn(context.Background(), "hidden")
		gl.Error(context.Background(), "hidden")

		assert.Empty(t, logs.All())
	})
}

func TestGormLoggerTrace(t *testing.T) {
	t.Run("failed query logs the SQL and error", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), invoiceQuery, errors.New("deadlock detected"))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SQL Error", entries[0].Message)
		assert.Contains(t, entries[0].ContextMap()["sql"], "FROM invoices")
	})

	t.Run("record-not-found is dropped by default", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), invoiceQuery, gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("record-not-found surfaces when configured", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))

		gl.Trace(context.Background(), time.Now(), invoiceQuery, gormlogger.ErrRecordNotFound)

		require.Len(t, logs.All(), 1)
	})

	t.Run("slow query warns past the threshold", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

		gl.Trace(context.Background(), time.Now().Add(-time.Second), invoiceQuery, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "SLOW SQL")
		assert.EqualValues(t, 7, entries[0].ContextMap()["rows"])
	})

	t.Run("normal query traces at debug", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)

		gl.Trace(context.Background(), time.Now(), invoiceQuery, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SQL Query", entries[0].Message)
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
	})

	t.Run("silent level traces nothing", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), invoiceQuery, nil)

		assert.Empty(t, logs.All())
	})

	t.Run("request ID from the context joins the trace", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-collect-55")
		gl.Trace(ctx, time.Now(), invoiceQuery, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-collect-55", entries[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"trace", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapGormLogLevel(tt.level), "level %q", tt.level)
	}
}
