package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// requestLogEntry serves one request through GinMiddleware and returns
// the recorded access log entry.
func requestLogEntry(t *testing.T, method, target string, register func(*gin.Engine)) observer.LoggedEntry {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	register(router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("User-Agent", "bursar-portal/2.1")
	router.ServeHTTP(w, req)

	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			return entry
		}
	}
	t.Fatal("no access log entry recorded")
	return observer.LoggedEntry{}
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs successful requests at info", func(t *testing.T) {
		entry := requestLogEntry(t, "GET", "/finance/invoices", func(r *gin.Engine) {
			r.GET("/finance/invoices", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": true})
			})
		})

		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/finance/invoices", fields["path"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
		assert.Equal(t, "bursar-portal/2.1", fields["user_agent"])
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		entry := requestLogEntry(t, "POST", "/finance/payments", func(r *gin.Engine) {
			r.POST("/finance/payments", func(c *gin.Context) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false})
			})
		})

		assert.Equal(t, zapcore.WarnLevel, entry.Level)
	})

	t.Run("logs server errors at error", func(t *testing.T) {
		entry := requestLogEntry(t, "POST", "/finance/invoices/generate", func(r *gin.Engine) {
			r.POST("/finance/invoices/generate", func(c *gin.Context) {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false})
			})
		})

		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	})

	t.Run("includes the query string when present", func(t *testing.T) {
		entry := requestLogEntry(t, "GET", "/finance/invoices?month=3&year=2026", func(r *gin.Engine) {
			r.GET("/finance/invoices", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": true})
			})
		})

		query, ok := entry.ContextMap()["query"].(string)
		require.True(t, ok, "query field missing")
		assert.Contains(t, query, "month=3")
	})

	t.Run("carries the request ID set upstream", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-term2-010")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

		entries := recorded.All()
		require.NotEmpty(t, entries)
		assert.Equal(t, "req-term2-010", entries[0].ContextMap()["request_id"])
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.POST("/finance/invoices/generate", func(c *gin.Context) {
		panic("structure misconfigured")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/finance/invoices/generate", nil)

	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := recorded.All()
	require.NotEmpty(t, entries)
	assert.Equal(t, "Panic recovered", entries[0].Message)
	assert.Equal(t, "/finance/invoices/generate", entries[0].ContextMap()["path"])
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns the request-scoped logger", func(t *testing.T) {
		core, _ := observer.New(zapcore.InfoLevel)

		var got *zap.Logger
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/system/info", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/system/info", nil))

		assert.NotNil(t, got)
	})

	t.Run("falls back to a nop logger", func(t *testing.T) {
		var got *zap.Logger
		router := gin.New()
		router.GET("/system/ping", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.String(http.StatusOK, "pong")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/system/ping", nil))

		require.NotNil(t, got)
		assert.NotPanics(t, func() { got.Info("ping") })
	})
}
