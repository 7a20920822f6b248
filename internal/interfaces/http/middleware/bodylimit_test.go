package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newBodyLimitRouter(maxBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.POST("/finance/payments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	t.Run("accepts a payment payload within the limit", func(t *testing.T) {
		router := newBodyLimitRouter(1024)

		payload := `{"invoice_no":"HCA-2026-000017","amount":"250000","mode":"MOBILE_MONEY"}`
		req := httptest.NewRequest("POST", "/finance/payments", strings.NewReader(payload))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an oversized payload by Content-Length", func(t *testing.T) {
		router := newBodyLimitRouter(64)

		payload := strings.Repeat("x", 500)
		req := httptest.NewRequest("POST", "/finance/payments", strings.NewReader(payload))
		req.ContentLength = 500
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("caps streaming bodies with no declared length", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(32))
		router.POST("/finance/payments", func(c *gin.Context) {
			buf := make([]byte, 256)
			if _, err := c.Request.Body.Read(buf); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("POST", "/finance/payments", strings.NewReader(strings.Repeat("x", 128)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ignores bodiless requests", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(16))
		router.GET("/finance/invoices/outstanding", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/finance/invoices/outstanding", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
