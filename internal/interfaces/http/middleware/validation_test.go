package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/backend/internal/interfaces/http/dto"
)

type customInvoiceInput struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Month     int    `json:"month" binding:"required,gte=1,lte=12"`
	Year      int    `json:"year" binding:"required,gte=2000"`
}

func postJSON(router *gin.Engine, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newValidatedRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/finance/invoices/custom", func(c *gin.Context) {
		var input customInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	router := newValidatedRouter()

	t.Run("reports each failing field by its json name", func(t *testing.T) {
		w := postJSON(router, "/finance/invoices/custom", `{"student_id": "not-a-uuid", "month": 13, "year": 2026}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "student_id")
		assert.Contains(t, fields, "month")
	})

	t.Run("missing fields are flagged as required", func(t *testing.T) {
		w := postJSON(router, "/finance/invoices/custom", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
		assert.Contains(t, w.Body.String(), "This field is required")
	})

	t.Run("valid payload passes through", func(t *testing.T) {
		w := postJSON(router, "/finance/invoices/custom",
			`{"student_id": "6b1f8f74-9a31-4c4e-8f28-1f25a9d2c501", "month": 3, "year": 2026}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type ruleProbe struct {
		Required string `binding:"required"`
		Email    string `binding:"email"`
		Min      string `binding:"min=5"`
		Max      string `binding:"max=3"`
		Len      string `binding:"len=5"`
		UUID     string `binding:"uuid"`
		OneOf    string `binding:"oneof=TERM1 TERM2 TERM3"`
		URL      string `binding:"url"`
	}

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 3 characters",
		"Len":      "Must be exactly 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: TERM1 TERM2 TERM3",
		"URL":      "Invalid URL format",
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(ruleProbe{
		Email: "not-an-email",
		Min:   "ab",
		Max:   "over",
		Len:   "ab",
		UUID:  "nope",
		OneOf: "TERM4",
		URL:   "nope",
	})
	require.Error(t, err)

	validationErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	seen := make(map[string]bool)
	for _, e := range validationErrs {
		if want, known := expected[e.Field()]; known {
			assert.Equal(t, want, validationMessage(e), "field %s", e.Field())
			seen[e.Field()] = true
		}
	}
	for field := range expected {
		assert.True(t, seen[field], "rule for %s never fired", field)
	}
}
