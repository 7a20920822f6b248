package handler

import "github.com/schoolerp/backend/internal/interfaces/http/dto"

// APIResponse is the response envelope as swagger sees it. The runtime
// envelope is dto.Response; this typed mirror exists so generated docs
// show the concrete payload shape.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse mirrors the error envelope for generated docs.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse mirrors a bare success envelope for generated docs.
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
