// Package utils provides utility functions and helpers for the application.
// This file implements the standardized API response envelope used by every
// JSON endpoint:
//
//	{"success": bool, "data": ..., "error": {"code", "message", "details"}, "meta": {...}}
//
// Admission rejections do not use the envelope; they terminate with a bare status.
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// Response represents a standardized API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string         `json:"code"`              // A machine-readable error code
	Message string         `json:"message"`           // A human-readable error message
	Details map[string]any `json:"details,omitempty"` // Violated rules, conflicting state, field errors
}

// MetaInfo represents pagination metadata in the response.
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"page_size,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// PaginationParams contains parameters for pagination.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip for the requested page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// JSON sends a JSON response with the given status code and data.
// The success flag follows the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	SendJSON(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// Error sends an error response with the given status code and error information.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - code: A machine-readable error code
//   - message: A human-readable error message
//   - details: Additional details about the error (e.g., violated rules)
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]any) {
	SendJSON(w, statusCode, Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// ErrorFromAppError sends an error response based on an AppError.
// The machine-readable code is derived from the wrapped sentinel error.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	errCode := constants.CodeInternalError
	switch {
	case errors.Is(err.Err, ErrNotFound):
		errCode = constants.CodeNotFound
	case errors.Is(err.Err, ErrBadRequest):
		errCode = constants.CodeBadRequest
	case errors.Is(err.Err, ErrUnauthorized):
		errCode = constants.CodeUnauthorized
	case errors.Is(err.Err, ErrForbidden):
		errCode = constants.CodeForbidden
	case errors.Is(err.Err, ErrValidation):
		errCode = constants.CodeValidationError
	case errors.Is(err.Err, ErrConflict):
		errCode = constants.CodeConflict
	case errors.Is(err.Err, ErrDuplicate):
		errCode = constants.CodeDuplicateResource
	case errors.Is(err.Err, ErrInvalidCredentials):
		errCode = constants.CodeInvalidCredentials
	case errors.Is(err.Err, ErrExpiredToken):
		errCode = constants.CodeTokenExpired
	case errors.Is(err.Err, ErrInvalidToken):
		errCode = constants.CodeTokenInvalid
	}

	details := err.Details
	if err.Field != "" {
		if details == nil {
			details = make(map[string]any, 1)
		}
		details[err.Field] = err.Message
	}

	if err.StatusCode >= http.StatusInternalServerError {
		log.Error().Str("dev_info", err.DevInfo).Msg(err.Message)
	}

	Error(w, err.StatusCode, errCode, err.Message, details)
}

// HandleError converts any error into the response envelope.
func HandleError(w http.ResponseWriter, err error) {
	ErrorFromAppError(w, ParseError(err))
}

// Paginated sends a paginated response with the given status code, data, and pagination info.
func Paginated(w http.ResponseWriter, statusCode int, data interface{}, page, pageSize, totalItems int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = totalItems / pageSize
		if totalItems%pageSize > 0 {
			totalPages++
		}
	}

	SendJSON(w, statusCode, Response{
		Success: constants.ResponseSuccess,
		Data:    data,
		Meta: &MetaInfo{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: totalItems,
			TotalPages: totalPages,
		},
	})
}

// SendJSON marshals data and writes it with the JSON content type.
// Marshalling happens before the header is written so a failure can still
// produce a 500.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(constants.StatusNoContent)
}

// BadRequest sends a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, message string, details map[string]any) {
	Error(w, constants.StatusBadRequest, constants.CodeBadRequest, message, details)
}

// Unauthorized sends a 401 Unauthorized response with the given message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	Error(w, constants.StatusUnauthorized, constants.CodeUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response with the given message.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	Error(w, constants.StatusForbidden, constants.CodeForbidden, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, constants.StatusNotFound, constants.CodeNotFound, message, nil)
}

// Conflict sends a 409 Conflict response with the given message.
func Conflict(w http.ResponseWriter, message string, details map[string]any) {
	Error(w, constants.StatusConflict, constants.CodeConflict, message, details)
}

// TooManyRequests sends a 429 response. retryAfterSeconds is also sent
// in the Retry-After header.
func TooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	Error(w, constants.StatusTooManyRequests, constants.CodeTooManyRequests, constants.MsgTooManyRequests,
		map[string]any{"retryAfterSeconds": retryAfterSeconds})
}

// InternalServerError sends a 500 Internal Server Error response.
// The error is logged but not exposed to the client.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, constants.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}

// ValidationError sends a 400 Bad Request response with field error details.
func ValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	details := make(map[string]any, len(fieldErrors))
	for k, v := range fieldErrors {
		details[k] = v
	}
	Error(w, constants.StatusBadRequest, constants.CodeValidationError, "Validation failed", details)
}

// GetPaginationParams extracts pagination parameters from the request,
// clamping the page size to [MinPageSize, MaxPageSize].
func GetPaginationParams(r *http.Request) PaginationParams {
	page := constants.DefaultPage
	pageSize := constants.DefaultPageSize

	if v := r.URL.Query().Get(constants.QueryParamPage); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if v := r.URL.Query().Get(constants.QueryParamPageSize); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			switch {
			case parsed < constants.MinPageSize:
				pageSize = constants.MinPageSize
			case parsed > constants.MaxPageSize:
				pageSize = constants.MaxPageSize
			default:
				pageSize = parsed
			}
		}
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
	}
}
