// Package respond writes the JSON envelopes shared by every API handler:
// {"data": ...} on success and {"error": {"code", "message"}} on failure.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calm-red-fox/siteops/internal/models"
)

// Error codes carried in the error envelope.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeAccountLocked    = "ACCOUNT_LOCKED"
	CodeInternalError    = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

// Error writes an error envelope with the given status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

// OK writes a 200 data envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 data envelope.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// JSON writes a data envelope with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, CodeBadRequest, message)
}

func Validation(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, CodeValidationFailed, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, CodeNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, CodeConflict, message)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, CodeForbidden, "access denied")
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired token")
}

func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
}

// DomainError maps a business-rule rejection from the storage layer to its
// HTTP response and reports whether err was one. ErrAlreadyClosed is not
// mapped here: closing twice is an informational no-op the handlers answer
// with a 200 body of their own.
func DomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, models.ErrNotFound):
		NotFound(w, "not found")
	case errors.Is(err, models.ErrForbidden):
		Forbidden(w)
	case errors.Is(err, models.ErrAlreadyActive):
		Conflict(w, models.ErrAlreadyActive.Error())
	case errors.Is(err, models.ErrHasChildren):
		Conflict(w, models.ErrHasChildren.Error())
	case errors.Is(err, models.ErrVehicleBusy):
		Conflict(w, models.ErrVehicleBusy.Error())
	case errors.Is(err, models.ErrUserBusy):
		Conflict(w, models.ErrUserBusy.Error())
	case errors.Is(err, models.ErrMissingQuantity):
		Validation(w, models.ErrMissingQuantity.Error())
	case errors.Is(err, models.ErrProjectMismatch):
		Validation(w, models.ErrProjectMismatch.Error())
	case errors.Is(err, models.ErrInvalidStatus):
		Validation(w, models.ErrInvalidStatus.Error())
	case errors.Is(err, models.ErrOdometerRegression):
		Validation(w, models.ErrOdometerRegression.Error())
	default:
		return false
	}
	return true
}
