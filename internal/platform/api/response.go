package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.aocore.tech/internal/platform/common"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DispatchErrorResponse is returned when a dispatch was recorded but did not succeed.
type DispatchErrorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	ExecutionID string `json:"executionId"`
	StatusCode  *int   `json:"statusCode,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Warn("Failed to encode response", "error", err)
		}
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// WriteBadRequest writes a 400 error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteForbidden writes a 403 error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, common.ErrCodeAccessDenied, message)
}

// WriteInternalError writes a 500 error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}

// WriteUseCaseError writes an error response based on UseCase error kind
func WriteUseCaseError(w http.ResponseWriter, err *common.UseCaseError) {
	if err.Kind == common.ErrorKindInternal {
		slog.Error("Use case failed", "code", err.Code, "message", err.Message, "details", err.Details)
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Code, Message: err.Message})
		return
	}
	WriteJSON(w, err.HTTPStatus(), ErrorResponse{Error: err.Code, Message: err.Message, Details: err.Details})
}

// WriteServiceError writes err, mapping use case errors to their status and
// anything else to 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var uce *common.UseCaseError
	if errors.As(err, &uce) {
		WriteUseCaseError(w, uce)
		return
	}
	slog.Error("Request failed", "error", err)
	WriteInternalError(w, "Internal server error")
}

// DecodeJSON decodes JSON from a request body
func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
