package http

import (
	"encoding/json"
	"net/http"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    any              `json:"data,omitempty"`
	Code    domain.ErrorCode `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, APIResponse{Success: true, Message: message, Data: data})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, APIResponse{Message: message, Code: domain.CodeInvalidArgument})
}

// writeError maps err onto its status. Internal errors are logged in full
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.CodeOf(err)
	status := statusFor(code)
	message := err.Error()
	if code == domain.CodeInternal {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "An internal error occurred"
	}
	writeJSON(w, status, APIResponse{Message: message, Code: code})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeDuplicateResource, domain.CodeDuplicateTransaction, domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
