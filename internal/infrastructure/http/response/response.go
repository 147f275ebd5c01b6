package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrops-br/products-crud-api/internal/domain"
)

// ErrorResponse represents an error payload. Violations is only present
// for validation failures and lists every broken rule.
type ErrorResponse struct {
	Error      string                  `json:"error"`
	Message    string                  `json:"message"`
	Violations []domain.FieldViolation `json:"violations,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, err error) {
	errorType := "error"
	switch status {
	case http.StatusNotFound:
		errorType = "not_found"
	case http.StatusBadRequest:
		errorType = "bad_request"
	case http.StatusInternalServerError:
		errorType = "internal_server_error"
	}

	resp := ErrorResponse{
		Error:   errorType,
		Message: err.Error(),
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation_failed"
		resp.Violations = verr.Violations
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		resp.Error = "conflict"
	}

	JSON(w, status, resp)
}
