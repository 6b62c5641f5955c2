package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openshelf/library-server-go/pkg/apierrors"
)

// RespondWithError sends an error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error": message,
		"code":  http.StatusText(statusCode),
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondWithAPIError maps a service error onto the wire. Errors that
// are not APIErrors are treated as internal.
func RespondWithAPIError(w http.ResponseWriter, err error) {
	if apiErr, ok := apierrors.AsAPIError(err); ok {
		if apiErr.InternalErr != nil {
			slog.Error("Request failed", "type", apiErr.Type, "code", apiErr.Code, "error", apiErr.InternalErr)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.HTTPStatus)
		if encErr := json.NewEncoder(w).Encode(map[string]interface{}{"error": apiErr}); encErr != nil {
			slog.Error("Failed to encode error response", "error", encErr)
		}
		return
	}

	slog.Error("Unclassified request failure", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode success response", "error", err)
	}
}
