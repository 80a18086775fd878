package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/repository"
	"github.com/vedran77/autotask/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// writeUnexpected reports errors no handler maps explicitly. Store outages
// become 503 so clients know they may retry.
func writeUnexpected(w http.ResponseWriter, r *http.Request, logger logging.Logger, op string, err error) {
	if errors.Is(err, repository.ErrUnavailable) {
		logger.Warn(r.Context(), op+": store unavailable", "err", err)
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service temporarily unavailable")
		return
	}
	logger.Error(r.Context(), op+" failed", "err", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}
