package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID reads a numeric route parameter. Non-numeric ids do not name any resource,
// so they are answered with 404.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error) {
	switch {
	case entity.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entity.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, entity.ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, entity.ErrMissingReference), errors.Is(err, entity.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entity.ErrUserHasAssignedTasks), errors.Is(err, entity.ErrUsernameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
