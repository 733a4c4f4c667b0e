package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, ErrorDescription: description})
}

// writeLookupError turns a fixture lookup error into a response.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such resource")
	case errors.Is(err, apperrors.ErrUnsupported):
		writeError(w, http.StatusBadRequest, "invalid_request", "unsupported operation")
	default:
		writeError(w, http.StatusConflict, "conflict", "operation not allowed in the current state")
	}
}

// pathID parses the numeric path value name. It writes a 400 and returns
// false when the value is not a number.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" must be numeric")
		return 0, false
	}
	return id, true
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
