package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"pintlog-backend-go/internal/services"
)

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service errors to their status. Anything else is
// logged and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serr services.ServiceError
	if errors.As(err, &serr) {
		if serr.Status >= http.StatusInternalServerError {
			s.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("service unavailable")
		}
		WriteError(w, serr.Status, serr.Message)
		return
	}
	if errors.Is(err, services.ErrInvalidRecordFormat) {
		s.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("malformed stored record")
		WriteError(w, http.StatusInternalServerError, "Stored record is malformed")
		return
	}
	s.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
