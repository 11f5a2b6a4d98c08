package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/logger"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeJSON decodes the request body into dst and runs struct
// validation against its validate tags.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	if err := s.validate.Struct(dst); err != nil {
		logger.FromContext(r.Context()).Debug("request validation failed: %v", err)
		return errors.NewValidationError("body", err.Error())
	}
	return nil
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError(name, "must be an integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
