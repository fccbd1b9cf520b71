package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"evlog/internal/core"
	"evlog/internal/store"
)

const (
	headerOwnerID    = "X-Owner-ID"
	headerOwnerEmail = "X-Owner-Email"

	maxBodyBytes = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrMissingOwner,
		core.ErrMissingLocation,
		core.ErrInvalidMode,
		core.ErrNegativeAmount,
		core.ErrNegativeEnergy,
		core.ErrInvalidRating,
		core.ErrNegativeReading,
		core.ErrInvalidTime,
		core.ErrInvalidCategory,
		core.ErrInvalidPayDay,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// ownerID extracts the acting owner from the request headers. The API
// sits behind an authenticating proxy that sets these headers.
func ownerID(r *http.Request) string {
	return r.Header.Get(headerOwnerID)
}

func ownerEmail(r *http.Request) string {
	return r.Header.Get(headerOwnerEmail)
}

// requireOwner writes a 401 and returns false when no owner header is
// present.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := ownerID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+headerOwnerID+" header")
		return "", false
	}
	return id, true
}
