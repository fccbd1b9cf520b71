package http

import (
	"net/http"

	"evlog/internal/log"
)

func (s *Server) handleFleetOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.FleetOverview(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "building fleet overview failed", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type setFeaturedRequest struct {
	Featured bool `json:"featured"`
}

func (s *Server) handleSetFeatured(w http.ResponseWriter, r *http.Request) {
	var req setFeaturedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := s.svc.SetFeatured(r.Context(), id, req.Featured); err != nil {
		writeServiceError(w, err)
		return
	}
	s.feedCache.Delete(feedCacheKey)
	s.logger.InfoContext(r.Context(), "record featured flag updated",
		log.FieldRecordID, id, "featured", req.Featured)
	w.WriteHeader(http.StatusNoContent)
}
