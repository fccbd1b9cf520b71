package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"evlog/internal/cache"
	"evlog/internal/core"
	"evlog/internal/log"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := core.Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Plate:  strings.TrimSpace(q.Get("plate")),
		Month:  strings.TrimSpace(q.Get("month")),
	}

	view, err := s.svc.Ledger(r.Context(), owner, filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "listing records failed",
			log.FieldOwner, owner, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var rec core.ChargingRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.OwnerID = owner
	if email := ownerEmail(r); email != "" {
		rec.OwnerEmail = email
	}

	created, err := s.svc.CreateRecord(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	rec, err := s.svc.GetRecord(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var rec core.ChargingRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.ID = r.PathValue("id")
	rec.OwnerID = owner

	updated, err := s.svc.UpdateRecord(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteRecord(r.Context(), owner, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	text, err := s.svc.ShareText(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	key := cache.Key("stats", owner)
	if view, ok := s.statsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	view, err := s.svc.Stats(r.Context(), owner)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "computing stats failed",
			log.FieldOwner, owner, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	s.statsCache.Set(key, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	ref := time.Now().In(s.svc.Location())
	if month := r.URL.Query().Get("month"); month != "" {
		parsed, err := time.ParseInLocation("2006-01", month, s.svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		ref = parsed
	}

	breakdown, err := s.svc.Breakdown(r.Context(), owner, ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kwh, err := strconv.ParseFloat(q.Get("kwh"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kwh")
		return
	}
	rate, err := strconv.ParseFloat(q.Get("rate"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cost": core.QuickEstimate(kwh, rate)})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	reminders, err := s.svc.Reminders(r.Context(), owner, time.Now().In(s.svc.Location()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleFeaturedFeed(w http.ResponseWriter, r *http.Request) {
	if items, ok := s.feedCache.Get(feedCacheKey); ok {
		writeJSON(w, http.StatusOK, items)
		return
	}

	items, err := s.svc.FeaturedFeed(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "building featured feed failed", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	s.feedCache.Set(feedCacheKey, items)
	writeJSON(w, http.StatusOK, items)
}
