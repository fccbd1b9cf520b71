package http

import (
	"net/http"

	"evlog/internal/core"
	"evlog/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), owner, r.URL.Query().Get("month"))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "listing expenses failed",
			log.FieldOwner, owner, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var expense core.VariableExpense
	if err := decodeJSON(w, r, &expense); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	expense.OwnerID = owner

	created, err := s.svc.CreateExpense(r.Context(), expense)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteExpense(r.Context(), owner, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFixedExpenses(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	fx, err := s.svc.GetFixedExpenses(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fx)
}

func (s *Server) handlePutFixedExpenses(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var fx core.FixedExpenses
	if err := decodeJSON(w, r, &fx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fx.OwnerID = owner

	if err := s.svc.PutFixedExpenses(r.Context(), fx); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOwner(owner)

	saved, err := s.svc.GetFixedExpenses(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
