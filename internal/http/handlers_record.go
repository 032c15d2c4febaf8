package http

import (
	"net/http"

	"rentledger/internal/core"
)

func (s *Server) handleCreateRevenue(w http.ResponseWriter, r *http.Request) {
	var rev core.Revenue
	if err := decodeBody(r, &rev); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.AddRevenue(r.Context(), rev)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRevenues(w http.ResponseWriter, r *http.Request) {
	revenues, err := s.ledger.ListRevenues(r.Context(), propertyFilter(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if revenues == nil {
		revenues = []core.Revenue{}
	}
	respondJSON(w, http.StatusOK, revenues)
}

func (s *Server) handleGetRevenue(w http.ResponseWriter, r *http.Request) {
	rev, err := s.ledger.GetRevenue(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

func (s *Server) handleUpdateRevenue(w http.ResponseWriter, r *http.Request) {
	var rev core.Revenue
	if err := decodeBody(r, &rev); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rev.ID = r.PathValue("id")

	if err := s.ledger.UpdateRevenue(r.Context(), rev); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

func (s *Server) handleDeleteRevenue(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRevenue(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledger.ListExpenses(r.Context(), propertyFilter(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.ID = r.PathValue("id")

	if err := s.ledger.UpdateExpense(r.Context(), e); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	// Re-read so the response carries the stored billing state, which a
	// record edit cannot change.
	updated, err := s.ledger.GetExpense(r.Context(), e.ID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
