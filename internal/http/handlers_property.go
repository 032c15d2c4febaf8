package http

import (
	"net/http"

	"rentledger/internal/core"
)

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var p core.Property
	if err := decodeBody(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.CreateProperty(r.Context(), p)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := s.ledger.ListProperties(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if properties == nil {
		properties = []core.Property{}
	}
	respondJSON(w, http.StatusOK, properties)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.GetProperty(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var p core.Property
	if err := decodeBody(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = r.PathValue("id")

	if err := s.ledger.UpdateProperty(r.Context(), p); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteProperty(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePropertyFinancials(w http.ResponseWriter, r *http.Request) {
	f, err := s.analytics.PropertyFinancials(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// eligibleExpensesResponse groups the unbilled expenses an invoice for the
// property would consume.
type eligibleExpensesResponse struct {
	Chargeable []core.Expense `json:"chargeable"`
	Deductible []core.Expense `json:"deductible"`
}

func (s *Server) handleEligibleExpenses(w http.ResponseWriter, r *http.Request) {
	propertyID := r.PathValue("id")
	if _, err := s.ledger.GetProperty(r.Context(), propertyID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	chargeable, deductible, err := s.invoices.EligibleExpenses(r.Context(), propertyID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if chargeable == nil {
		chargeable = []core.Expense{}
	}
	if deductible == nil {
		deductible = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, eligibleExpensesResponse{Chargeable: chargeable, Deductible: deductible})
}
