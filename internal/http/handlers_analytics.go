package http

import (
	"net/http"

	"rentledger/internal/core"
)

func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.PortfolioSummary(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAllFinancials(w http.ResponseWriter, r *http.Request) {
	financials, err := s.analytics.AllPropertyFinancials(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if financials == nil {
		financials = []core.PropertyFinancials{}
	}
	respondJSON(w, http.StatusOK, financials)
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.analytics.MonthlyTrend(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if trend == nil {
		trend = []core.MonthlyTotals{}
	}
	respondJSON(w, http.StatusOK, trend)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.analytics.ExpensesByCategory(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = []core.CategoryAmount{}
	}
	respondJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleRevenuesByType(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.analytics.RevenuesByType(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = []core.CategoryAmount{}
	}
	respondJSON(w, http.StatusOK, breakdown)
}
