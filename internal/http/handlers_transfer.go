package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"rentledger/internal/log"
	"rentledger/internal/transfer"
)

// handleImport ingests a CSV document from the request body. Row failures
// are reported alongside the imported count, they never abort the batch.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")

	var (
		result transfer.ImportResult
		err    error
	)
	switch kind {
	case "properties":
		result, err = transfer.ImportProperties(r.Context(), r.Body, s.ledger)
	case "revenues":
		result, err = transfer.ImportRevenues(r.Context(), r.Body, s.ledger)
	case "expenses":
		result, err = transfer.ImportExpenses(r.Context(), r.Body, s.ledger)
	default:
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown import kind %q", kind))
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")

	var write func(io.Writer) error
	switch kind {
	case "properties":
		properties, err := s.ledger.ListProperties(r.Context())
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		write = func(w io.Writer) error { return transfer.ExportProperties(w, properties) }
	case "revenues":
		revenues, err := s.ledger.ListRevenues(r.Context(), propertyFilter(r))
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		write = func(w io.Writer) error { return transfer.ExportRevenues(w, revenues) }
	case "expenses":
		expenses, err := s.ledger.ListExpenses(r.Context(), propertyFilter(r))
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		write = func(w io.Writer) error { return transfer.ExportExpenses(w, expenses) }
	case "summary":
		financials, err := s.analytics.AllPropertyFinancials(r.Context())
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		write = func(w io.Writer) error { return transfer.ExportFinancialSummary(w, financials) }
	default:
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown export kind %q", kind))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", transfer.ExportFilename(kind, time.Now())))
	if err := write(w); err != nil {
		s.logger.LogError(r.Context(), "CSV export failed", err, log.ComponentTransfer, log.OpExport, log.NewFields())
	}
}
