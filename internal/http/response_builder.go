package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"rentledger/internal/backup"
	"rentledger/internal/core"
	"rentledger/internal/log"
)

// errorBody is the uniform error payload of the API.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondServiceError translates domain errors into HTTP statuses. Anything
// unrecognized is reported as a 500 without leaking internals.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, log.NewFields())
		respondError(w, status, "internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrPropertyNotFound),
		errors.Is(err, core.ErrRevenueNotFound),
		errors.Is(err, core.ErrExpenseNotFound),
		errors.Is(err, core.ErrInvoiceNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrExpenseAlreadyBilled):
		return http.StatusConflict

	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyAddress),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrInvalidEnum),
		errors.Is(err, core.ErrInvalidRentPeriod),
		errors.Is(err, core.ErrEmptyPropertyID),
		errors.Is(err, backup.ErrVersionMismatch),
		errors.Is(err, backup.ErrTotalsMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
