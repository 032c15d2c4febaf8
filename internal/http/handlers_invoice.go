package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
	"rentledger/internal/services"
)

type createInvoiceRequest struct {
	PropertyID  string    `json:"propertyId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`

	// Omitting an id list bills every eligible expense of that family.
	ChargeableExpenseIDs []string       `json:"chargeableExpenseIds,omitempty"`
	DeductibleExpenseIDs []string       `json:"deductibleExpenseIds,omitempty"`
	ManualChargeable     []core.Expense `json:"manualChargeable,omitempty"`
	ManualDeductible     []core.Expense `json:"manualDeductible,omitempty"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PropertyID == "" {
		respondError(w, http.StatusUnprocessableEntity, core.ErrEmptyPropertyID.Error())
		return
	}

	inv, err := s.invoices.CreateInvoiceFromDraft(r.Context(), services.InvoiceDraft{
		PropertyID:       req.PropertyID,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		ChargeableIDs:    req.ChargeableExpenseIDs,
		DeductibleIDs:    req.DeductibleExpenseIDs,
		ManualChargeable: req.ManualChargeable,
		ManualDeductible: req.ManualDeductible,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.ListInvoices(r.Context(), propertyFilter(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.GetInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.invoices.DeleteInvoice(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invoiceStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req invoiceStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := core.ParseInvoiceStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "unrecognized invoice status")
		return
	}

	inv, err := s.invoices.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

type markPaidRequest struct {
	PaymentMethod *string `json:"paymentMethod,omitempty"`
}

func (s *Server) handleInvoicePaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := s.invoices.MarkPaid(r.Context(), r.PathValue("id"), req.PaymentMethod)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handlePendingInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.PendingInvoices(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleOverdueInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.OverdueInvoices(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	respondJSON(w, http.StatusOK, invoices)
}

type outstandingResponse struct {
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
}

func (s *Server) handleTotalOutstanding(w http.ResponseWriter, r *http.Request) {
	total, err := s.invoices.TotalOutstanding(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, outstandingResponse{TotalOutstanding: total})
}
