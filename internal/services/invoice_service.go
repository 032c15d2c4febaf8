package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/amqp"
	"rentledger/internal/core"
	"rentledger/internal/storage"
)

// InvoiceService drives the invoice lifecycle: eligibility, composition,
// atomic save, status changes and deletion.
type InvoiceService struct {
	store    *storage.SQLiteRepository
	events   *amqp.Client
	onChange func()
	now      func() time.Time
}

func NewInvoiceService(store *storage.SQLiteRepository, events *amqp.Client) *InvoiceService {
	return &InvoiceService{store: store, events: events, now: time.Now}
}

func (s *InvoiceService) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *InvoiceService) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *InvoiceService) publish(ctx context.Context, event, entityID, propertyID string) {
	if err := s.events.PublishEvent(ctx, event, entityID, propertyID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish invoice event",
			"event", event, "entity_id", entityID, "error", err)
	}
}

// EligibleExpenses returns the property's unbilled expenses split into the
// chargeable and deductible families. Landlord-borne expenses never appear.
func (s *InvoiceService) EligibleExpenses(ctx context.Context, propertyID string) (chargeable, deductible []core.Expense, err error) {
	unbilled, err := s.store.ListUnbilledExpenses(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range unbilled {
		switch {
		case e.ExpenseType.Chargeable():
			chargeable = append(chargeable, e)
		case e.ExpenseType.Deductible():
			deductible = append(deductible, e)
		}
	}
	return chargeable, deductible, nil
}

// InvoiceDraft selects what a composed invoice bills. Nil ID lists mean
// every eligible expense of the family; manual lines are ad-hoc entries that
// live only in the invoice snapshot and never consume stored expenses.
type InvoiceDraft struct {
	PropertyID       string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	ChargeableIDs    []string
	DeductibleIDs    []string
	ManualChargeable []core.Expense
	ManualDeductible []core.Expense
}

// CreateInvoice composes and persists an invoice for one rent period,
// consuming every eligible unbilled expense of the property.
func (s *InvoiceService) CreateInvoice(ctx context.Context, propertyID string, periodStart, periodEnd time.Time) (core.Invoice, error) {
	return s.CreateInvoiceFromDraft(ctx, InvoiceDraft{
		PropertyID:  propertyID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
}

// CreateInvoiceFromDraft composes and persists an invoice from an explicit
// selection of eligible expenses plus optional manual lines.
func (s *InvoiceService) CreateInvoiceFromDraft(ctx context.Context, draft InvoiceDraft) (core.Invoice, error) {
	p, err := s.store.GetProperty(ctx, draft.PropertyID)
	if err != nil {
		return core.Invoice{}, err
	}

	chargeable, deductible, err := s.EligibleExpenses(ctx, draft.PropertyID)
	if err != nil {
		return core.Invoice{}, err
	}
	if draft.ChargeableIDs != nil {
		if chargeable, err = selectExpenses(chargeable, draft.ChargeableIDs); err != nil {
			return core.Invoice{}, err
		}
	}
	if draft.DeductibleIDs != nil {
		if deductible, err = selectExpenses(deductible, draft.DeductibleIDs); err != nil {
			return core.Invoice{}, err
		}
	}

	now := s.now()
	manualChargeable, err := manualLines(draft.ManualChargeable, draft.PropertyID, now)
	if err != nil {
		return core.Invoice{}, err
	}
	manualDeductible, err := manualLines(draft.ManualDeductible, draft.PropertyID, now)
	if err != nil {
		return core.Invoice{}, err
	}
	chargeable = append(chargeable, manualChargeable...)
	deductible = append(deductible, manualDeductible...)

	count, err := s.store.CountInvoices(ctx)
	if err != nil {
		return core.Invoice{}, err
	}

	inv, err := core.ComposeInvoice(p, draft.PeriodStart, draft.PeriodEnd, chargeable, deductible, now, count+1)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("compose invoice: %w", err)
	}

	saved, err := s.store.SaveInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, err
	}

	s.publish(ctx, amqp.EventInvoiceCreated, saved.ID, saved.PropertyID)
	s.notifyChange()
	return saved, nil
}

// selectExpenses keeps the eligible expenses named by ids, in id order.
func selectExpenses(eligible []core.Expense, ids []string) ([]core.Expense, error) {
	byID := make(map[string]core.Expense, len(eligible))
	for _, e := range eligible {
		byID[e.ID] = e
	}

	selected := make([]core.Expense, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("expense %s not eligible: %w", id, core.ErrExpenseNotFound)
		}
		selected = append(selected, e)
	}
	return selected, nil
}

// manualLines validates ad-hoc invoice lines. Their id stays empty to mark
// them snapshot-only.
func manualLines(lines []core.Expense, propertyID string, now time.Time) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(lines))
	for _, l := range lines {
		l.ID = ""
		l.PropertyID = propertyID
		l.InvoiceID = nil
		if l.Date.IsZero() {
			l.Date = now
		}
		if !l.Amount.IsPositive() {
			return nil, fmt.Errorf("manual line %q: %w", l.Description, core.ErrInvalidAmount)
		}
		if l.Description == "" {
			return nil, core.ErrEmptyDescription
		}
		out = append(out, l)
	}
	return out, nil
}

// GetInvoice returns the invoice with its read-time status applied.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.Status = core.EffectiveStatus(inv, s.now())
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, propertyID string) ([]core.Invoice, error) {
	var (
		invoices []core.Invoice
		err      error
	)
	if propertyID != "" {
		invoices, err = s.store.ListInvoicesByProperty(ctx, propertyID)
	} else {
		invoices, err = s.store.ListInvoices(ctx)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range invoices {
		invoices[i].Status = core.EffectiveStatus(invoices[i], now)
	}
	return invoices, nil
}

// UpdateStatus moves the invoice to the given status. Marking paid stamps
// the payment date; any other transition just records the new state.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id string, status core.InvoiceStatus) (core.Invoice, error) {
	if !status.Valid() || status == core.StatusOverdue {
		return core.Invoice{}, core.ErrInvalidEnum
	}

	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}

	inv.Status = status
	if status == core.StatusPaid && inv.PaidDate == nil {
		paid := s.now()
		inv.PaidDate = &paid
	}
	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return core.Invoice{}, err
	}

	if status == core.StatusPaid {
		s.publish(ctx, amqp.EventInvoicePaid, inv.ID, inv.PropertyID)
	}
	s.notifyChange()
	return inv, nil
}

// MarkPaid records payment with an optional method.
func (s *InvoiceService) MarkPaid(ctx context.Context, id string, paymentMethod *string) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}

	paid := s.now()
	inv.Status = core.StatusPaid
	inv.PaidDate = &paid
	if paymentMethod != nil {
		inv.PaymentMethod = paymentMethod
	}
	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return core.Invoice{}, err
	}

	s.publish(ctx, amqp.EventInvoicePaid, inv.ID, inv.PropertyID)
	s.notifyChange()
	return inv, nil
}

// DeleteInvoice removes the invoice and makes its expenses billable again.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

// PendingInvoices returns invoices awaiting payment, overdue ones included.
func (s *InvoiceService) PendingInvoices(ctx context.Context) ([]core.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var pending []core.Invoice
	for _, inv := range invoices {
		if core.Pending(inv, now) {
			inv.Status = core.EffectiveStatus(inv, now)
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// OverdueInvoices returns invoices past due and still collectible.
func (s *InvoiceService) OverdueInvoices(ctx context.Context) ([]core.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var overdue []core.Invoice
	for _, inv := range invoices {
		if core.Overdue(inv, now) {
			inv.Status = core.StatusOverdue
			overdue = append(overdue, inv)
		}
	}
	return overdue, nil
}

// TotalOutstanding sums the net amount of all pending invoices.
func (s *InvoiceService) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.TotalOutstanding(invoices, s.now()), nil
}
