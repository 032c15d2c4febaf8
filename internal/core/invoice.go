package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueDays is the payment term applied to newly composed invoices.
const DueDays = 30

// DefaultTenantName is used when the property has no tenant on record.
const DefaultTenantName = "Tenant"

// SumAmounts totals the amounts of the given expenses.
func SumAmounts(expenses []Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// ApplyTotals recomputes the derived monetary fields from the expense lists
// and the rent snapshot. Totals are never stored independently of the lines.
func ApplyTotals(inv *Invoice) {
	inv.TotalChargeableExpenses = SumAmounts(inv.ChargeableExpenses)
	inv.TotalDeductibleExpenses = SumAmounts(inv.DeductibleExpenses)
	inv.GrossAmount = inv.MonthlyRent.Add(inv.TotalChargeableExpenses)
	inv.Deductions = inv.TotalDeductibleExpenses
	inv.NetAmount = inv.GrossAmount.Sub(inv.TotalDeductibleExpenses)
}

// InvoiceNumberPrefix is the month-scoped prefix shared by all invoice
// numbers issued in the month of at.
func InvoiceNumberPrefix(at time.Time) string {
	return fmt.Sprintf("INV-%d%02d-", at.Year(), int(at.Month()))
}

// InvoiceNumber formats the sequential invoice number for the given month.
func InvoiceNumber(at time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", InvoiceNumberPrefix(at), seq)
}

// ComposeInvoice builds a DRAFT invoice for one rent period. The expense
// slices are copied in as snapshots; seq is the invoice sequence used for the
// provisional number (the final number is assigned when the invoice is saved).
func ComposeInvoice(p Property, periodStart, periodEnd time.Time, chargeable, deductible []Expense, now time.Time, seq int) (Invoice, error) {
	if periodEnd.Before(periodStart) {
		return Invoice{}, ErrInvalidRentPeriod
	}

	tenant := DefaultTenantName
	if p.TenantName != nil && *p.TenantName != "" {
		tenant = *p.TenantName
	}

	inv := Invoice{
		ID:                 uuid.NewString(),
		PropertyID:         p.ID,
		TenantName:         tenant,
		InvoiceNumber:      InvoiceNumber(now, seq),
		InvoiceDate:        now,
		DueDate:            now.AddDate(0, 0, DueDays),
		MonthlyRent:        p.MonthlyRent,
		RentPeriodStart:    periodStart,
		RentPeriodEnd:      periodEnd,
		ChargeableExpenses: append([]Expense(nil), chargeable...),
		DeductibleExpenses: append([]Expense(nil), deductible...),
		Status:             StatusDraft,
	}
	ApplyTotals(&inv)
	return inv, nil
}

// CheckInvoiceTotals verifies the monetary invariants of a composed or
// loaded invoice.
func CheckInvoiceTotals(inv Invoice) error {
	if !inv.TotalChargeableExpenses.Equal(SumAmounts(inv.ChargeableExpenses)) {
		return fmt.Errorf("invoice %s: chargeable total does not match lines", inv.InvoiceNumber)
	}
	if !inv.TotalDeductibleExpenses.Equal(SumAmounts(inv.DeductibleExpenses)) {
		return fmt.Errorf("invoice %s: deductible total does not match lines", inv.InvoiceNumber)
	}
	if !inv.GrossAmount.Equal(inv.MonthlyRent.Add(inv.TotalChargeableExpenses)) {
		return fmt.Errorf("invoice %s: gross amount does not match rent plus charges", inv.InvoiceNumber)
	}
	if !inv.NetAmount.Equal(inv.GrossAmount.Sub(inv.TotalDeductibleExpenses)) {
		return fmt.Errorf("invoice %s: net amount does not match gross minus deductions", inv.InvoiceNumber)
	}
	return nil
}

// EffectiveStatus derives the read-time status. OVERDUE is computed here on
// every read rather than persisted, so it can never go stale.
func EffectiveStatus(inv Invoice, now time.Time) InvoiceStatus {
	if !inv.Status.Terminal() && inv.DueDate.Before(now) {
		return StatusOverdue
	}
	return inv.Status
}

// Overdue reports whether the invoice is past due and still collectible.
func Overdue(inv Invoice, now time.Time) bool {
	return EffectiveStatus(inv, now) == StatusOverdue
}

// Pending reports whether the invoice is issued and awaiting payment.
func Pending(inv Invoice, now time.Time) bool {
	switch EffectiveStatus(inv, now) {
	case StatusSent, StatusViewed, StatusOverdue:
		return true
	}
	return false
}

// TotalOutstanding sums the net amount of all pending invoices.
func TotalOutstanding(invoices []Invoice, now time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		if Pending(inv, now) {
			sum = sum.Add(inv.NetAmount)
		}
	}
	return sum
}
