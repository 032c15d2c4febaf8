package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
	"rentledger/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func seedProperty(t *testing.T, ledger *LedgerService) core.Property {
	t.Helper()
	p, err := ledger.CreateProperty(context.Background(), core.Property{
		Name:          "Elm Street Duplex",
		Address:       "12 Elm St",
		Type:          core.PropertyHouse,
		PurchasePrice: decimal.NewFromInt(250000),
		MonthlyRent:   decimal.NewFromInt(2200),
		DateAcquired:  time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
		TenantName:    ptr("John Smith"),
	})
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	return p
}

func TestCreatePropertyAssignsID(t *testing.T) {
	ledger := NewLedgerService(newTestStore(t), nil)
	p := seedProperty(t, ledger)
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := ledger.GetProperty(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if got.Name != p.Name {
		t.Fatalf("name = %s", got.Name)
	}
}

func TestCreatePropertyRejectsInvalid(t *testing.T) {
	ledger := NewLedgerService(newTestStore(t), nil)
	_, err := ledger.CreateProperty(context.Background(), core.Property{Name: "No address"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAddRevenueUnknownProperty(t *testing.T) {
	ledger := NewLedgerService(newTestStore(t), nil)
	_, err := ledger.AddRevenue(context.Background(), core.Revenue{
		PropertyID: "ghost",
		Amount:     decimal.NewFromInt(100),
		Date:       time.Now(),
		Type:       core.RevenueRent,
	})
	if !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("want ErrPropertyNotFound, got %v", err)
	}
}

func TestAddExpenseClassifies(t *testing.T) {
	ledger := NewLedgerService(newTestStore(t), nil)
	p := seedProperty(t, ledger)
	ctx := context.Background()

	tenantPaid, err := ledger.AddExpense(ctx, core.Expense{
		PropertyID:   p.ID,
		Amount:       decimal.NewFromInt(60),
		Date:         time.Now(),
		Category:     core.CategoryRepairs,
		Description:  "Fixed the door",
		PaidByTenant: ptr(true),
	})
	if err != nil {
		t.Fatalf("add tenant expense: %v", err)
	}
	if tenantPaid.ExpenseType != core.TenantPaidRepairs {
		t.Fatalf("type = %s, want tenant_paid_repairs", tenantPaid.ExpenseType)
	}

	landlordPaid, err := ledger.AddExpense(ctx, core.Expense{
		PropertyID:  p.ID,
		Amount:      decimal.NewFromInt(900),
		Date:        time.Now(),
		Category:    core.CategoryMortgage,
		Description: "Monthly installment",
	})
	if err != nil {
		t.Fatalf("add landlord expense: %v", err)
	}
	if landlordPaid.ExpenseType != core.LandlordPropertyTax {
		t.Fatalf("type = %s, want landlord_property_tax", landlordPaid.ExpenseType)
	}

	explicit, err := ledger.AddExpense(ctx, core.Expense{
		PropertyID:  p.ID,
		Amount:      decimal.NewFromInt(120),
		Date:        time.Now(),
		Category:    core.CategoryRepairs,
		Description: "Tenant broke it",
		ExpenseType: core.TenantDamages,
	})
	if err != nil {
		t.Fatalf("add explicit expense: %v", err)
	}
	if explicit.ExpenseType != core.TenantDamages {
		t.Fatalf("explicit type must be kept, got %s", explicit.ExpenseType)
	}
}

func TestMutationCallback(t *testing.T) {
	ledger := NewLedgerService(newTestStore(t), nil)
	changes := 0
	ledger.SetOnChange(func() { changes++ })

	p := seedProperty(t, ledger)
	if changes != 1 {
		t.Fatalf("changes after create = %d, want 1", changes)
	}
	if err := ledger.DeleteProperty(context.Background(), p.ID); err != nil {
		t.Fatalf("delete property: %v", err)
	}
	if changes != 2 {
		t.Fatalf("changes after delete = %d, want 2", changes)
	}
}

func seedInvoiceFixture(t *testing.T, store *storage.SQLiteRepository) (*LedgerService, *InvoiceService, core.Property) {
	t.Helper()
	ledger := NewLedgerService(store, nil)
	invoices := NewInvoiceService(store, nil)
	p := seedProperty(t, ledger)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{PropertyID: p.ID, Amount: decimal.NewFromInt(150), Date: time.Now(), Category: core.CategoryRepairs, Description: "Broken window", ExpenseType: core.TenantDamages},
		{PropertyID: p.ID, Amount: decimal.NewFromInt(40), Date: time.Now(), Category: core.CategoryUtilities, Description: "Water paid by tenant", ExpenseType: core.TenantPaidUtilities},
		{PropertyID: p.ID, Amount: decimal.NewFromInt(500), Date: time.Now(), Category: core.CategoryInsurance, Description: "Annual premium", ExpenseType: core.LandlordInsurance},
	} {
		if _, err := ledger.AddExpense(ctx, e); err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}
	return ledger, invoices, p
}

func TestCreateInvoiceConsumesEligible(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if len(inv.ChargeableExpenses) != 1 || len(inv.DeductibleExpenses) != 1 {
		t.Fatalf("lines = %d/%d, want 1/1",
			len(inv.ChargeableExpenses), len(inv.DeductibleExpenses))
	}
	// rent 2200 + 150 charge - 40 deduction
	if !inv.NetAmount.Equal(decimal.NewFromInt(2310)) {
		t.Fatalf("net = %s, want 2310", inv.NetAmount)
	}

	// Landlord-borne expense stays out and remains unbilled.
	chargeable, deductible, err := invoices.EligibleExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(chargeable) != 0 || len(deductible) != 0 {
		t.Fatalf("eligible after billing = %d/%d, want 0/0", len(chargeable), len(deductible))
	}

	// A second invoice for the same period finds nothing to bill.
	second, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("second invoice: %v", err)
	}
	if len(second.ChargeableExpenses) != 0 || !second.NetAmount.Equal(p.MonthlyRent) {
		t.Fatalf("second invoice should bill rent only: %+v", second)
	}
}

func TestInvoiceNumbersSurviveDeletion(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedgerService(store, nil)
	invoices := NewInvoiceService(store, nil)
	p := seedProperty(t, ledger)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	first, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("first invoice: %v", err)
	}
	second, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("second invoice: %v", err)
	}
	if err := invoices.DeleteInvoice(ctx, first.ID); err != nil {
		t.Fatalf("delete first invoice: %v", err)
	}

	// The freed number must not be reissued; the sequence keeps climbing.
	third, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("invoice after delete: %v", err)
	}
	if !strings.HasSuffix(third.InvoiceNumber, "-0003") {
		t.Fatalf("number = %s, want suffix -0003", third.InvoiceNumber)
	}
	if third.InvoiceNumber == second.InvoiceNumber || third.InvoiceNumber == first.InvoiceNumber {
		t.Fatalf("number %s reissued", third.InvoiceNumber)
	}
}

func TestUpdateExpenseKeepsBillingState(t *testing.T) {
	store := newTestStore(t)
	ledger, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	billed := inv.ChargeableExpenses[0]

	edited := billed
	edited.InvoiceID = nil
	edited.Description = "Broken window, frame repainted"
	if err := ledger.UpdateExpense(ctx, edited); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	got, err := ledger.GetExpense(ctx, billed.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Description != edited.Description {
		t.Fatalf("description = %s", got.Description)
	}
	if got.InvoiceID == nil || *got.InvoiceID != inv.ID {
		t.Fatalf("billing marker lost on update: %+v", got.InvoiceID)
	}

	chargeable, _, err := invoices.EligibleExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(chargeable) != 0 {
		t.Fatalf("billed expense became eligible again: %+v", chargeable)
	}
}

func TestInvoiceDraftSelectionAndManualLines(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	chargeable, _, err := invoices.EligibleExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoiceFromDraft(ctx, InvoiceDraft{
		PropertyID:    p.ID,
		PeriodStart:   start,
		PeriodEnd:     start.AddDate(0, 1, 0),
		ChargeableIDs: []string{chargeable[0].ID},
		DeductibleIDs: []string{},
		ManualChargeable: []core.Expense{{
			Description: "Key replacement",
			Amount:      decimal.NewFromInt(25),
			Category:    core.CategoryRepairs,
		}},
	})
	if err != nil {
		t.Fatalf("create from draft: %v", err)
	}

	if len(inv.ChargeableExpenses) != 2 || len(inv.DeductibleExpenses) != 0 {
		t.Fatalf("lines = %d/%d, want 2/0",
			len(inv.ChargeableExpenses), len(inv.DeductibleExpenses))
	}
	// rent 2200 + damages 150 + manual 25, no deductions selected
	if !inv.NetAmount.Equal(decimal.NewFromInt(2375)) {
		t.Fatalf("net = %s, want 2375", inv.NetAmount)
	}
	if inv.ChargeableExpenses[1].ID != "" {
		t.Fatalf("manual line must stay snapshot-only, got id %s", inv.ChargeableExpenses[1].ID)
	}

	// The unselected deductible expense stays eligible for the next invoice.
	chargeableAfter, deductibleAfter, err := invoices.EligibleExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("eligible after draft: %v", err)
	}
	if len(chargeableAfter) != 0 || len(deductibleAfter) != 1 {
		t.Fatalf("eligible after draft = %d/%d, want 0/1",
			len(chargeableAfter), len(deductibleAfter))
	}
}

func TestInvoiceDraftRejectsBadInput(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	draft := InvoiceDraft{
		PropertyID:    p.ID,
		PeriodStart:   start,
		PeriodEnd:     start.AddDate(0, 1, 0),
		ChargeableIDs: []string{"ghost"},
	}
	if _, err := invoices.CreateInvoiceFromDraft(ctx, draft); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("want ErrExpenseNotFound for unknown selection, got %v", err)
	}

	draft.ChargeableIDs = nil
	draft.ManualChargeable = []core.Expense{{Description: "Free repair", Amount: decimal.Zero}}
	if _, err := invoices.CreateInvoiceFromDraft(ctx, draft); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount for zero manual line, got %v", err)
	}
}

func TestUpdateStatusPaid(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	paid, err := invoices.UpdateStatus(ctx, inv.ID, core.StatusPaid)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != core.StatusPaid || paid.PaidDate == nil {
		t.Fatalf("paid invoice = %+v", paid)
	}

	if _, err := invoices.UpdateStatus(ctx, inv.ID, core.StatusOverdue); !errors.Is(err, core.ErrInvalidEnum) {
		t.Fatalf("overdue must not be storable, got %v", err)
	}
}

func TestOverdueDerivedOnRead(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if _, err := invoices.UpdateStatus(ctx, inv.ID, core.StatusSent); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	invoices.now = func() time.Time { return inv.DueDate.AddDate(0, 0, 1) }

	got, err := invoices.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if got.Status != core.StatusOverdue {
		t.Fatalf("status = %s, want overdue", got.Status)
	}

	overdue, err := invoices.OverdueInvoices(ctx)
	if err != nil {
		t.Fatalf("overdue list: %v", err)
	}
	if len(overdue) != 1 {
		t.Fatalf("overdue = %d, want 1", len(overdue))
	}

	outstanding, err := invoices.TotalOutstanding(ctx)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if !outstanding.Equal(inv.NetAmount) {
		t.Fatalf("outstanding = %s, want %s", outstanding, inv.NetAmount)
	}
}

func TestDeleteInvoiceRestoresEligibility(t *testing.T) {
	store := newTestStore(t)
	_, invoices, p := seedInvoiceFixture(t, store)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoices.CreateInvoice(ctx, p.ID, start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if err := invoices.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	chargeable, deductible, err := invoices.EligibleExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(chargeable) != 1 || len(deductible) != 1 {
		t.Fatalf("eligible after delete = %d/%d, want 1/1", len(chargeable), len(deductible))
	}
}

func TestAnalyticsCacheInvalidation(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedgerService(store, nil)
	analytics := NewAnalyticsService(store)
	ledger.SetOnChange(analytics.Invalidate)
	ctx := context.Background()

	p := seedProperty(t, ledger)

	first, err := analytics.PortfolioSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !first.TotalRevenue.IsZero() {
		t.Fatalf("revenue = %s, want 0", first.TotalRevenue)
	}

	if _, err := ledger.AddRevenue(ctx, core.Revenue{
		PropertyID: p.ID,
		Amount:     decimal.NewFromInt(2200),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:       core.RevenueRent,
	}); err != nil {
		t.Fatalf("add revenue: %v", err)
	}

	second, err := analytics.PortfolioSummary(ctx)
	if err != nil {
		t.Fatalf("summary after mutation: %v", err)
	}
	if !second.TotalRevenue.Equal(decimal.NewFromInt(2200)) {
		t.Fatalf("stale summary served: revenue = %s", second.TotalRevenue)
	}

	f, err := analytics.PropertyFinancials(ctx, p.ID)
	if err != nil {
		t.Fatalf("financials: %v", err)
	}
	if !f.TotalRevenue.Equal(decimal.NewFromInt(2200)) {
		t.Fatalf("financials revenue = %s", f.TotalRevenue)
	}
	if _, err := analytics.PropertyFinancials(ctx, "ghost"); !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("want ErrPropertyNotFound, got %v", err)
	}
}
