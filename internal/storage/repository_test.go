package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ptr[T any](v T) *T { return &v }

func seedProperty(t *testing.T, repo *SQLiteRepository) core.Property {
	t.Helper()
	p := core.Property{
		ID:            "prop-1",
		Name:          "Elm Street Duplex",
		Address:       "12 Elm St",
		Type:          core.PropertyHouse,
		PurchasePrice: decimal.NewFromInt(250000),
		MonthlyRent:   decimal.NewFromInt(2200),
		DateAcquired:  time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
		TenantName:    ptr("John Smith"),
		Latitude:      ptr(45.46),
	}
	if err := repo.CreateProperty(context.Background(), p); err != nil {
		t.Fatalf("create property: %v", err)
	}
	return p
}

func seedExpense(t *testing.T, repo *SQLiteRepository, id string, typ core.ExpenseType) core.Expense {
	t.Helper()
	e := core.Expense{
		ID:          id,
		PropertyID:  "prop-1",
		Amount:      decimal.NewFromInt(150),
		Date:        time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		Category:    core.CategoryRepairs,
		Description: "Broken window",
		ExpenseType: typ,
	}
	if err := repo.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("create expense %s: %v", id, err)
	}
	return e
}

func TestPropertyRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)

	got, err := repo.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if got.Name != p.Name || got.Type != p.Type || !got.MonthlyRent.Equal(p.MonthlyRent) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TenantName == nil || *got.TenantName != "John Smith" {
		t.Fatalf("tenant name lost: %v", got.TenantName)
	}
	if got.Description != nil || got.LeaseStartDate != nil {
		t.Fatalf("unset optionals should stay nil")
	}
	if got.Latitude == nil || *got.Latitude != 45.46 {
		t.Fatalf("latitude lost: %v", got.Latitude)
	}
	if !got.DateAcquired.Equal(p.DateAcquired) {
		t.Fatalf("date acquired = %s", got.DateAcquired)
	}

	got.MonthlyRent = decimal.NewFromInt(2400)
	got.TenantName = nil
	if err := repo.UpdateProperty(ctx, got); err != nil {
		t.Fatalf("update property: %v", err)
	}
	updated, err := repo.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if !updated.MonthlyRent.Equal(decimal.NewFromInt(2400)) || updated.TenantName != nil {
		t.Fatalf("update not applied: %+v", updated)
	}

	if _, err := repo.GetProperty(ctx, "nope"); !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("want ErrPropertyNotFound, got %v", err)
	}
	if err := repo.UpdateProperty(ctx, core.Property{ID: "nope"}); !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("want ErrPropertyNotFound on update, got %v", err)
	}
}

func TestRevenueRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProperty(t, repo)

	rev := core.Revenue{
		ID:            "rev-1",
		PropertyID:    "prop-1",
		Amount:        decimal.RequireFromString("2200.50"),
		Date:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:          core.RevenueRent,
		PaymentMethod: ptr("bank_transfer"),
	}
	if err := repo.CreateRevenue(ctx, rev); err != nil {
		t.Fatalf("create revenue: %v", err)
	}

	got, err := repo.GetRevenue(ctx, "rev-1")
	if err != nil {
		t.Fatalf("get revenue: %v", err)
	}
	if !got.Amount.Equal(rev.Amount) || got.Type != core.RevenueRent {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.PaymentMethod == nil || *got.PaymentMethod != "bank_transfer" {
		t.Fatalf("payment method lost")
	}

	if err := repo.DeleteRevenue(ctx, "rev-1"); err != nil {
		t.Fatalf("delete revenue: %v", err)
	}
	if err := repo.DeleteRevenue(ctx, "rev-1"); !errors.Is(err, core.ErrRevenueNotFound) {
		t.Fatalf("want ErrRevenueNotFound, got %v", err)
	}
}

func TestCascadePropertyDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)
	seedExpense(t, repo, "exp-1", core.TenantDamages)
	if err := repo.CreateRevenue(ctx, core.Revenue{
		ID: "rev-1", PropertyID: p.ID,
		Amount: decimal.NewFromInt(2200),
		Date:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:   core.RevenueRent,
	}); err != nil {
		t.Fatalf("create revenue: %v", err)
	}

	if err := repo.DeleteProperty(ctx, p.ID); err != nil {
		t.Fatalf("delete property: %v", err)
	}

	if _, err := repo.GetProperty(ctx, p.ID); !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("property should be gone, got %v", err)
	}
	if _, err := repo.GetRevenue(ctx, "rev-1"); !errors.Is(err, core.ErrRevenueNotFound) {
		t.Fatalf("revenue should be gone, got %v", err)
	}
	if _, err := repo.GetExpense(ctx, "exp-1"); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expense should be gone, got %v", err)
	}

	if err := repo.DeleteProperty(ctx, p.ID); !errors.Is(err, core.ErrPropertyNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestSaveInvoiceConsumesExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)
	charge := seedExpense(t, repo, "exp-1", core.TenantDamages)
	deduct := seedExpense(t, repo, "exp-2", core.TenantPaidUtilities)

	now := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	inv, err := core.ComposeInvoice(p, now.AddDate(0, -1, 0), now,
		[]core.Expense{charge}, []core.Expense{deduct}, now, 1)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	saved, err := repo.SaveInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("save invoice: %v", err)
	}
	if saved.InvoiceNumber != "INV-202502-0001" {
		t.Fatalf("number = %s", saved.InvoiceNumber)
	}

	got, err := repo.GetExpense(ctx, "exp-1")
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if !got.Billed() || *got.InvoiceID != saved.ID {
		t.Fatalf("expense not consumed: %+v", got)
	}

	unbilled, err := repo.ListUnbilledExpenses(ctx, p.ID)
	if err != nil {
		t.Fatalf("list unbilled: %v", err)
	}
	if len(unbilled) != 0 {
		t.Fatalf("unbilled = %d, want 0", len(unbilled))
	}

	loaded, err := repo.GetInvoice(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if err := core.CheckInvoiceTotals(loaded); err != nil {
		t.Fatalf("loaded invoice invariants: %v", err)
	}
	if len(loaded.ChargeableExpenses) != 1 || loaded.ChargeableExpenses[0].ID != "exp-1" {
		t.Fatalf("chargeable lines lost: %+v", loaded.ChargeableExpenses)
	}
}

func TestSaveInvoiceRejectsBilledExpense(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)
	charge := seedExpense(t, repo, "exp-1", core.TenantDamages)

	now := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	first, _ := core.ComposeInvoice(p, now.AddDate(0, -1, 0), now, []core.Expense{charge}, nil, now, 1)
	if _, err := repo.SaveInvoice(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second, _ := core.ComposeInvoice(p, now.AddDate(0, -1, 0), now, []core.Expense{charge}, nil, now, 2)
	if _, err := repo.SaveInvoice(ctx, second); !errors.Is(err, core.ErrExpenseAlreadyBilled) {
		t.Fatalf("want ErrExpenseAlreadyBilled, got %v", err)
	}

	count, err := repo.CountInvoices(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("failed save must not persist an invoice, count = %d", count)
	}
}

func TestSequentialInvoiceNumbers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, want := range []string{"INV-202503-0001", "INV-202503-0002", "INV-202503-0003"} {
		inv, err := core.ComposeInvoice(p, now, now.AddDate(0, 1, 0), nil, nil, now, 0)
		if err != nil {
			t.Fatalf("compose %d: %v", i, err)
		}
		saved, err := repo.SaveInvoice(ctx, inv)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if saved.InvoiceNumber != want {
			t.Fatalf("invoice %d number = %s, want %s", i, saved.InvoiceNumber, want)
		}
	}
}

func TestDeleteInvoiceReleasesExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)
	charge := seedExpense(t, repo, "exp-1", core.TenantDamages)

	now := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	inv, _ := core.ComposeInvoice(p, now.AddDate(0, -1, 0), now, []core.Expense{charge}, nil, now, 1)
	saved, err := repo.SaveInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.DeleteInvoice(ctx, saved.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	got, err := repo.GetExpense(ctx, "exp-1")
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Billed() {
		t.Fatalf("expense should be released: %+v", got)
	}
	if err := repo.DeleteInvoice(ctx, saved.ID); !errors.Is(err, core.ErrInvoiceNotFound) {
		t.Fatalf("want ErrInvoiceNotFound, got %v", err)
	}
}

func TestUpdateInvoiceStatusFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProperty(t, repo)

	now := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	inv, _ := core.ComposeInvoice(p, now.AddDate(0, -1, 0), now, nil, nil, now, 1)
	saved, err := repo.SaveInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	paid := now.AddDate(0, 0, 5)
	saved.Status = core.StatusPaid
	saved.PaidDate = &paid
	saved.PaymentMethod = ptr("cash")
	if err := repo.UpdateInvoice(ctx, saved); err != nil {
		t.Fatalf("update invoice: %v", err)
	}

	got, err := repo.GetInvoice(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if got.Status != core.StatusPaid || got.PaidDate == nil || !got.PaidDate.Equal(paid) {
		t.Fatalf("status update lost: %+v", got)
	}
}

func TestReplaceAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProperty(t, repo)
	seedExpense(t, repo, "exp-old", core.LandlordRepairs)

	snap := core.Snapshot{
		Properties: []core.Property{{
			ID: "prop-2", Name: "Oak Flat", Address: "3 Oak Rd",
			Type:          core.PropertyApartment,
			PurchasePrice: decimal.NewFromInt(180000),
			MonthlyRent:   decimal.NewFromInt(1500),
			DateAcquired:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:      true,
		}},
		Expenses: []core.Expense{{
			ID: "exp-new", PropertyID: "prop-2",
			Amount:      decimal.NewFromInt(80),
			Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Category:    core.CategoryUtilities,
			Description: "Water bill",
			ExpenseType: core.LandlordUtilities,
		}},
	}
	if err := repo.ReplaceAll(ctx, snap); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	properties, err := repo.ListProperties(ctx)
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	if len(properties) != 1 || properties[0].ID != "prop-2" {
		t.Fatalf("old content survived: %+v", properties)
	}
	if _, err := repo.GetExpense(ctx, "exp-old"); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("old expense should be gone, got %v", err)
	}
	if _, err := repo.GetExpense(ctx, "exp-new"); err != nil {
		t.Fatalf("restored expense missing: %v", err)
	}
}
