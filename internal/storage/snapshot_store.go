package storage

import (
	"context"
	"fmt"
	"log/slog"

	"rentledger/internal/core"
)

// Snapshot loads the three ledger collections in one pass, the input for
// analytics and backups.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	properties, err := r.ListProperties(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	revenues, err := r.ListRevenues(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	expenses, err := r.ListExpenses(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{Properties: properties, Revenues: revenues, Expenses: expenses}, nil
}

// ReplaceAll swaps the entire store content for the given snapshot in one
// transaction. Used by restore; invoices are cleared because the backup
// document does not carry them.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace all: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"invoices", "expenses", "revenues", "properties"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Properties {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (`+propertyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Address, string(p.Type),
			p.PurchasePrice.String(), p.MonthlyRent.String(), fmtTime(p.DateAcquired),
			p.IsActive, nullStr(p.Description), nullStr(p.TenantName),
			nullTime(p.LeaseStartDate), nullTime(p.LeaseEndDate),
			nullFloat(p.Latitude), nullFloat(p.Longitude)); err != nil {
			return fmt.Errorf("restore property %s: %w", p.ID, err)
		}
	}
	for _, rev := range snap.Revenues {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO revenues (`+revenueColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rev.ID, rev.PropertyID, rev.Amount.String(), fmtTime(rev.Date), string(rev.Type),
			nullStr(rev.Description), nullStr(rev.Payer),
			nullStr(rev.PaymentMethod), nullStr(rev.ReferenceNumber)); err != nil {
			return fmt.Errorf("restore revenue %s: %w", rev.ID, err)
		}
	}
	for _, e := range snap.Expenses {
		var reimb any
		if e.ReimbursementStatus != nil {
			reimb = string(*e.ReimbursementStatus)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (`+expenseColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.PropertyID, e.Amount.String(), fmtTime(e.Date), string(e.Category),
			e.Description, nullStr(e.Vendor), nullStr(e.PaymentMethod),
			nullStr(e.ReceiptNumber), nullStr(e.Notes), string(e.ExpenseType),
			nullBool(e.ChargedToTenant), nullBool(e.PaidByTenant),
			nullStr(e.InvoiceID), reimb); err != nil {
			return fmt.Errorf("restore expense %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace all: %w", err)
	}

	slog.InfoContext(ctx, "Store content replaced",
		"properties", len(snap.Properties),
		"revenues", len(snap.Revenues),
		"expenses", len(snap.Expenses))
	return nil
}
