package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"rentledger/internal/core"
)

const invoiceColumns = `id, property_id, tenant_name, invoice_number, invoice_date, due_date,
	monthly_rent, rent_period_start, rent_period_end, chargeable_expenses, total_chargeable,
	deductible_expenses, total_deductible, gross_amount, deductions, net_amount, status,
	paid_date, payment_method, notes`

// SaveInvoice persists a composed invoice and consumes its expense lines in a
// single transaction. The final invoice number is assigned here from the
// highest sequence already issued for the invoice month, so deleted invoices
// never cause a number to be reissued. Every referenced expense must still be
// unbilled or the whole save fails with ErrExpenseAlreadyBilled.
func (r *SQLiteRepository) SaveInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("begin save invoice: %w", err)
	}
	defer tx.Rollback()

	prefix := core.InvoiceNumberPrefix(inv.InvoiceDate)
	var seq int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(substr(invoice_number, ?) AS INTEGER)), 0)
		FROM invoices WHERE invoice_number LIKE ?`,
		len(prefix)+1, prefix+"%").Scan(&seq)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("next invoice sequence: %w", err)
	}
	inv.InvoiceNumber = core.InvoiceNumber(inv.InvoiceDate, seq+1)

	for i := range inv.ChargeableExpenses {
		inv.ChargeableExpenses[i].InvoiceID = &inv.ID
	}
	for i := range inv.DeductibleExpenses {
		inv.DeductibleExpenses[i].InvoiceID = &inv.ID
	}

	// Lines without an id are manual ad-hoc entries that exist only in the
	// invoice snapshot; there is nothing stored to consume for them.
	for _, e := range inv.ChargeableExpenses {
		if e.ID == "" {
			continue
		}
		if err := consumeExpense(ctx, tx, e.ID, inv.ID); err != nil {
			return core.Invoice{}, err
		}
	}
	for _, e := range inv.DeductibleExpenses {
		if e.ID == "" {
			continue
		}
		if err := consumeExpense(ctx, tx, e.ID, inv.ID); err != nil {
			return core.Invoice{}, err
		}
	}

	chargeable, err := json.Marshal(inv.ChargeableExpenses)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("encode chargeable lines: %w", err)
	}
	deductible, err := json.Marshal(inv.DeductibleExpenses)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("encode deductible lines: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.PropertyID, inv.TenantName, inv.InvoiceNumber,
		fmtTime(inv.InvoiceDate), fmtTime(inv.DueDate),
		inv.MonthlyRent.String(), fmtTime(inv.RentPeriodStart), fmtTime(inv.RentPeriodEnd),
		string(chargeable), inv.TotalChargeableExpenses.String(),
		string(deductible), inv.TotalDeductibleExpenses.String(),
		inv.GrossAmount.String(), inv.Deductions.String(), inv.NetAmount.String(),
		string(inv.Status),
		nullTime(inv.PaidDate), nullStr(inv.PaymentMethod), nullStr(inv.Notes))
	if err != nil {
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Invoice{}, fmt.Errorf("commit save invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"number", inv.InvoiceNumber,
		"property_id", inv.PropertyID,
		"net_amount", inv.NetAmount.String())
	return inv, nil
}

func consumeExpense(ctx context.Context, tx *sql.Tx, expenseID, invoiceID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE expenses SET invoice_id = ? WHERE id = ? AND invoice_id IS NULL`,
		invoiceID, expenseID)
	if err != nil {
		return fmt.Errorf("consume expense %s: %w", expenseID, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var existing sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT invoice_id FROM expenses WHERE id = ?`, expenseID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("expense %s: %w", expenseID, core.ErrExpenseNotFound)
	}
	if err != nil {
		return fmt.Errorf("check expense %s: %w", expenseID, err)
	}
	return fmt.Errorf("expense %s: %w", expenseID, core.ErrExpenseAlreadyBilled)
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, core.ErrInvoiceNotFound
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return r.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY invoice_date, id`)
}

func (r *SQLiteRepository) ListInvoicesByProperty(ctx context.Context, propertyID string) ([]core.Invoice, error) {
	return r.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE property_id = ? ORDER BY invoice_date, id`, propertyID)
}

func (r *SQLiteRepository) queryInvoices(ctx context.Context, query string, args ...any) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateInvoice rewrites the mutable invoice fields. The expense snapshots
// and monetary totals are fixed at composition time and not touched here.
func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, inv core.Invoice) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET
			tenant_name = ?, due_date = ?, status = ?,
			paid_date = ?, payment_method = ?, notes = ?
		WHERE id = ?`,
		inv.TenantName, fmtTime(inv.DueDate), string(inv.Status),
		nullTime(inv.PaidDate), nullStr(inv.PaymentMethod), nullStr(inv.Notes),
		inv.ID)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInvoiceNotFound
	}
	return nil
}

// DeleteInvoice removes the invoice and releases its consumed expenses so
// they become billable again.
func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete invoice: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInvoiceNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE expenses SET invoice_id = NULL WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("release invoice expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice deleted, expenses released", "id", id)
	return nil
}

func (r *SQLiteRepository) CountInvoices(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv                                core.Invoice
		invDate, dueDate, periodS, periodE string
		rent, totalC, totalD               string
		gross, deductions, net, status     string
		chargeable, deductible             string
		paidDate, method, notes            sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.PropertyID, &inv.TenantName, &inv.InvoiceNumber,
		&invDate, &dueDate, &rent, &periodS, &periodE,
		&chargeable, &totalC, &deductible, &totalD,
		&gross, &deductions, &net, &status,
		&paidDate, &method, &notes)
	if err != nil {
		return core.Invoice{}, err
	}

	if inv.InvoiceDate, err = parseTime(invDate); err != nil {
		return core.Invoice{}, err
	}
	if inv.DueDate, err = parseTime(dueDate); err != nil {
		return core.Invoice{}, err
	}
	if inv.RentPeriodStart, err = parseTime(periodS); err != nil {
		return core.Invoice{}, err
	}
	if inv.RentPeriodEnd, err = parseTime(periodE); err != nil {
		return core.Invoice{}, err
	}
	if inv.MonthlyRent, err = parseDec(rent); err != nil {
		return core.Invoice{}, err
	}
	if inv.TotalChargeableExpenses, err = parseDec(totalC); err != nil {
		return core.Invoice{}, err
	}
	if inv.TotalDeductibleExpenses, err = parseDec(totalD); err != nil {
		return core.Invoice{}, err
	}
	if inv.GrossAmount, err = parseDec(gross); err != nil {
		return core.Invoice{}, err
	}
	if inv.Deductions, err = parseDec(deductions); err != nil {
		return core.Invoice{}, err
	}
	if inv.NetAmount, err = parseDec(net); err != nil {
		return core.Invoice{}, err
	}
	if err = json.Unmarshal([]byte(chargeable), &inv.ChargeableExpenses); err != nil {
		return core.Invoice{}, fmt.Errorf("decode chargeable lines: %w", err)
	}
	if err = json.Unmarshal([]byte(deductible), &inv.DeductibleExpenses); err != nil {
		return core.Invoice{}, fmt.Errorf("decode deductible lines: %w", err)
	}
	inv.Status = core.InvoiceStatus(status)
	if inv.PaidDate, err = timePtr(paidDate); err != nil {
		return core.Invoice{}, err
	}
	inv.PaymentMethod = strPtr(method)
	inv.Notes = strPtr(notes)
	return inv, nil
}
