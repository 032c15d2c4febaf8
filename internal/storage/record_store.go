package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentledger/internal/core"
)

const revenueColumns = `id, property_id, amount, date, type, description, payer,
	payment_method, reference_number`

const expenseColumns = `id, property_id, amount, date, category, description, vendor,
	payment_method, receipt_number, notes, expense_type, charged_to_tenant,
	paid_by_tenant, invoice_id, reimbursement_status`

func (r *SQLiteRepository) CreateRevenue(ctx context.Context, rev core.Revenue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revenues (`+revenueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.PropertyID, rev.Amount.String(), fmtTime(rev.Date), string(rev.Type),
		nullStr(rev.Description), nullStr(rev.Payer),
		nullStr(rev.PaymentMethod), nullStr(rev.ReferenceNumber))
	if err != nil {
		return fmt.Errorf("insert revenue: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRevenue(ctx context.Context, id string) (core.Revenue, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+revenueColumns+` FROM revenues WHERE id = ?`, id)

	rev, err := scanRevenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Revenue{}, core.ErrRevenueNotFound
	}
	if err != nil {
		return core.Revenue{}, fmt.Errorf("get revenue: %w", err)
	}
	return rev, nil
}

func (r *SQLiteRepository) ListRevenues(ctx context.Context) ([]core.Revenue, error) {
	return r.queryRevenues(ctx, `SELECT `+revenueColumns+` FROM revenues ORDER BY date, id`)
}

func (r *SQLiteRepository) ListRevenuesByProperty(ctx context.Context, propertyID string) ([]core.Revenue, error) {
	return r.queryRevenues(ctx, `
		SELECT `+revenueColumns+` FROM revenues WHERE property_id = ? ORDER BY date, id`, propertyID)
}

func (r *SQLiteRepository) queryRevenues(ctx context.Context, query string, args ...any) ([]core.Revenue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list revenues: %w", err)
	}
	defer rows.Close()

	var revenues []core.Revenue
	for rows.Next() {
		rev, err := scanRevenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		revenues = append(revenues, rev)
	}
	return revenues, rows.Err()
}

func (r *SQLiteRepository) UpdateRevenue(ctx context.Context, rev core.Revenue) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE revenues SET
			property_id = ?, amount = ?, date = ?, type = ?, description = ?,
			payer = ?, payment_method = ?, reference_number = ?
		WHERE id = ?`,
		rev.PropertyID, rev.Amount.String(), fmtTime(rev.Date), string(rev.Type),
		nullStr(rev.Description), nullStr(rev.Payer),
		nullStr(rev.PaymentMethod), nullStr(rev.ReferenceNumber),
		rev.ID)
	if err != nil {
		return fmt.Errorf("update revenue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRevenueNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteRevenue(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revenues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete revenue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRevenueNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	var reimb sql.NullString
	if e.ReimbursementStatus != nil {
		reimb = sql.NullString{String: string(*e.ReimbursementStatus), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PropertyID, e.Amount.String(), fmtTime(e.Date), string(e.Category),
		e.Description, nullStr(e.Vendor), nullStr(e.PaymentMethod),
		nullStr(e.ReceiptNumber), nullStr(e.Notes), string(e.ExpenseType),
		nullBool(e.ChargedToTenant), nullBool(e.PaidByTenant),
		nullStr(e.InvoiceID), reimb)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date, id`)
}

func (r *SQLiteRepository) ListExpensesByProperty(ctx context.Context, propertyID string) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE property_id = ? ORDER BY date, id`, propertyID)
}

// ListUnbilledExpenses returns the property's expenses not yet consumed by
// any invoice, the candidate set for invoice composition.
func (r *SQLiteRepository) ListUnbilledExpenses(ctx context.Context, propertyID string) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE property_id = ? AND invoice_id IS NULL ORDER BY date, id`, propertyID)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpdateExpense rewrites the editable expense fields. The invoice_id column
// is the consumption marker and only changes through invoice save and delete,
// never through a record edit.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	var reimb sql.NullString
	if e.ReimbursementStatus != nil {
		reimb = sql.NullString{String: string(*e.ReimbursementStatus), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET
			property_id = ?, amount = ?, date = ?, category = ?, description = ?,
			vendor = ?, payment_method = ?, receipt_number = ?, notes = ?,
			expense_type = ?, charged_to_tenant = ?, paid_by_tenant = ?,
			reimbursement_status = ?
		WHERE id = ?`,
		e.PropertyID, e.Amount.String(), fmtTime(e.Date), string(e.Category),
		e.Description, nullStr(e.Vendor), nullStr(e.PaymentMethod),
		nullStr(e.ReceiptNumber), nullStr(e.Notes), string(e.ExpenseType),
		nullBool(e.ChargedToTenant), nullBool(e.PaidByTenant),
		reimb,
		e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func scanRevenue(row rowScanner) (core.Revenue, error) {
	var (
		rev                       core.Revenue
		amount, date, typ         string
		desc, payer, method, refn sql.NullString
	)
	err := row.Scan(&rev.ID, &rev.PropertyID, &amount, &date, &typ,
		&desc, &payer, &method, &refn)
	if err != nil {
		return core.Revenue{}, err
	}

	if rev.Amount, err = parseDec(amount); err != nil {
		return core.Revenue{}, err
	}
	if rev.Date, err = parseTime(date); err != nil {
		return core.Revenue{}, err
	}
	rev.Type = core.RevenueType(typ)
	rev.Description = strPtr(desc)
	rev.Payer = strPtr(payer)
	rev.PaymentMethod = strPtr(method)
	rev.ReferenceNumber = strPtr(refn)
	return rev, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                             core.Expense
		amount, date, category, typ   string
		vendor, method, receipt       sql.NullString
		notes, invoiceID, reimb       sql.NullString
		chargedToTenant, paidByTenant sql.NullBool
	)
	err := row.Scan(&e.ID, &e.PropertyID, &amount, &date, &category, &e.Description,
		&vendor, &method, &receipt, &notes, &typ,
		&chargedToTenant, &paidByTenant, &invoiceID, &reimb)
	if err != nil {
		return core.Expense{}, err
	}

	if e.Amount, err = parseDec(amount); err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = parseTime(date); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.ExpenseCategory(category)
	e.ExpenseType = core.ExpenseType(typ)
	e.Vendor = strPtr(vendor)
	e.PaymentMethod = strPtr(method)
	e.ReceiptNumber = strPtr(receipt)
	e.Notes = strPtr(notes)
	e.ChargedToTenant = boolPtr(chargedToTenant)
	e.PaidByTenant = boolPtr(paidByTenant)
	e.InvoiceID = strPtr(invoiceID)
	if reimb.Valid {
		rs := core.ReimbursementStatus(reimb.String)
		e.ReimbursementStatus = &rs
	}
	return e, nil
}
