package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"rentledger/internal/core"
)

const propertyColumns = `id, name, address, type, purchase_price, monthly_rent, date_acquired,
	is_active, description, tenant_name, lease_start_date, lease_end_date, latitude, longitude`

func (r *SQLiteRepository) CreateProperty(ctx context.Context, p core.Property) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Address, string(p.Type),
		p.PurchasePrice.String(), p.MonthlyRent.String(), fmtTime(p.DateAcquired),
		p.IsActive, nullStr(p.Description), nullStr(p.TenantName),
		nullTime(p.LeaseStartDate), nullTime(p.LeaseEndDate),
		nullFloat(p.Latitude), nullFloat(p.Longitude))
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}

	slog.InfoContext(ctx, "Property created", "id", p.ID, "name", p.Name)
	return nil
}

func (r *SQLiteRepository) GetProperty(ctx context.Context, id string) (core.Property, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Property{}, core.ErrPropertyNotFound
	}
	if err != nil {
		return core.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProperties(ctx context.Context) ([]core.Property, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+propertyColumns+` FROM properties ORDER BY date_acquired, id`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []core.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *SQLiteRepository) UpdateProperty(ctx context.Context, p core.Property) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE properties SET
			name = ?, address = ?, type = ?, purchase_price = ?, monthly_rent = ?,
			date_acquired = ?, is_active = ?, description = ?, tenant_name = ?,
			lease_start_date = ?, lease_end_date = ?, latitude = ?, longitude = ?
		WHERE id = ?`,
		p.Name, p.Address, string(p.Type),
		p.PurchasePrice.String(), p.MonthlyRent.String(), fmtTime(p.DateAcquired),
		p.IsActive, nullStr(p.Description), nullStr(p.TenantName),
		nullTime(p.LeaseStartDate), nullTime(p.LeaseEndDate),
		nullFloat(p.Latitude), nullFloat(p.Longitude),
		p.ID)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrPropertyNotFound
	}
	return nil
}

// DeleteProperty removes the property together with its revenues, expenses
// and invoices in one transaction.
func (r *SQLiteRepository) DeleteProperty(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete property: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrPropertyNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM revenues WHERE property_id = ?`, id); err != nil {
		return fmt.Errorf("delete property revenues: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE property_id = ?`, id); err != nil {
		return fmt.Errorf("delete property expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE property_id = ?`, id); err != nil {
		return fmt.Errorf("delete property invoices: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete property: %w", err)
	}

	slog.InfoContext(ctx, "Property deleted with dependent records", "id", id)
	return nil
}

func scanProperty(row rowScanner) (core.Property, error) {
	var (
		p                            core.Property
		typ, price, rent, acquired   string
		desc, tenant, leaseS, leaseE sql.NullString
		lat, lon                     sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Address, &typ, &price, &rent, &acquired,
		&p.IsActive, &desc, &tenant, &leaseS, &leaseE, &lat, &lon)
	if err != nil {
		return core.Property{}, err
	}

	p.Type = core.PropertyType(typ)
	if p.PurchasePrice, err = parseDec(price); err != nil {
		return core.Property{}, err
	}
	if p.MonthlyRent, err = parseDec(rent); err != nil {
		return core.Property{}, err
	}
	if p.DateAcquired, err = parseTime(acquired); err != nil {
		return core.Property{}, err
	}
	p.Description = strPtr(desc)
	p.TenantName = strPtr(tenant)
	if p.LeaseStartDate, err = timePtr(leaseS); err != nil {
		return core.Property{}, err
	}
	if p.LeaseEndDate, err = timePtr(leaseE); err != nil {
		return core.Property{}, err
	}
	p.Latitude = floatPtr(lat)
	p.Longitude = floatPtr(lon)
	return p, nil
}
