package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
	"rentledger/internal/services"
)

// RowError reports a single rejected CSV row. Line numbers are 1-based and
// include the header line.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes one import run. Valid rows are imported even when
// other rows fail; Success is true once at least one row made it in.
type ImportResult struct {
	Success  bool       `json:"success"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
	Message  string     `json:"message"`
}

func (r ImportResult) summarize(kind string) ImportResult {
	r.Success = r.Imported > 0
	if len(r.Errors) == 0 {
		r.Message = fmt.Sprintf("imported %d %s", r.Imported, kind)
	} else {
		r.Message = fmt.Sprintf("imported %d %s, %d rows rejected", r.Imported, kind, len(r.Errors))
	}
	return r
}

var (
	propertyHeaders = []string{"name", "address", "type", "monthlyrent"}
	revenueHeaders  = []string{"propertyid", "amount", "type", "date"}
	expenseHeaders  = []string{"propertyid", "amount", "category", "date"}
)

// header maps normalized column names to their index.
type header map[string]int

func readHeader(reader *csv.Reader, required []string) (header, error) {
	record, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := make(header, len(record))
	for i, name := range record {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ImportProperties reads property rows and creates one property per valid
// row. Required columns: name, address, type, monthlyRent.
func ImportProperties(ctx context.Context, r io.Reader, ledger *services.LedgerService) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, propertyHeaders)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		p, err := parsePropertyRow(h, record)
		if err == nil {
			_, err = ledger.CreateProperty(ctx, p)
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result.summarize("properties"), nil
}

func parsePropertyRow(h header, record []string) (core.Property, error) {
	typ, err := core.ParsePropertyType(h.get(record, "type"))
	if err != nil {
		return core.Property{}, fmt.Errorf("type: %w", err)
	}
	rent, err := decimal.NewFromString(h.get(record, "monthlyrent"))
	if err != nil {
		return core.Property{}, fmt.Errorf("monthlyRent: %w", err)
	}

	p := core.Property{
		Name:        h.get(record, "name"),
		Address:     h.get(record, "address"),
		Type:        typ,
		MonthlyRent: rent,
		IsActive:    true,
	}

	if raw := h.get(record, "purchaseprice"); raw != "" {
		if p.PurchasePrice, err = decimal.NewFromString(raw); err != nil {
			return core.Property{}, fmt.Errorf("purchasePrice: %w", err)
		}
	}
	p.DateAcquired = time.Now()
	if raw := h.get(record, "dateacquired"); raw != "" {
		if p.DateAcquired, err = parseDate(raw); err != nil {
			return core.Property{}, fmt.Errorf("dateAcquired: %w", err)
		}
	}
	if tenant := h.get(record, "tenantname"); tenant != "" {
		p.TenantName = &tenant
	}

	if err := p.Validate(); err != nil {
		return core.Property{}, err
	}
	return p, nil
}

// ImportRevenues reads revenue rows. Required columns: propertyId, amount,
// type, date. Rows referencing an unknown property are rejected individually.
func ImportRevenues(ctx context.Context, r io.Reader, ledger *services.LedgerService) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, revenueHeaders)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		rev, err := parseRevenueRow(h, record)
		if err == nil {
			_, err = ledger.AddRevenue(ctx, rev)
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result.summarize("revenues"), nil
}

func parseRevenueRow(h header, record []string) (core.Revenue, error) {
	typ, err := core.ParseRevenueType(h.get(record, "type"))
	if err != nil {
		return core.Revenue{}, fmt.Errorf("type: %w", err)
	}
	amount, err := decimal.NewFromString(h.get(record, "amount"))
	if err != nil {
		return core.Revenue{}, fmt.Errorf("amount: %w", err)
	}
	date, err := parseDate(h.get(record, "date"))
	if err != nil {
		return core.Revenue{}, err
	}

	rev := core.Revenue{
		PropertyID: h.get(record, "propertyid"),
		Amount:     amount,
		Date:       date,
		Type:       typ,
	}
	if desc := h.get(record, "description"); desc != "" {
		rev.Description = &desc
	}
	return rev, nil
}

// ImportExpenses reads expense rows. Required columns: propertyId, amount,
// category, date. A paidBy column of "tenant" drives classification; the
// description falls back to the category name when the column is absent.
func ImportExpenses(ctx context.Context, r io.Reader, ledger *services.LedgerService) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, expenseHeaders)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		e, err := parseExpenseRow(h, record)
		if err == nil {
			_, err = ledger.AddExpense(ctx, e)
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result.summarize("expenses"), nil
}

func parseExpenseRow(h header, record []string) (core.Expense, error) {
	category, err := core.ParseExpenseCategory(h.get(record, "category"))
	if err != nil {
		return core.Expense{}, fmt.Errorf("category: %w", err)
	}
	amount, err := decimal.NewFromString(h.get(record, "amount"))
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount: %w", err)
	}
	date, err := parseDate(h.get(record, "date"))
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		PropertyID:  h.get(record, "propertyid"),
		Amount:      amount,
		Date:        date,
		Category:    category,
		Description: h.get(record, "description"),
	}
	if e.Description == "" {
		e.Description = string(category)
	}
	if strings.EqualFold(h.get(record, "paidby"), string(core.PaidByTenant)) {
		e.PaidByTenant = boolPtr(true)
	}
	return e, nil
}

func boolPtr(b bool) *bool { return &b }
