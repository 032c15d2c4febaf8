package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"rentledger/internal/core"
)

const exportDateLayout = "2006-01-02"

// ExportFinancialSummary writes one row per property with its derived
// financial figures.
func ExportFinancialSummary(w io.Writer, financials []core.PropertyFinancials) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Property Name", "Type", "Purchase Price", "Monthly Rent",
		"Total Revenue", "Total Expenses", "Net Income", "ROI (%)",
		"Revenue Transactions", "Expense Transactions",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, f := range financials {
		row := []string{
			f.Property.Name,
			string(f.Property.Type),
			f.Property.PurchasePrice.StringFixed(2),
			f.Property.MonthlyRent.StringFixed(2),
			f.TotalRevenue.StringFixed(2),
			f.TotalExpenses.StringFixed(2),
			f.NetIncome.StringFixed(2),
			f.ROI.StringFixed(2),
			fmt.Sprintf("%d", f.RevenueTransactions),
			fmt.Sprintf("%d", f.ExpenseTransactions),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportProperties writes the property collection in the import format.
func ExportProperties(w io.Writer, properties []core.Property) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"id", "name", "address", "type", "monthlyRent", "purchasePrice", "dateAcquired", "tenantName"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write properties header: %w", err)
	}

	for _, p := range properties {
		tenant := ""
		if p.TenantName != nil {
			tenant = *p.TenantName
		}
		row := []string{
			p.ID, p.Name, p.Address, string(p.Type),
			p.MonthlyRent.String(), p.PurchasePrice.String(),
			p.DateAcquired.Format(exportDateLayout), tenant,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write property row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportRevenues writes the revenue collection in the import format.
func ExportRevenues(w io.Writer, revenues []core.Revenue) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"id", "propertyId", "amount", "type", "date", "description"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write revenues header: %w", err)
	}

	for _, r := range revenues {
		desc := ""
		if r.Description != nil {
			desc = *r.Description
		}
		row := []string{
			r.ID, r.PropertyID, r.Amount.String(), string(r.Type),
			r.Date.Format(exportDateLayout), desc,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write revenue row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportExpenses writes the expense collection in the import format.
func ExportExpenses(w io.Writer, expenses []core.Expense) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"id", "propertyId", "amount", "category", "date", "description", "expenseType", "invoiceId"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write expenses header: %w", err)
	}

	for _, e := range expenses {
		invoiceID := ""
		if e.InvoiceID != nil {
			invoiceID = *e.InvoiceID
		}
		row := []string{
			e.ID, e.PropertyID, e.Amount.String(), string(e.Category),
			e.Date.Format(exportDateLayout), e.Description,
			string(e.ExpenseType), invoiceID,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write expense row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportFilename builds a timestamped file name for CLI export output.
func ExportFilename(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", kind, now.Format("20060102-150405"))
}
