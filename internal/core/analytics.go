package core

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PropertyFinancials is the per-property financial picture derived from the
// ledger snapshot.
type PropertyFinancials struct {
	Property            Property        `json:"property"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TotalExpenses       decimal.Decimal `json:"totalExpenses"`
	NetIncome           decimal.Decimal `json:"netIncome"`
	MonthlyNetIncome    decimal.Decimal `json:"monthlyNetIncome"`
	OccupancyRate       int             `json:"occupancyRate"`
	ROI                 decimal.Decimal `json:"roi"`
	RevenueTransactions int             `json:"revenueTransactions"`
	ExpenseTransactions int             `json:"expenseTransactions"`
}

// PortfolioSummary aggregates the same figures across every property.
type PortfolioSummary struct {
	TotalProperties  int             `json:"totalProperties"`
	ActiveProperties int             `json:"activeProperties"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	NetIncome        decimal.Decimal `json:"netIncome"`
	AverageROI       decimal.Decimal `json:"averageRoi"`
}

// MonthlyTotals is one calendar-month bucket of the trend series.
type MonthlyTotals struct {
	Month     string          `json:"month"`
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetIncome decimal.Decimal `json:"netIncome"`
}

// CategoryAmount is one row of a breakdown, sorted descending by amount.
type CategoryAmount struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthsOwned counts 30-day periods since acquisition, rounded up.
func MonthsOwned(dateAcquired, now time.Time) int {
	diff := now.Sub(dateAcquired)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / (24 * 30)))
}

// ComputePropertyFinancials derives the financial picture of one property.
// Missing data yields zero values, never an error.
func ComputePropertyFinancials(s Snapshot, propertyID string, now time.Time) (PropertyFinancials, bool) {
	var prop Property
	found := false
	for _, p := range s.Properties {
		if p.ID == propertyID {
			prop = p
			found = true
			break
		}
	}
	if !found {
		return PropertyFinancials{}, false
	}

	totalRevenue := decimal.Zero
	revenueCount := 0
	for _, r := range s.Revenues {
		if r.PropertyID == propertyID {
			totalRevenue = totalRevenue.Add(r.Amount)
			revenueCount++
		}
	}
	totalExpenses := decimal.Zero
	expenseCount := 0
	for _, e := range s.Expenses {
		if e.PropertyID == propertyID {
			totalExpenses = totalExpenses.Add(e.Amount)
			expenseCount++
		}
	}
	netIncome := totalRevenue.Sub(totalExpenses)

	monthly := decimal.Zero
	if months := MonthsOwned(prop.DateAcquired, now); months > 0 {
		monthly = netIncome.Div(decimal.NewFromInt(int64(months)))
	}

	roi := decimal.Zero
	if prop.PurchasePrice.IsPositive() {
		roi = netIncome.Div(prop.PurchasePrice).Mul(hundred)
	}

	// Binary approximation: occupied iff active with a tenant on record.
	occupancy := 0
	if prop.IsActive && prop.TenantName != nil && *prop.TenantName != "" {
		occupancy = 100
	}

	return PropertyFinancials{
		Property:            prop,
		TotalRevenue:        totalRevenue,
		TotalExpenses:       totalExpenses,
		NetIncome:           netIncome,
		MonthlyNetIncome:    monthly,
		OccupancyRate:       occupancy,
		ROI:                 roi,
		RevenueTransactions: revenueCount,
		ExpenseTransactions: expenseCount,
	}, true
}

// ComputeAllPropertyFinancials derives financials for every property in the
// snapshot, in snapshot order.
func ComputeAllPropertyFinancials(s Snapshot, now time.Time) []PropertyFinancials {
	out := make([]PropertyFinancials, 0, len(s.Properties))
	for _, p := range s.Properties {
		if f, ok := ComputePropertyFinancials(s, p.ID, now); ok {
			out = append(out, f)
		}
	}
	return out
}

// ComputePortfolioSummary aggregates totals and the mean ROI across the
// whole portfolio.
func ComputePortfolioSummary(s Snapshot, now time.Time) PortfolioSummary {
	sum := PortfolioSummary{
		TotalProperties: len(s.Properties),
		TotalRevenue:    decimal.Zero,
		TotalExpenses:   decimal.Zero,
		NetIncome:       decimal.Zero,
		AverageROI:      decimal.Zero,
	}

	roiTotal := decimal.Zero
	for _, f := range ComputeAllPropertyFinancials(s, now) {
		if f.Property.IsActive {
			sum.ActiveProperties++
		}
		sum.TotalRevenue = sum.TotalRevenue.Add(f.TotalRevenue)
		sum.TotalExpenses = sum.TotalExpenses.Add(f.TotalExpenses)
		roiTotal = roiTotal.Add(f.ROI)
	}
	sum.NetIncome = sum.TotalRevenue.Sub(sum.TotalExpenses)
	if sum.TotalProperties > 0 {
		sum.AverageROI = roiTotal.Div(decimal.NewFromInt(int64(sum.TotalProperties)))
	}
	return sum
}

// ComputeMonthlyTrend buckets revenues and expenses by calendar month,
// ascending in time. Labels follow the "Jan 2006" form.
func ComputeMonthlyTrend(s Snapshot) []MonthlyTotals {
	type bucket struct {
		revenue  decimal.Decimal
		expenses decimal.Decimal
	}
	months := make(map[time.Time]bucket)

	monthOf := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	for _, r := range s.Revenues {
		m := monthOf(r.Date)
		b := months[m]
		b.revenue = b.revenue.Add(r.Amount)
		months[m] = b
	}
	for _, e := range s.Expenses {
		m := monthOf(e.Date)
		b := months[m]
		b.expenses = b.expenses.Add(e.Amount)
		months[m] = b
	}

	keys := make([]time.Time, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]MonthlyTotals, 0, len(keys))
	for _, m := range keys {
		b := months[m]
		out = append(out, MonthlyTotals{
			Month:     m.Format("Jan 2006"),
			Revenue:   b.revenue,
			Expenses:  b.expenses,
			NetIncome: b.revenue.Sub(b.expenses),
		})
	}
	return out
}

// ComputeExpensesByCategory groups expense amounts by category.
func ComputeExpensesByCategory(s Snapshot) []CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, e := range s.Expenses {
		key := string(e.Category)
		totals[key] = totals[key].Add(e.Amount)
	}
	return sortedBreakdown(totals)
}

// ComputeRevenuesByType groups revenue amounts by revenue type.
func ComputeRevenuesByType(s Snapshot) []CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, r := range s.Revenues {
		key := string(r.Type)
		totals[key] = totals[key].Add(r.Amount)
	}
	return sortedBreakdown(totals)
}

func sortedBreakdown(totals map[string]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for key, amount := range totals {
		out = append(out, CategoryAmount{Key: key, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Key < out[j].Key
	})
	return out
}
