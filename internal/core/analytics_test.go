package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func analyticsSnapshot() Snapshot {
	prop := testProperty()
	return Snapshot{
		Properties: []Property{prop},
		Revenues: []Revenue{
			{ID: "r1", PropertyID: prop.ID, Amount: decimal.NewFromInt(2200), Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Type: RevenueRent},
			{ID: "r2", PropertyID: prop.ID, Amount: decimal.NewFromInt(2200), Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), Type: RevenueRent},
		},
		Expenses: []Expense{
			{ID: "e1", PropertyID: prop.ID, Amount: decimal.NewFromInt(150), Date: time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), Category: CategoryMaintenance, Description: "Plumbing repair", ExpenseType: LandlordMaintenance},
		},
	}
}

func TestComputePropertyFinancials(t *testing.T) {
	s := analyticsSnapshot()
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	f, ok := ComputePropertyFinancials(s, "prop-1", now)
	if !ok {
		t.Fatalf("property not found")
	}
	if !f.TotalRevenue.Equal(decimal.NewFromInt(4400)) {
		t.Fatalf("revenue = %s, want 4400", f.TotalRevenue)
	}
	if !f.TotalExpenses.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expenses = %s, want 150", f.TotalExpenses)
	}
	if !f.NetIncome.Equal(decimal.NewFromInt(4250)) {
		t.Fatalf("net income = %s, want 4250", f.NetIncome)
	}
	// 4250 / 250000 * 100 = 1.7
	if !f.ROI.Equal(decimal.RequireFromString("1.7")) {
		t.Fatalf("roi = %s, want 1.7", f.ROI)
	}
	if f.OccupancyRate != 100 {
		t.Fatalf("occupancy = %d, want 100", f.OccupancyRate)
	}
	if f.RevenueTransactions != 2 || f.ExpenseTransactions != 1 {
		t.Fatalf("transaction counts = %d/%d, want 2/1",
			f.RevenueTransactions, f.ExpenseTransactions)
	}
}

func TestPropertyFinancialsZeroPurchasePrice(t *testing.T) {
	s := analyticsSnapshot()
	s.Properties[0].PurchasePrice = decimal.Zero

	f, ok := ComputePropertyFinancials(s, "prop-1", time.Now())
	if !ok {
		t.Fatalf("property not found")
	}
	if !f.ROI.IsZero() {
		t.Fatalf("roi = %s, want 0", f.ROI)
	}
}

func TestPropertyFinancialsVacant(t *testing.T) {
	s := analyticsSnapshot()
	s.Properties[0].TenantName = nil

	f, _ := ComputePropertyFinancials(s, "prop-1", time.Now())
	if f.OccupancyRate != 0 {
		t.Fatalf("occupancy = %d, want 0", f.OccupancyRate)
	}
}

func TestPropertyFinancialsUnknownProperty(t *testing.T) {
	if _, ok := ComputePropertyFinancials(analyticsSnapshot(), "nope", time.Now()); ok {
		t.Fatalf("expected not found")
	}
}

func TestMonthsOwned(t *testing.T) {
	acquired := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want int
	}{
		{acquired.AddDate(0, 0, 1), 1},
		{acquired.AddDate(0, 0, 30), 1},
		{acquired.AddDate(0, 0, 31), 2},
		{acquired.AddDate(0, 0, 90), 3},
	}
	for i, tc := range cases {
		if got := MonthsOwned(acquired, tc.now); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestComputePortfolioSummary(t *testing.T) {
	s := analyticsSnapshot()
	inactive := testProperty()
	inactive.ID = "prop-2"
	inactive.IsActive = false
	inactive.PurchasePrice = decimal.Zero
	s.Properties = append(s.Properties, inactive)

	sum := ComputePortfolioSummary(s, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	if sum.TotalProperties != 2 || sum.ActiveProperties != 1 {
		t.Fatalf("counts = %d/%d", sum.TotalProperties, sum.ActiveProperties)
	}
	if !sum.NetIncome.Equal(decimal.NewFromInt(4250)) {
		t.Fatalf("net income = %s", sum.NetIncome)
	}
	// (1.7 + 0) / 2 = 0.85
	if !sum.AverageROI.Equal(decimal.RequireFromString("0.85")) {
		t.Fatalf("average roi = %s", sum.AverageROI)
	}
}

func TestComputePortfolioSummaryEmpty(t *testing.T) {
	sum := ComputePortfolioSummary(Snapshot{}, time.Now())
	if sum.TotalProperties != 0 || !sum.NetIncome.IsZero() || !sum.AverageROI.IsZero() {
		t.Fatalf("empty snapshot should yield zeros: %+v", sum)
	}
}

func TestComputeMonthlyTrend(t *testing.T) {
	trend := ComputeMonthlyTrend(analyticsSnapshot())
	if len(trend) != 2 {
		t.Fatalf("buckets = %d, want 2", len(trend))
	}
	if trend[0].Month != "Feb 2023" || trend[1].Month != "Mar 2023" {
		t.Fatalf("order = %s, %s", trend[0].Month, trend[1].Month)
	}
	if !trend[0].Revenue.Equal(decimal.NewFromInt(2200)) || !trend[0].Expenses.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("feb bucket = %s / %s", trend[0].Revenue, trend[0].Expenses)
	}
	if !trend[0].NetIncome.Equal(decimal.NewFromInt(2050)) {
		t.Fatalf("feb net = %s", trend[0].NetIncome)
	}
	if !trend[1].Expenses.IsZero() {
		t.Fatalf("mar expenses = %s, want 0", trend[1].Expenses)
	}
}

func TestBreakdownsSortedDescending(t *testing.T) {
	s := analyticsSnapshot()
	s.Expenses = append(s.Expenses,
		Expense{ID: "e2", PropertyID: "prop-1", Amount: decimal.NewFromInt(900), Date: s.Expenses[0].Date, Category: CategoryPropertyTax, Description: "Q1 tax", ExpenseType: LandlordPropertyTax},
		Expense{ID: "e3", PropertyID: "prop-1", Amount: decimal.NewFromInt(50), Date: s.Expenses[0].Date, Category: CategoryMaintenance, Description: "Filters", ExpenseType: LandlordMaintenance},
	)

	byCat := ComputeExpensesByCategory(s)
	if len(byCat) != 2 {
		t.Fatalf("categories = %d, want 2", len(byCat))
	}
	if byCat[0].Key != string(CategoryPropertyTax) || !byCat[0].Amount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("top category = %s %s", byCat[0].Key, byCat[0].Amount)
	}
	if byCat[1].Key != string(CategoryMaintenance) || !byCat[1].Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("second category = %s %s", byCat[1].Key, byCat[1].Amount)
	}

	byType := ComputeRevenuesByType(s)
	if len(byType) != 1 || byType[0].Key != string(RevenueRent) || !byType[0].Amount.Equal(decimal.NewFromInt(4400)) {
		t.Fatalf("revenue breakdown = %+v", byType)
	}
}
