package core

import "testing"

func TestClassifyExpense(t *testing.T) {
	cases := []struct {
		paidBy   Payer
		category ExpenseCategory
		want     ExpenseType
	}{
		// Tenant-paid costs become creditable types.
		{PaidByTenant, CategoryMaintenance, TenantPaidMaintenance},
		{PaidByTenant, CategoryRepairs, TenantPaidRepairs},
		{PaidByTenant, CategoryUtilities, TenantPaidUtilities},
		// Non-creditable categories fall back to tenant_paid_maintenance.
		{PaidByTenant, CategoryInsurance, TenantPaidMaintenance},
		{PaidByTenant, CategoryMarketing, TenantPaidMaintenance},
		{PaidByTenant, CategoryOther, TenantPaidMaintenance},

		// Landlord owner-side costs stay landlord-borne.
		{PaidByLandlord, CategoryPropertyTax, LandlordPropertyTax},
		{PaidByLandlord, CategoryInsurance, LandlordInsurance},
		{PaidByLandlord, CategoryPropertyManagement, LandlordManagement},
		// Mortgage folds into landlord_property_tax.
		{PaidByLandlord, CategoryMortgage, LandlordPropertyTax},

		{PaidByLandlord, CategoryMaintenance, LandlordMaintenance},
		{PaidByLandlord, CategoryRepairs, LandlordRepairs},
		{PaidByLandlord, CategoryUtilities, LandlordUtilities},

		// Everything else landlord-paid is billable to the tenant.
		{PaidByLandlord, CategoryMarketing, ChargeableToTenant},
		{PaidByLandlord, CategoryLegalFees, ChargeableToTenant},
		{PaidByLandlord, CategoryOther, ChargeableToTenant},

		// Unknown payer falls back to landlord_maintenance.
		{Payer("accountant"), CategoryRepairs, LandlordMaintenance},
	}

	for _, tc := range cases {
		if got := ClassifyExpense(tc.paidBy, tc.category); got != tc.want {
			t.Fatalf("classify(%s, %s) = %s, want %s", tc.paidBy, tc.category, got, tc.want)
		}
	}
}

func TestPayerForType(t *testing.T) {
	if PayerForType(TenantPaidRepairs) != PaidByTenant {
		t.Fatalf("tenant_paid_repairs should map back to tenant")
	}
	if PayerForType(ChargeableToTenant) != PaidByLandlord {
		t.Fatalf("chargeable_to_tenant is landlord-paid")
	}
	if PayerForType(LandlordInsurance) != PaidByLandlord {
		t.Fatalf("landlord_insurance is landlord-paid")
	}
}
