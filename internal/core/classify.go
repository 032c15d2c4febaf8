package core

// ClassifyExpense maps who paid and the expense category onto the billing
// taxonomy. Classification is total: every category yields a type, so there
// is no error path.
//
// Tenant-paid costs become creditable tenant_paid_* types, defaulting to
// tenant_paid_maintenance for categories outside the three creditable ones.
// Landlord-paid owner-side costs (tax, insurance, mortgage, management) stay
// landlord-borne; mortgage folds into landlord_property_tax and
// property_management into landlord_management. Remaining landlord-paid
// categories default to chargeable_to_tenant.
func ClassifyExpense(paidBy Payer, category ExpenseCategory) ExpenseType {
	if paidBy == PaidByTenant {
		switch category {
		case CategoryMaintenance:
			return TenantPaidMaintenance
		case CategoryRepairs:
			return TenantPaidRepairs
		case CategoryUtilities:
			return TenantPaidUtilities
		default:
			return TenantPaidMaintenance
		}
	}

	if paidBy == PaidByLandlord {
		if category == CategoryPropertyTax || category == CategoryInsurance ||
			category == CategoryMortgage || category == CategoryPropertyManagement {
			switch category {
			case CategoryPropertyTax:
				return LandlordPropertyTax
			case CategoryInsurance:
				return LandlordInsurance
			case CategoryPropertyManagement:
				return LandlordManagement
			default:
				return LandlordPropertyTax
			}
		}

		switch category {
		case CategoryMaintenance:
			return LandlordMaintenance
		case CategoryRepairs:
			return LandlordRepairs
		case CategoryUtilities:
			return LandlordUtilities
		default:
			return ChargeableToTenant
		}
	}

	return LandlordMaintenance
}

// PayerForType is the inverse helper: tenant for the creditable tenant_paid_*
// family, landlord for everything else.
func PayerForType(t ExpenseType) Payer {
	if t.Deductible() {
		return PaidByTenant
	}
	return PaidByLandlord
}
