package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts serialize as plain JSON numbers, matching the persisted shape.
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	PropertyType        string
	RevenueType         string
	ExpenseCategory     string
	ExpenseType         string
	InvoiceStatus       string
	ReimbursementStatus string
	Payer               string
)

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyStudio    PropertyType = "studio"
	PropertyOther     PropertyType = "other"
)

const (
	RevenueRent            RevenueType = "rent"
	RevenueLateFee         RevenueType = "late_fee"
	RevenueSecurityDeposit RevenueType = "security_deposit"
	RevenuePetFee          RevenueType = "pet_fee"
	RevenueOther           RevenueType = "other"
)

const (
	CategoryMaintenance        ExpenseCategory = "maintenance"
	CategoryRepairs            ExpenseCategory = "repairs"
	CategoryInsurance          ExpenseCategory = "insurance"
	CategoryPropertyTax        ExpenseCategory = "property_tax"
	CategoryUtilities          ExpenseCategory = "utilities"
	CategoryPropertyManagement ExpenseCategory = "property_management"
	CategoryMarketing          ExpenseCategory = "marketing"
	CategoryLegalFees          ExpenseCategory = "legal_fees"
	CategoryMortgage           ExpenseCategory = "mortgage"
	CategoryOther              ExpenseCategory = "other"
)

const (
	// Landlord-borne, never billed to the tenant.
	LandlordMaintenance ExpenseType = "landlord_maintenance"
	LandlordRepairs     ExpenseType = "landlord_repairs"
	LandlordInsurance   ExpenseType = "landlord_insurance"
	LandlordPropertyTax ExpenseType = "landlord_property_tax"
	LandlordUtilities   ExpenseType = "landlord_utilities"
	LandlordManagement  ExpenseType = "landlord_management"

	// Landlord paid, billed to the tenant as an added invoice line.
	ChargeableToTenant ExpenseType = "chargeable_to_tenant"
	TenantDamages      ExpenseType = "tenant_damages"
	TenantUtilities    ExpenseType = "tenant_utilities"
	TenantLateFees     ExpenseType = "tenant_late_fees"

	// Tenant paid directly, credited against rent owed.
	TenantPaidMaintenance ExpenseType = "tenant_paid_maintenance"
	TenantPaidRepairs     ExpenseType = "tenant_paid_repairs"
	TenantPaidUtilities   ExpenseType = "tenant_paid_utilities"

	ExpenseTypeOther ExpenseType = "other"
)

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusViewed    InvoiceStatus = "viewed"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue" // derived on read, never stored
	StatusDisputed  InvoiceStatus = "disputed"
	StatusCancelled InvoiceStatus = "cancelled"
)

const (
	ReimbursementPending  ReimbursementStatus = "pending"
	ReimbursementCharged  ReimbursementStatus = "charged"
	ReimbursementPaid     ReimbursementStatus = "paid"
	ReimbursementDeducted ReimbursementStatus = "deducted"
	ReimbursementDisputed ReimbursementStatus = "disputed"
)

const (
	PaidByLandlord Payer = "landlord"
	PaidByTenant   Payer = "tenant"
)

var (
	ErrPropertyNotFound     = errors.New("property not found")
	ErrRevenueNotFound      = errors.New("revenue not found")
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrExpenseAlreadyBilled = errors.New("expense already billed to an invoice")

	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrEmptyName         = errors.New("empty property name")
	ErrEmptyAddress      = errors.New("empty property address")
	ErrEmptyDescription  = errors.New("empty description")
	ErrZeroDate          = errors.New("date must be set")
	ErrInvalidEnum       = errors.New("unrecognized enum value")
	ErrInvalidRentPeriod = errors.New("rent period end must not precede start")
	ErrEmptyPropertyID   = errors.New("empty property id")
)

// Property is a rental unit under management.
type Property struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Type           PropertyType    `json:"type"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	MonthlyRent    decimal.Decimal `json:"monthlyRent"`
	DateAcquired   time.Time       `json:"dateAcquired"`
	IsActive       bool            `json:"isActive"`
	Description    *string         `json:"description,omitempty"`
	TenantName     *string         `json:"tenantName,omitempty"`
	LeaseStartDate *time.Time      `json:"leaseStartDate,omitempty"`
	LeaseEndDate   *time.Time      `json:"leaseEndDate,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
}

// Revenue is a single income entry against a property.
type Revenue struct {
	ID              string          `json:"id"`
	PropertyID      string          `json:"propertyId"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date"`
	Type            RevenueType     `json:"type"`
	Description     *string         `json:"description,omitempty"`
	Payer           *string         `json:"payer,omitempty"`
	PaymentMethod   *string         `json:"paymentMethod,omitempty"`
	ReferenceNumber *string         `json:"referenceNumber,omitempty"`
}

// Expense is a single cost entry against a property. ExpenseType decides its
// billing treatment; InvoiceID is set at most once, when an invoice consumes it.
type Expense struct {
	ID                  string               `json:"id"`
	PropertyID          string               `json:"propertyId"`
	Amount              decimal.Decimal      `json:"amount"`
	Date                time.Time            `json:"date"`
	Category            ExpenseCategory      `json:"category"`
	Description         string               `json:"description"`
	Vendor              *string              `json:"vendor,omitempty"`
	PaymentMethod       *string              `json:"paymentMethod,omitempty"`
	ReceiptNumber       *string              `json:"receiptNumber,omitempty"`
	Notes               *string              `json:"notes,omitempty"`
	ExpenseType         ExpenseType          `json:"expenseType"`
	ChargedToTenant     *bool                `json:"chargedToTenant,omitempty"`
	PaidByTenant        *bool                `json:"paidByTenant,omitempty"`
	InvoiceID           *string              `json:"invoiceId,omitempty"`
	ReimbursementStatus *ReimbursementStatus `json:"reimbursementStatus,omitempty"`
}

// Invoice bills one rent period to a tenant. Expense lists are snapshot
// copies taken at composition time, not live references.
type Invoice struct {
	ID                      string          `json:"id"`
	PropertyID              string          `json:"propertyId"`
	TenantName              string          `json:"tenantName"`
	InvoiceNumber           string          `json:"invoiceNumber"`
	InvoiceDate             time.Time       `json:"invoiceDate"`
	DueDate                 time.Time       `json:"dueDate"`
	MonthlyRent             decimal.Decimal `json:"monthlyRent"`
	RentPeriodStart         time.Time       `json:"rentPeriodStart"`
	RentPeriodEnd           time.Time       `json:"rentPeriodEnd"`
	ChargeableExpenses      []Expense       `json:"chargeableExpenses"`
	TotalChargeableExpenses decimal.Decimal `json:"totalChargeableExpenses"`
	DeductibleExpenses      []Expense       `json:"deductibleExpenses"`
	TotalDeductibleExpenses decimal.Decimal `json:"totalDeductibleExpenses"`
	GrossAmount             decimal.Decimal `json:"grossAmount"`
	Deductions              decimal.Decimal `json:"deductions"`
	NetAmount               decimal.Decimal `json:"netAmount"`
	Status                  InvoiceStatus   `json:"status"`
	PaidDate                *time.Time      `json:"paidDate,omitempty"`
	PaymentMethod           *string         `json:"paymentMethod,omitempty"`
	Notes                   *string         `json:"notes,omitempty"`
}

// Snapshot is a point-in-time view of the ledger collections, the input to
// all analytics functions.
type Snapshot struct {
	Properties []Property
	Revenues   []Revenue
	Expenses   []Expense
}

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyApartment, PropertyHouse, PropertyCondo, PropertyTownhouse, PropertyStudio, PropertyOther:
		return true
	}
	return false
}

func (t RevenueType) Valid() bool {
	switch t {
	case RevenueRent, RevenueLateFee, RevenueSecurityDeposit, RevenuePetFee, RevenueOther:
		return true
	}
	return false
}

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryMaintenance, CategoryRepairs, CategoryInsurance, CategoryPropertyTax,
		CategoryUtilities, CategoryPropertyManagement, CategoryMarketing,
		CategoryLegalFees, CategoryMortgage, CategoryOther:
		return true
	}
	return false
}

func (t ExpenseType) Valid() bool {
	switch t {
	case LandlordMaintenance, LandlordRepairs, LandlordInsurance, LandlordPropertyTax,
		LandlordUtilities, LandlordManagement, ChargeableToTenant, TenantDamages,
		TenantUtilities, TenantLateFees, TenantPaidMaintenance, TenantPaidRepairs,
		TenantPaidUtilities, ExpenseTypeOther:
		return true
	}
	return false
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusPaid, StatusOverdue, StatusDisputed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions apply.
func (s InvoiceStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// ParsePropertyType matches a raw value case-insensitively.
func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidEnum
	}
	return t, nil
}

func ParseRevenueType(s string) (RevenueType, error) {
	t := RevenueType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidEnum
	}
	return t, nil
}

func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidEnum
	}
	return c, nil
}

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidEnum
	}
	return st, nil
}

func (p Property) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.Address) == "" {
		return ErrEmptyAddress
	}
	if !p.Type.Valid() {
		return ErrInvalidEnum
	}
	if p.PurchasePrice.IsNegative() {
		return ErrNegativeAmount
	}
	if p.MonthlyRent.IsNegative() {
		return ErrNegativeAmount
	}
	if p.DateAcquired.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (r Revenue) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return ErrEmptyPropertyID
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.Date.IsZero() {
		return ErrZeroDate
	}
	if !r.Type.Valid() {
		return ErrInvalidEnum
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.PropertyID) == "" {
		return ErrEmptyPropertyID
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if !e.Category.Valid() {
		return ErrInvalidEnum
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if !e.ExpenseType.Valid() {
		return ErrInvalidEnum
	}
	return nil
}

// Billed reports whether the expense has already been consumed by an invoice.
func (e Expense) Billed() bool {
	return e.InvoiceID != nil && *e.InvoiceID != ""
}

// Chargeable reports whether the expense type belongs to the family billed
// to the tenant as an added invoice line.
func (t ExpenseType) Chargeable() bool {
	switch t {
	case ChargeableToTenant, TenantDamages, TenantUtilities, TenantLateFees:
		return true
	}
	return false
}

// Deductible reports whether the expense type belongs to the tenant-paid
// family credited against rent owed.
func (t ExpenseType) Deductible() bool {
	switch t {
	case TenantPaidMaintenance, TenantPaidRepairs, TenantPaidUtilities:
		return true
	}
	return false
}
