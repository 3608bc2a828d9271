package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency - ISO 4217 reference row
type Currency struct {
	Code string
	Name string
}

// ExchangeRate - dated conversion rate between two currencies.
// Multiple rows per pair; the engine picks the most recent row with
// date <= period end.
type ExchangeRate struct {
	ID    string
	Base  string
	Quote string
	Date  time.Time
	Rate  decimal.Decimal
}

// ComponentKind enum
type ComponentKind string

const (
	KindEarning   ComponentKind = "EARNING"
	KindDeduction ComponentKind = "DEDUCTION"
	KindEmployer  ComponentKind = "EMPLOYER"
)

// Component - catalog entry for a payslip line (BASIC, ALW_TRANSPORT,
// LOAN_REPAY, PENSION_ER, ...)
type Component struct {
	ID           string
	Code         string
	Name         string
	Kind         ComponentKind
	Taxable      bool
	Contributory bool
	PreTax       bool
	Percentage   *decimal.Decimal
	Sequence     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaxBracket - one progressive slab. Upper nil means unbounded.
type TaxBracket struct {
	ID    string
	Lower decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// TaxTable - country-specific progressive brackets with a validity window.
// Brackets are ordered ascending by Lower and partition taxable income.
type TaxTable struct {
	ID        string
	Country   string
	ValidFrom time.Time
	ValidTo   *time.Time
	Brackets  []TaxBracket
}

// ContributionScheme - statutory contribution (pension, health, ...) with
// employee/employer rates and an optional cap on the contribution base.
type ContributionScheme struct {
	ID                       string
	Code                     string
	Name                     string
	EmployeeRate             decimal.Decimal
	EmployerRate             decimal.Decimal
	ValidFrom                time.Time
	ValidTo                  *time.Time
	Cap                      *decimal.Decimal
	IncludeTaxableAllowances bool
}

// ProrationMethod enum
type ProrationMethod string

const (
	ProrationCalendar ProrationMethod = "CALENDAR"
	ProrationWorking  ProrationMethod = "WORKING"
)

// CompanyPolicy - company-level payroll knobs: settlement currency,
// proration method, active tax table and contribution schemes.
type CompanyPolicy struct {
	ID              string
	Name            string
	Country         string
	CurrencyCode    string
	ProrationMethod ProrationMethod
	ActiveTaxTable  *string
	CutoffDay       *int
	PayDay          *int
	CreatedAt       time.Time
}

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusProcessed RunStatus = "processed"
	RunStatusClosed    RunStatus = "closed"
)

// PayrollRun - one (policy, year, month) computation cycle.
type PayrollRun struct {
	ID              string
	CompanyPolicyID string
	Year            int
	Month           int
	Status          RunStatus
	GeneratedAt     time.Time
	ProcessedAt     *time.Time
	ClosedAt        *time.Time
	Note            *string

	// Joined fields
	PolicyName *string
}

// ContractStatus enum
type ContractStatus string

const (
	ContractActive     ContractStatus = "ACTIVE"
	ContractExpired    ContractStatus = "EXPIRED"
	ContractTerminated ContractStatus = "TERMINATED"
)

// Contract - salary agreement for an employee. The engine selects the
// ACTIVE contract overlapping the run period with the most recent start.
type Contract struct {
	ID           string
	EmployeeID   string
	ContractType string
	Salary       decimal.Decimal
	CurrencyCode *string
	StartDate    time.Time
	EndDate      *time.Time
	Status       ContractStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecurringAssignment - standing allowance/deduction for an employee.
// Either a fixed Amount or a Percentage of the prorated basic.
type RecurringAssignment struct {
	ID          string
	EmployeeID  string
	ComponentID string
	Amount      decimal.Decimal
	Percentage  *decimal.Decimal
	StartDate   time.Time
	EndDate     *time.Time
	Active      bool
	Note        *string
	CreatedAt   time.Time

	// Joined fields
	Component *Component
}

// VariableInput - one-off input for a run (overtime, bonus, advance...).
// Amount wins when set; otherwise Quantity x Rate.
type VariableInput struct {
	ID          string
	RunID       *string
	EmployeeID  string
	ComponentID string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Note        *string
	CreatedBy   *string
	CreatedAt   time.Time

	// Joined fields
	Component *Component
}

// Payslip - computed pay result for one employee within one run.
// Unique per (run, employee); overwritten on each recompute until the run
// is closed.
type Payslip struct {
	ID              string
	RunID           string
	EmployeeID      string
	BaseSalary      decimal.Decimal
	GrossPay        decimal.Decimal
	TaxableGross    decimal.Decimal
	EmployeeContrib decimal.Decimal
	EmployerContrib decimal.Decimal
	IncomeTax       decimal.Decimal
	OtherDeductions decimal.Decimal
	NetPay          decimal.Decimal
	CurrencyCode    string
	Finalized       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	EmployeeName *string
	Items        []PayslipItem
}

// Item provenance source values stored in PayslipItem.Meta["source"].
const (
	ItemSourceBasic     = "basic"
	ItemSourceRecurring = "recurring"
	ItemSourceVariable  = "variable"
)

// PayslipItem - one line of a payslip. Meta records provenance (source
// kind plus originating record id). Items are fully replaced on recompute.
type PayslipItem struct {
	ID          string
	PayslipID   string
	ComponentID string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Meta        map[string]interface{}

	// Joined fields
	ComponentCode *string
	ComponentName *string
	Kind          ComponentKind
	Taxable       bool
	Contributory  bool
	PreTax        bool
	Sequence      int
}

// MissingRatePolicy decides what happens when no exchange rate exists for
// a conversion: fall back to 1:1 like the legacy behavior, or abort the run.
type MissingRatePolicy string

const (
	MissingRateIdentity MissingRatePolicy = "identity"
	MissingRateFail     MissingRatePolicy = "fail"
)
