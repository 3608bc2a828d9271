package payroll

import (
	"context"
	"time"
)

// ReferenceRepository reads the slowly-changing configuration the engine
// consumes: components, tax tables, contribution schemes, exchange rates.
type ReferenceRepository interface {
	GetPolicy(ctx context.Context, policyID string) (CompanyPolicy, error)

	GetComponentByCode(ctx context.Context, code string) (Component, error)
	// FirstEarningComponent returns the EARNING component with the lowest
	// display sequence, or ErrNoEarningComponent when none exists.
	FirstEarningComponent(ctx context.Context) (Component, error)
	ListComponents(ctx context.Context) ([]Component, error)

	// GetTaxTable returns the table with its brackets ordered by lower bound.
	GetTaxTable(ctx context.Context, id string) (TaxTable, error)
	ListActiveSchemes(ctx context.Context, policyID string) ([]ContributionScheme, error)

	// LatestRateOnOrBefore returns the most recent rate for base->quote with
	// date <= on, or nil when no rate exists.
	LatestRateOnOrBefore(ctx context.Context, base, quote string, on time.Time) (*ExchangeRate, error)
}

// CompensationRepository reads the per-employee financial facts for a period.
type CompensationRepository interface {
	// ActiveContract returns the ACTIVE contract overlapping the period with
	// the most recent start date, or nil when the employee has none.
	ActiveContract(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) (*Contract, error)

	// ListRecurring returns active assignments overlapping the period,
	// ordered by component sequence, with Component populated.
	ListRecurring(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]RecurringAssignment, error)

	// ListVariableInputs returns inputs linked to the run plus unlinked
	// inputs created inside the period, ordered by component sequence, with
	// Component populated.
	ListVariableInputs(ctx context.Context, runID, employeeID string, periodStart, periodEnd time.Time) ([]VariableInput, error)

	CreateVariableInput(ctx context.Context, input VariableInput) (VariableInput, error)
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	PolicyID *string
	Year     *int
	Status   *RunStatus
}

// RunRepository persists runs, payslips and payslip items.
type RunRepository interface {
	CreateRun(ctx context.Context, run PayrollRun) (PayrollRun, error)
	GetRun(ctx context.Context, id string) (PayrollRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]PayrollRun, error)

	MarkProcessed(ctx context.Context, runID string, at time.Time) error
	MarkClosed(ctx context.Context, runID string, at time.Time) error
	// MarkReopened resets status to draft and clears processed_at/closed_at.
	MarkReopened(ctx context.Context, runID string) error

	// UpsertPayslip inserts or overwrites the (run, employee) payslip and
	// returns the stored row.
	UpsertPayslip(ctx context.Context, slip Payslip) (Payslip, error)
	// ReplaceItems deletes all items of the payslip and writes the new set.
	ReplaceItems(ctx context.Context, payslipID string, items []PayslipItem) error
	DeletePayslipsByRun(ctx context.Context, runID string) error

	GetPayslip(ctx context.Context, id string) (Payslip, error)
	ListPayslipsByRun(ctx context.Context, runID string) ([]Payslip, error)
	ListPayslipsByEmployee(ctx context.Context, employeeID string) ([]Payslip, error)
	ListItems(ctx context.Context, payslipID string) ([]PayslipItem, error)
	CountPayslipsByRun(ctx context.Context, runID string) (int, error)
}
