package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
)

// In-memory repositories mirroring the SQL ones' contracts.

type fakeRefs struct {
	policy     payroll.CompanyPolicy
	components []payroll.Component
	taxTables  map[string]payroll.TaxTable
	schemes    []payroll.ContributionScheme
	rates      []payroll.ExchangeRate
}

func (f *fakeRefs) GetPolicy(_ context.Context, policyID string) (payroll.CompanyPolicy, error) {
	if f.policy.ID == policyID {
		return f.policy, nil
	}
	return payroll.CompanyPolicy{}, payroll.ErrPolicyNotFound
}

func (f *fakeRefs) GetComponentByCode(_ context.Context, code string) (payroll.Component, error) {
	for _, c := range f.components {
		if c.Code == code {
			return c, nil
		}
	}
	return payroll.Component{}, payroll.ErrComponentNotFound
}

func (f *fakeRefs) FirstEarningComponent(_ context.Context) (payroll.Component, error) {
	var earnings []payroll.Component
	for _, c := range f.components {
		if c.Kind == payroll.KindEarning {
			earnings = append(earnings, c)
		}
	}
	if len(earnings) == 0 {
		return payroll.Component{}, payroll.ErrNoEarningComponent
	}
	sort.Slice(earnings, func(i, j int) bool {
		if earnings[i].Sequence != earnings[j].Sequence {
			return earnings[i].Sequence < earnings[j].Sequence
		}
		return earnings[i].Code < earnings[j].Code
	})
	return earnings[0], nil
}

func (f *fakeRefs) ListComponents(_ context.Context) ([]payroll.Component, error) {
	out := make([]payroll.Component, len(f.components))
	copy(out, f.components)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f *fakeRefs) GetTaxTable(_ context.Context, id string) (payroll.TaxTable, error) {
	t, ok := f.taxTables[id]
	if !ok {
		return payroll.TaxTable{}, fmt.Errorf("tax table %s not found", id)
	}
	return t, nil
}

func (f *fakeRefs) ListActiveSchemes(_ context.Context, _ string) ([]payroll.ContributionScheme, error) {
	return f.schemes, nil
}

func (f *fakeRefs) LatestRateOnOrBefore(_ context.Context, base, quote string, on time.Time) (*payroll.ExchangeRate, error) {
	var best *payroll.ExchangeRate
	for i := range f.rates {
		r := f.rates[i]
		if r.Base != base || r.Quote != quote || r.Date.After(on) {
			continue
		}
		if best == nil || r.Date.After(best.Date) {
			best = &f.rates[i]
		}
	}
	return best, nil
}

type fakeComp struct {
	contracts []payroll.Contract
	recurring []payroll.RecurringAssignment
	variables []payroll.VariableInput
	nextID    int
}

func (f *fakeComp) ActiveContract(_ context.Context, employeeID string, periodStart, periodEnd time.Time) (*payroll.Contract, error) {
	var best *payroll.Contract
	for i := range f.contracts {
		c := f.contracts[i]
		if c.EmployeeID != employeeID || c.Status != payroll.ContractActive {
			continue
		}
		if c.StartDate.After(periodEnd) {
			continue
		}
		if c.EndDate != nil && c.EndDate.Before(periodStart) {
			continue
		}
		if best == nil || c.StartDate.After(best.StartDate) {
			best = &f.contracts[i]
		}
	}
	return best, nil
}

func (f *fakeComp) ListRecurring(_ context.Context, employeeID string, periodStart, periodEnd time.Time) ([]payroll.RecurringAssignment, error) {
	var out []payroll.RecurringAssignment
	for _, a := range f.recurring {
		if a.EmployeeID != employeeID || !a.Active {
			continue
		}
		if a.StartDate.After(periodEnd) {
			continue
		}
		if a.EndDate != nil && a.EndDate.Before(periodStart) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Component.Sequence < out[j].Component.Sequence })
	return out, nil
}

func (f *fakeComp) ListVariableInputs(_ context.Context, runID, employeeID string, periodStart, periodEnd time.Time) ([]payroll.VariableInput, error) {
	var out []payroll.VariableInput
	for _, v := range f.variables {
		if v.EmployeeID != employeeID {
			continue
		}
		linked := v.RunID != nil && *v.RunID == runID
		inPeriod := v.RunID == nil && !v.CreatedAt.Before(periodStart) && v.CreatedAt.Before(periodEnd.AddDate(0, 0, 1))
		if linked || inPeriod {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Component.Sequence < out[j].Component.Sequence })
	return out, nil
}

func (f *fakeComp) CreateVariableInput(_ context.Context, input payroll.VariableInput) (payroll.VariableInput, error) {
	f.nextID++
	input.ID = fmt.Sprintf("var-%d", f.nextID)
	input.CreatedAt = time.Now()
	f.variables = append(f.variables, input)
	return input, nil
}

type fakeRuns struct {
	runs     map[string]payroll.PayrollRun
	payslips map[string]payroll.Payslip
	items    map[string][]payroll.PayslipItem
	nextID   int
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{
		runs:     make(map[string]payroll.PayrollRun),
		payslips: make(map[string]payroll.Payslip),
		items:    make(map[string][]payroll.PayslipItem),
	}
}

func (f *fakeRuns) CreateRun(_ context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	for _, existing := range f.runs {
		if existing.CompanyPolicyID == run.CompanyPolicyID && existing.Year == run.Year && existing.Month == run.Month {
			return payroll.PayrollRun{}, payroll.ErrRunAlreadyExists
		}
	}
	f.nextID++
	run.ID = fmt.Sprintf("run-%d", f.nextID)
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRuns) GetRun(_ context.Context, id string) (payroll.PayrollRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return payroll.PayrollRun{}, payroll.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeRuns) ListRuns(_ context.Context, filter payroll.RunFilter) ([]payroll.PayrollRun, error) {
	var out []payroll.PayrollRun
	for _, run := range f.runs {
		if filter.PolicyID != nil && run.CompanyPolicyID != *filter.PolicyID {
			continue
		}
		if filter.Year != nil && run.Year != *filter.Year {
			continue
		}
		if filter.Status != nil && run.Status != *filter.Status {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRuns) MarkProcessed(_ context.Context, runID string, at time.Time) error {
	run, ok := f.runs[runID]
	if !ok {
		return payroll.ErrRunNotFound
	}
	run.Status = payroll.RunStatusProcessed
	run.ProcessedAt = &at
	f.runs[runID] = run
	return nil
}

func (f *fakeRuns) MarkClosed(_ context.Context, runID string, at time.Time) error {
	run, ok := f.runs[runID]
	if !ok {
		return payroll.ErrRunNotFound
	}
	run.Status = payroll.RunStatusClosed
	run.ClosedAt = &at
	f.runs[runID] = run
	for id, slip := range f.payslips {
		if slip.RunID == runID {
			slip.Finalized = true
			f.payslips[id] = slip
		}
	}
	return nil
}

func (f *fakeRuns) MarkReopened(_ context.Context, runID string) error {
	run, ok := f.runs[runID]
	if !ok {
		return payroll.ErrRunNotFound
	}
	run.Status = payroll.RunStatusDraft
	run.ProcessedAt = nil
	run.ClosedAt = nil
	f.runs[runID] = run
	return nil
}

func (f *fakeRuns) UpsertPayslip(_ context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	for id, existing := range f.payslips {
		if existing.RunID == slip.RunID && existing.EmployeeID == slip.EmployeeID {
			slip.ID = id
			f.payslips[id] = slip
			return slip, nil
		}
	}
	f.nextID++
	slip.ID = fmt.Sprintf("slip-%d", f.nextID)
	f.payslips[slip.ID] = slip
	return slip, nil
}

func (f *fakeRuns) ReplaceItems(_ context.Context, payslipID string, items []payroll.PayslipItem) error {
	stored := make([]payroll.PayslipItem, len(items))
	copy(stored, items)
	for i := range stored {
		f.nextID++
		stored[i].ID = fmt.Sprintf("item-%d", f.nextID)
		stored[i].PayslipID = payslipID
	}
	f.items[payslipID] = stored
	return nil
}

func (f *fakeRuns) DeletePayslipsByRun(_ context.Context, runID string) error {
	for id, slip := range f.payslips {
		if slip.RunID == runID {
			delete(f.payslips, id)
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeRuns) GetPayslip(_ context.Context, id string) (payroll.Payslip, error) {
	slip, ok := f.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return slip, nil
}

func (f *fakeRuns) ListPayslipsByRun(_ context.Context, runID string) ([]payroll.Payslip, error) {
	var out []payroll.Payslip
	for _, slip := range f.payslips {
		if slip.RunID == runID {
			out = append(out, slip)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakeRuns) ListPayslipsByEmployee(_ context.Context, employeeID string) ([]payroll.Payslip, error) {
	var out []payroll.Payslip
	for _, slip := range f.payslips {
		if slip.EmployeeID == employeeID {
			out = append(out, slip)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRuns) ListItems(_ context.Context, payslipID string) ([]payroll.PayslipItem, error) {
	return f.items[payslipID], nil
}

func (f *fakeRuns) CountPayslipsByRun(_ context.Context, runID string) (int, error) {
	count := 0
	for _, slip := range f.payslips {
		if slip.RunID == runID {
			count++
		}
	}
	return count, nil
}

type fakeEmployees struct {
	employees []employee.Employee
	comp      *fakeComp
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployees) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployees) ListPayrollCandidates(ctx context.Context, policyID string, periodStart, periodEnd time.Time) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyPolicyID != policyID || !e.IsActive {
			continue
		}
		contract, err := f.comp.ActiveContract(ctx, e.ID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		if contract == nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type suspensionWindow struct {
	start   time.Time
	end     *time.Time
	suspend bool
}

type fakeSituations struct {
	windows map[string][]suspensionWindow
}

func (f *fakeSituations) HasSuspending(_ context.Context, employeeID string, on time.Time) (bool, error) {
	for _, w := range f.windows[employeeID] {
		if !w.suspend {
			continue
		}
		if w.start.After(on) {
			continue
		}
		if w.end != nil && w.end.Before(on) {
			continue
		}
		return true, nil
	}
	return false, nil
}
