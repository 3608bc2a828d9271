package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fixture struct {
	refs *fakeRefs
	comp *fakeComp
	runs *fakeRuns
	emps *fakeEmployees
	sits *fakeSituations
	run  payroll.PayrollRun
}

// newFixture builds a June 2025 run for one active employee with a
// 900000 XAF contract and a BASIC component.
func newFixture(method payroll.ProrationMethod) *fixture {
	refs := &fakeRefs{
		policy: payroll.CompanyPolicy{
			ID:              "pol-1",
			Name:            "Headquarters",
			Country:         "GQ",
			CurrencyCode:    "XAF",
			ProrationMethod: method,
		},
		components: []payroll.Component{
			{ID: "c-basic", Code: "BASIC", Name: "Basic Salary", Kind: payroll.KindEarning, Taxable: true, Contributory: true, Sequence: 1},
		},
		taxTables: make(map[string]payroll.TaxTable),
	}

	comp := &fakeComp{
		contracts: []payroll.Contract{
			{
				ID:         "ct-1",
				EmployeeID: "emp-1",
				Salary:     dec("900000"),
				StartDate:  day(2020, time.January, 1),
				Status:     payroll.ContractActive,
			},
		},
	}

	runs := newFakeRuns()
	run := payroll.PayrollRun{
		ID:              "run-1",
		CompanyPolicyID: "pol-1",
		Year:            2025,
		Month:           6,
		Status:          payroll.RunStatusDraft,
		GeneratedAt:     time.Now(),
	}
	runs.runs[run.ID] = run

	emps := &fakeEmployees{
		employees: []employee.Employee{
			{
				ID:              "emp-1",
				UserID:          strPtr("user-1"),
				CompanyPolicyID: "pol-1",
				FirstName:       "Ada",
				LastName:        "Obiang",
				IsActive:        true,
				HireDate:        timePtr(day(2020, time.January, 1)),
			},
		},
		comp: comp,
	}

	return &fixture{
		refs: refs,
		comp: comp,
		runs: runs,
		emps: emps,
		sits: &fakeSituations{windows: make(map[string][]suspensionWindow)},
		run:  run,
	}
}

func (f *fixture) engine() *Engine {
	return NewEngine(f.run, f.refs.policy, f.refs, f.comp, f.runs, f.emps, f.sits, payroll.MissingRateIdentity)
}

func (f *fixture) employee() employee.Employee {
	return f.emps.employees[0]
}

// ---------------- full run ----------------

func TestComputeRun_FullMonth(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	ctx := context.Background()

	ids, err := f.engine().ComputeRun(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	slip, err := f.runs.GetPayslip(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "900000.00", slip.BaseSalary.StringFixed(2))
	assert.Equal(t, "900000.00", slip.GrossPay.StringFixed(2))
	assert.Equal(t, "900000.00", slip.TaxableGross.StringFixed(2))
	assert.Equal(t, "0.00", slip.IncomeTax.StringFixed(2))
	assert.Equal(t, "900000.00", slip.NetPay.StringFixed(2))
	assert.Equal(t, "XAF", slip.CurrencyCode)

	items, err := f.runs.ListItems(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, payroll.ItemSourceBasic, items[0].Meta["source"])

	run, err := f.runs.GetRun(ctx, f.run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusProcessed, run.Status)
	require.NotNil(t, run.ProcessedAt)
}

func TestComputeRun_Idempotent(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	ctx := context.Background()

	first, err := f.engine().ComputeRun(ctx)
	require.NoError(t, err)

	second, err := f.engine().ComputeRun(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	count, err := f.runs.CountPayslipsByRun(ctx, f.run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestComputeRun_MissingSettlementCurrency(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.refs.policy.CurrencyCode = ""

	_, err := f.engine().ComputeRun(context.Background())
	assert.ErrorIs(t, err, payroll.ErrMissingSettlementCurrency)
}

// ---------------- proration ----------------

func TestProration_CalendarMidMonthHire(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.emps.employees[0].HireDate = timePtr(day(2025, time.June, 16))
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	// 15 of 30 days in June
	assert.Equal(t, "450000.00", slip.BaseSalary.StringFixed(2))
}

func TestProration_WorkingDays(t *testing.T) {
	f := newFixture(payroll.ProrationWorking)
	f.emps.employees[0].HireDate = timePtr(day(2025, time.June, 16))
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	// June 2025 has 21 weekdays, 11 of them from the 16th on
	assert.Equal(t, "471428.57", slip.BaseSalary.StringFixed(2))
}

func TestProration_InvertedWindowIsZero(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	e := f.engine()

	emp := f.employee()
	emp.TerminationDate = timePtr(day(2025, time.May, 20))

	got := e.prorate(dec("900000"), emp)
	assert.True(t, got.IsZero())
}

func TestProration_TerminationMidMonth(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.emps.employees[0].TerminationDate = timePtr(day(2025, time.June, 15))
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	assert.Equal(t, "450000.00", slip.BaseSalary.StringFixed(2))
}

// ---------------- eligibility ----------------

func TestEligibility_InactiveEmployeeSkipped(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.emps.employees[0].IsActive = false
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	assert.Nil(t, slip)
}

func TestEligibility_SuspendedAtReferenceDateSkipped(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.sits.windows["emp-1"] = []suspensionWindow{
		{start: day(2025, time.June, 1), suspend: true},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	assert.Nil(t, slip)
}

func TestEligibility_SuspensionEndedBeforeReferenceDate(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.sits.windows["emp-1"] = []suspensionWindow{
		{start: day(2025, time.June, 1), end: timePtr(day(2025, time.June, 10)), suspend: true},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)
	assert.Equal(t, "900000.00", slip.BaseSalary.StringFixed(2))
}

func TestEligibility_NoSituationSupportFallsBackToActiveFlag(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	engine := NewEngine(f.run, f.refs.policy, f.refs, f.comp, f.runs, f.emps, nil, payroll.MissingRateIdentity)

	slip, err := engine.ComputeForEmployee(context.Background(), f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)
}

// ---------------- currency conversion ----------------

func TestFx_ConversionAtPeriodEnd(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.comp.contracts[0].Salary = dec("1000")
	f.comp.contracts[0].CurrencyCode = strPtr("EUR")
	f.refs.rates = []payroll.ExchangeRate{
		{ID: "r-1", Base: "EUR", Quote: "XAF", Date: day(2025, time.June, 1), Rate: dec("650")},
		{ID: "r-2", Base: "EUR", Quote: "XAF", Date: day(2025, time.June, 15), Rate: dec("655.957")},
		{ID: "r-3", Base: "EUR", Quote: "XAF", Date: day(2025, time.July, 1), Rate: dec("660")},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	// Most recent rate on or before June 30
	assert.Equal(t, "655957.00", slip.BaseSalary.StringFixed(2))
}

func TestFx_MissingRateIdentityFallback(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.comp.contracts[0].CurrencyCode = strPtr("USD")
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)
	assert.Equal(t, "900000.00", slip.BaseSalary.StringFixed(2))
}

func TestFx_MissingRateFailPolicy(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.comp.contracts[0].CurrencyCode = strPtr("USD")
	engine := NewEngine(f.run, f.refs.policy, f.refs, f.comp, f.runs, f.emps, f.sits, payroll.MissingRateFail)

	_, err := engine.ComputeForEmployee(context.Background(), f.employee())
	assert.ErrorIs(t, err, payroll.ErrMissingExchangeRate)
}

// ---------------- basic component resolution ----------------

func TestBasicComponent_FallbackToFirstEarning(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.refs.components = []payroll.Component{
		{ID: "c-alw", Code: "ALW_TRANSPORT", Name: "Transport", Kind: payroll.KindEarning, Taxable: true, Sequence: 5},
		{ID: "c-sal", Code: "SALARY", Name: "Salary", Kind: payroll.KindEarning, Taxable: true, Contributory: true, Sequence: 2},
	}
	ctx := context.Background()

	ids, err := f.engine().ComputeRun(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	items, err := f.runs.ListItems(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c-sal", items[0].ComponentID)
}

func TestBasicComponent_NoEarningConfigured(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.refs.components = []payroll.Component{
		{ID: "c-loan", Code: "LOAN_REPAY", Name: "Loan", Kind: payroll.KindDeduction, Sequence: 1},
	}

	_, err := f.engine().ComputeRun(context.Background())
	assert.ErrorIs(t, err, payroll.ErrNoEarningComponent)
}

// ---------------- recurring & variable lines ----------------

func TestRecurring_FixedAndPercentage(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	transport := payroll.Component{ID: "c-trn", Code: "ALW_TRANSPORT", Name: "Transport", Kind: payroll.KindEarning, Taxable: true, Sequence: 2}
	housing := payroll.Component{ID: "c-hou", Code: "ALW_HOUSING", Name: "Housing", Kind: payroll.KindEarning, Taxable: true, Sequence: 3}
	f.refs.components = append(f.refs.components, transport, housing)
	f.comp.recurring = []payroll.RecurringAssignment{
		{ID: "ra-1", EmployeeID: "emp-1", ComponentID: "c-trn", Amount: dec("50000"), StartDate: day(2025, time.January, 1), Active: true, Component: &transport},
		{ID: "ra-2", EmployeeID: "emp-1", ComponentID: "c-hou", Percentage: decPtr("0.10"), StartDate: day(2025, time.January, 1), Active: true, Component: &housing},
		{ID: "ra-3", EmployeeID: "emp-1", ComponentID: "c-trn", Amount: dec("0"), StartDate: day(2025, time.January, 1), Active: true, Component: &transport},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	items, err := f.runs.ListItems(ctx, slip.ID)
	require.NoError(t, err)
	// basic + fixed transport + 10% housing; the zero-amount assignment is dropped
	require.Len(t, items, 3)
	assert.Equal(t, "50000.00", items[1].Amount.StringFixed(2))
	assert.Equal(t, "ra-1", items[1].Meta["assignment_id"])
	assert.Equal(t, "90000.00", items[2].Amount.StringFixed(2))
	assert.Equal(t, "1040000.00", slip.GrossPay.StringFixed(2))
}

func TestVariable_AmountWinsOverQuantityRate(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	overtime := payroll.Component{ID: "c-ot", Code: "OVERTIME", Name: "Overtime", Kind: payroll.KindEarning, Taxable: true, Sequence: 4}
	f.refs.components = append(f.refs.components, overtime)
	runID := f.run.ID
	f.comp.variables = []payroll.VariableInput{
		{ID: "v-1", RunID: &runID, EmployeeID: "emp-1", ComponentID: "c-ot", Quantity: dec("3"), Rate: dec("10"), Amount: dec("75000"), Component: &overtime},
		{ID: "v-2", RunID: &runID, EmployeeID: "emp-1", ComponentID: "c-ot", Quantity: dec("4"), Rate: dec("2500"), Amount: dec("0"), Note: strPtr("weekend shift"), Component: &overtime},
		{ID: "v-3", RunID: &runID, EmployeeID: "emp-1", ComponentID: "c-ot", Quantity: dec("0"), Rate: dec("0"), Amount: dec("0"), Component: &overtime},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	items, err := f.runs.ListItems(ctx, slip.ID)
	require.NoError(t, err)
	// basic + two non-zero variable lines
	require.Len(t, items, 3)
	assert.Equal(t, "75000.00", items[1].Amount.StringFixed(2))
	assert.Equal(t, "v-1", items[1].Meta["variable_id"])
	assert.Equal(t, "10000.00", items[2].Amount.StringFixed(2))
	assert.Equal(t, "weekend shift", items[2].Meta["note"])
}

func TestVariable_UnlinkedInputInsidePeriod(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	bonus := payroll.Component{ID: "c-bon", Code: "BONUS", Name: "Bonus", Kind: payroll.KindEarning, Taxable: true, Sequence: 4}
	f.refs.components = append(f.refs.components, bonus)
	f.comp.variables = []payroll.VariableInput{
		{ID: "v-in", EmployeeID: "emp-1", ComponentID: "c-bon", Amount: dec("30000"), CreatedAt: day(2025, time.June, 10), Component: &bonus},
		{ID: "v-out", EmployeeID: "emp-1", ComponentID: "c-bon", Amount: dec("99999"), CreatedAt: day(2025, time.May, 10), Component: &bonus},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	items, err := f.runs.ListItems(ctx, slip.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "30000.00", items[1].Amount.StringFixed(2))
}

// ---------------- tax & contributions ----------------

func progressiveTable() payroll.TaxTable {
	return payroll.TaxTable{
		ID:      "tt-1",
		Country: "GQ",
		Brackets: []payroll.TaxBracket{
			{ID: "b-1", Lower: dec("0"), Upper: decPtr("600000"), Rate: dec("0")},
			{ID: "b-2", Lower: dec("600000"), Upper: decPtr("1560000"), Rate: dec("0.15")},
			{ID: "b-3", Lower: dec("1560000"), Rate: dec("0.25")},
		},
	}
}

func TestComputeTax_Progressive(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.refs.taxTables["tt-1"] = progressiveTable()
	f.refs.policy.ActiveTaxTable = strPtr("tt-1")
	e := f.engine()
	ctx := context.Background()

	cases := []struct {
		base string
		want string
	}{
		{"0", "0.00"},
		{"600000", "0.00"},
		{"1000000", "60000.00"},
		{"1200000", "90000.00"},
		{"1560000", "144000.00"},
		{"2000000", "254000.00"},
	}
	for _, c := range cases {
		got, err := e.computeTax(ctx, dec(c.base))
		require.NoError(t, err)
		assert.Equal(t, c.want, got.StringFixed(2), "base %s", c.base)
	}
}

func TestComputeTax_NoActiveTable(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	got, err := f.engine().computeTax(context.Background(), dec("1000000"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestContributions_CapAppliesPerScheme(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.refs.schemes = []payroll.ContributionScheme{
		{ID: "s-1", Code: "INSESO", EmployeeRate: dec("0.05"), EmployerRate: dec("0.10"), Cap: decPtr("500000")},
	}
	e := f.engine()

	ee, er, err := e.applyContributions(context.Background(), dec("900000"))
	require.NoError(t, err)
	assert.Equal(t, "25000.00", ee.StringFixed(2))
	assert.Equal(t, "50000.00", er.StringFixed(2))
}

// ---------------- aggregation ----------------

func TestComputeForEmployee_NetIdentity(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	transport := payroll.Component{ID: "c-trn", Code: "ALW_TRANSPORT", Name: "Transport", Kind: payroll.KindEarning, Taxable: true, Sequence: 2}
	pension := payroll.Component{ID: "c-pen", Code: "PENSION_VOL", Name: "Voluntary Pension", Kind: payroll.KindDeduction, PreTax: true, Sequence: 3}
	loan := payroll.Component{ID: "c-loan", Code: "LOAN_REPAY", Name: "Loan Repayment", Kind: payroll.KindDeduction, Sequence: 4}
	training := payroll.Component{ID: "c-trg", Code: "TRAINING_ER", Name: "Training Levy", Kind: payroll.KindEmployer, Sequence: 5}
	f.refs.components = append(f.refs.components, transport, pension, loan, training)
	f.refs.taxTables["tt-1"] = progressiveTable()
	f.refs.policy.ActiveTaxTable = strPtr("tt-1")
	f.refs.schemes = []payroll.ContributionScheme{
		{ID: "s-1", Code: "INSESO", EmployeeRate: dec("0.05"), EmployerRate: dec("0.10")},
	}
	f.comp.recurring = []payroll.RecurringAssignment{
		{ID: "ra-1", EmployeeID: "emp-1", ComponentID: "c-trn", Amount: dec("50000"), StartDate: day(2025, time.January, 1), Active: true, Component: &transport},
		{ID: "ra-2", EmployeeID: "emp-1", ComponentID: "c-pen", Amount: dec("40000"), StartDate: day(2025, time.January, 1), Active: true, Component: &pension},
		{ID: "ra-3", EmployeeID: "emp-1", ComponentID: "c-loan", Amount: dec("10000"), StartDate: day(2025, time.January, 1), Active: true, Component: &loan},
		{ID: "ra-4", EmployeeID: "emp-1", ComponentID: "c-trg", Amount: dec("20000"), StartDate: day(2025, time.January, 1), Active: true, Component: &training},
	}
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)

	// Earnings: basic 900000 + transport 50000
	assert.Equal(t, "950000.00", slip.GrossPay.StringFixed(2))
	assert.Equal(t, "950000.00", slip.TaxableGross.StringFixed(2))

	// Contributions on the contributory base (basic only)
	assert.Equal(t, "45000.00", slip.EmployeeContrib.StringFixed(2))
	// Employer share plus the EMPLOYER-kind line
	assert.Equal(t, "110000.00", slip.EmployerContrib.StringFixed(2))

	// Tax base 950000 - 45000 - 40000 = 865000 -> 15% above 600000
	assert.Equal(t, "39750.00", slip.IncomeTax.StringFixed(2))

	assert.Equal(t, "50000.00", slip.OtherDeductions.StringFixed(2))

	// net = gross - ee - tax - other deductions; employer lines never reduce it
	expected := slip.GrossPay.Sub(slip.EmployeeContrib).Sub(slip.IncomeTax).Sub(slip.OtherDeductions)
	assert.Equal(t, expected.StringFixed(2), slip.NetPay.StringFixed(2))
	assert.Equal(t, "815250.00", slip.NetPay.StringFixed(2))
}

func TestComputeForEmployee_NoContractZeroBase(t *testing.T) {
	f := newFixture(payroll.ProrationCalendar)
	f.comp.contracts = nil
	ctx := context.Background()

	slip, err := f.engine().ComputeForEmployee(ctx, f.employee())
	require.NoError(t, err)
	require.NotNil(t, slip)
	assert.True(t, slip.BaseSalary.IsZero())
	assert.True(t, slip.NetPay.IsZero())
}
