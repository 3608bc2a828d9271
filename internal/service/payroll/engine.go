package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/situation"
	"github.com/shopspring/decimal"
)

// round2 rounds to 2 decimal places, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Engine computes payslips for one payroll run:
//   - BASIC from the active contract, converted to the policy currency and
//     prorated per policy (CALENDAR / WORKING)
//   - recurring assignments (fixed amount or percentage of prorated basic)
//   - variable inputs (explicit amount or quantity x rate)
//   - EE/ER contributions from the policy's active schemes, with caps
//   - progressive income tax from the policy's active tax table
//   - EMPLOYER-kind lines recorded but excluded from net pay
type Engine struct {
	run    payroll.PayrollRun
	policy payroll.CompanyPolicy

	refs       payroll.ReferenceRepository
	comp       payroll.CompensationRepository
	runs       payroll.RunRepository
	employees  employee.Repository
	situations situation.Repository

	onMissingRate payroll.MissingRatePolicy

	basic *payroll.Component
}

// NewEngine builds an engine for one run. situations may be nil when no
// situation data is available; eligibility then falls back to the active
// flag alone.
func NewEngine(
	run payroll.PayrollRun,
	policy payroll.CompanyPolicy,
	refs payroll.ReferenceRepository,
	comp payroll.CompensationRepository,
	runs payroll.RunRepository,
	employees employee.Repository,
	situations situation.Repository,
	onMissingRate payroll.MissingRatePolicy,
) *Engine {
	if onMissingRate == "" {
		onMissingRate = payroll.MissingRateIdentity
	}
	return &Engine{
		run:           run,
		policy:        policy,
		refs:          refs,
		comp:          comp,
		runs:          runs,
		employees:     employees,
		situations:    situations,
		onMissingRate: onMissingRate,
	}
}

// ---------------- utilities ----------------

func (e *Engine) periodBounds() (time.Time, time.Time, int) {
	start := time.Date(e.run.Year, time.Month(e.run.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end, end.Day()
}

// workingDaysIn counts Mon-Fri days between start and end inclusive.
func workingDaysIn(start, end time.Time) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// referenceDate is the mid-month eligibility check date: day 15, or the
// last day when the month is shorter.
func (e *Engine) referenceDate() time.Time {
	_, end, days := e.periodBounds()
	day := 15
	if days < day {
		day = days
	}
	return time.Date(end.Year(), end.Month(), day, 0, 0, 0, 0, time.UTC)
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// eligible checks whether the employee participates in this run: the
// employee must be active and must have no suspend-payroll situation
// covering the reference date.
func (e *Engine) eligible(ctx context.Context, emp employee.Employee) (bool, error) {
	if !emp.IsActive {
		return false, nil
	}
	if e.situations == nil {
		return true, nil
	}
	suspended, err := e.situations.HasSuspending(ctx, emp.ID, e.referenceDate())
	if err != nil {
		return false, fmt.Errorf("check suspending situations for employee %s: %w", emp.ID, err)
	}
	return !suspended, nil
}

// prorate scales an amount by the fraction of the period the employee was
// employed, per the policy's proration method.
func (e *Engine) prorate(amount decimal.Decimal, emp employee.Employee) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	pstart, pend, totalDays := e.periodBounds()

	hire := pstart
	if emp.HireDate != nil {
		hire = *emp.HireDate
	}
	activeStart := maxDate(pstart, hire)
	activeEnd := pend
	if emp.TerminationDate != nil {
		activeEnd = minDate(pend, *emp.TerminationDate)
	}
	if activeEnd.Before(activeStart) {
		return decimal.Zero
	}

	var total, part int64
	if e.policy.ProrationMethod == payroll.ProrationWorking {
		total = int64(workingDaysIn(pstart, pend))
		part = int64(workingDaysIn(activeStart, activeEnd))
	} else {
		total = int64(totalDays)
		part = int64(activeEnd.Sub(activeStart).Hours()/24) + 1
	}

	if total <= 0 {
		return round2(amount)
	}
	return round2(amount.Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(total)))
}

// fxToPolicyCurrency converts an amount into the policy's settlement
// currency using the most recent rate on or before the period end. Missing
// rates follow the configured policy: identity keeps the amount unchanged,
// fail aborts the run.
func (e *Engine) fxToPolicyCurrency(ctx context.Context, amount decimal.Decimal, fromCurrency *string) (decimal.Decimal, error) {
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if fromCurrency == nil || *fromCurrency == "" || *fromCurrency == e.policy.CurrencyCode {
		return round2(amount), nil
	}

	_, pend, _ := e.periodBounds()
	rate, err := e.refs.LatestRateOnOrBefore(ctx, *fromCurrency, e.policy.CurrencyCode, pend)
	if err != nil {
		return decimal.Zero, fmt.Errorf("look up exchange rate %s->%s: %w", *fromCurrency, e.policy.CurrencyCode, err)
	}
	if rate == nil {
		if e.onMissingRate == payroll.MissingRateFail {
			return decimal.Zero, fmt.Errorf("%w: %s->%s", payroll.ErrMissingExchangeRate, *fromCurrency, e.policy.CurrencyCode)
		}
		// Lossy 1:1 fallback, kept from the legacy behavior.
		return round2(amount), nil
	}
	return round2(amount.Mul(rate.Rate)), nil
}

// basicComponent resolves the component used for the basic salary line:
// the one coded BASIC, else the first EARNING component by sequence.
func (e *Engine) basicComponent(ctx context.Context) (payroll.Component, error) {
	if e.basic != nil {
		return *e.basic, nil
	}
	comp, err := e.refs.GetComponentByCode(ctx, "BASIC")
	if err != nil {
		if err != payroll.ErrComponentNotFound {
			return payroll.Component{}, err
		}
		comp, err = e.refs.FirstEarningComponent(ctx)
		if err != nil {
			return payroll.Component{}, err
		}
	}
	e.basic = &comp
	return comp, nil
}

func draftItem(c payroll.Component, quantity, rate, amount decimal.Decimal, meta map[string]interface{}) payroll.PayslipItem {
	code := c.Code
	name := c.Name
	return payroll.PayslipItem{
		ComponentID:   c.ID,
		Quantity:      quantity,
		Rate:          rate,
		Amount:        amount,
		Meta:          meta,
		ComponentCode: &code,
		ComponentName: &name,
		Kind:          c.Kind,
		Taxable:       c.Taxable,
		Contributory:  c.Contributory,
		PreTax:        c.PreTax,
		Sequence:      c.Sequence,
	}
}

// -------------- collectors (lines) --------------

func (e *Engine) collectRecurring(ctx context.Context, emp employee.Employee, baseForPct decimal.Decimal) ([]payroll.PayslipItem, error) {
	pstart, pend, _ := e.periodBounds()
	rows, err := e.comp.ListRecurring(ctx, emp.ID, pstart, pend)
	if err != nil {
		return nil, fmt.Errorf("list recurring assignments for employee %s: %w", emp.ID, err)
	}

	var items []payroll.PayslipItem
	for _, r := range rows {
		if r.Component == nil {
			continue
		}
		amt := r.Amount
		if amt.IsZero() && r.Percentage != nil {
			amt = baseForPct.Mul(*r.Percentage)
		}
		amt = round2(amt)
		if amt.IsZero() {
			continue
		}
		items = append(items, draftItem(*r.Component, decimal.NewFromInt(1), amt, amt, map[string]interface{}{
			"source":        payroll.ItemSourceRecurring,
			"assignment_id": r.ID,
		}))
	}
	return items, nil
}

func (e *Engine) collectVariables(ctx context.Context, emp employee.Employee) ([]payroll.PayslipItem, error) {
	pstart, pend, _ := e.periodBounds()
	rows, err := e.comp.ListVariableInputs(ctx, e.run.ID, emp.ID, pstart, pend)
	if err != nil {
		return nil, fmt.Errorf("list variable inputs for employee %s: %w", emp.ID, err)
	}

	var items []payroll.PayslipItem
	for _, v := range rows {
		if v.Component == nil {
			continue
		}
		amt := v.Amount
		if amt.IsZero() {
			amt = v.Quantity.Mul(v.Rate)
		}
		amt = round2(amt)
		if amt.IsZero() {
			continue
		}

		qty := v.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		rate := v.Rate
		if rate.IsZero() {
			rate = amt
		}
		meta := map[string]interface{}{
			"source":      payroll.ItemSourceVariable,
			"variable_id": v.ID,
		}
		if v.Note != nil && *v.Note != "" {
			meta["note"] = *v.Note
		}
		items = append(items, draftItem(*v.Component, qty, round2(rate), amt, meta))
	}
	return items, nil
}

// -------------- taxes & contributions --------------

// computeTax walks the active tax table's brackets in ascending order and
// accumulates the progressive tax on the given base. A single rounding is
// applied to the final figure.
func (e *Engine) computeTax(ctx context.Context, base decimal.Decimal) (decimal.Decimal, error) {
	if e.policy.ActiveTaxTable == nil {
		return decimal.Zero, nil
	}
	table, err := e.refs.GetTaxTable(ctx, *e.policy.ActiveTaxTable)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load tax table %s: %w", *e.policy.ActiveTaxTable, err)
	}

	if base.IsNegative() {
		base = decimal.Zero
	}
	tax := decimal.Zero
	for _, br := range table.Brackets {
		if base.LessThanOrEqual(br.Lower) {
			break
		}
		slabTop := base
		if br.Upper != nil {
			slabTop = *br.Upper
		}
		slab := decimal.Min(base, slabTop).Sub(br.Lower)
		if slab.IsNegative() {
			slab = decimal.Zero
		}
		tax = tax.Add(slab.Mul(br.Rate))
		if br.Upper == nil || base.LessThanOrEqual(*br.Upper) {
			break
		}
	}
	return round2(tax), nil
}

// applyContributions sums employee and employer contributions across the
// policy's active schemes, capping the base per scheme.
func (e *Engine) applyContributions(ctx context.Context, base decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	schemes, err := e.refs.ListActiveSchemes(ctx, e.policy.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("list contribution schemes: %w", err)
	}

	ee := decimal.Zero
	er := decimal.Zero
	for _, sch := range schemes {
		b := base
		if sch.Cap != nil {
			b = decimal.Min(b, *sch.Cap)
		}
		ee = ee.Add(b.Mul(sch.EmployeeRate))
		er = er.Add(b.Mul(sch.EmployerRate))
	}
	return round2(ee), round2(er), nil
}

// -------------- main compute --------------

// ComputeForEmployee computes and persists the payslip of one employee.
// Returns nil when the employee is not eligible for this run.
func (e *Engine) ComputeForEmployee(ctx context.Context, emp employee.Employee) (*payroll.Payslip, error) {
	ok, err := e.eligible(ctx, emp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	pstart, pend, _ := e.periodBounds()

	// Contract base, converted to the policy currency then prorated.
	contract, err := e.comp.ActiveContract(ctx, emp.ID, pstart, pend)
	if err != nil {
		return nil, fmt.Errorf("resolve active contract for employee %s: %w", emp.ID, err)
	}
	rawBase := decimal.Zero
	var contractCurrency *string
	var contractID *string
	if contract != nil {
		rawBase = contract.Salary
		contractCurrency = contract.CurrencyCode
		contractID = &contract.ID
	}
	basePolicyCcy, err := e.fxToPolicyCurrency(ctx, rawBase, contractCurrency)
	if err != nil {
		return nil, err
	}
	baseProrated := e.prorate(basePolicyCcy, emp)

	basic, err := e.basicComponent(ctx)
	if err != nil {
		return nil, err
	}

	items := []payroll.PayslipItem{
		draftItem(basic, decimal.NewFromInt(1), baseProrated, baseProrated, map[string]interface{}{
			"source":      payroll.ItemSourceBasic,
			"contract_id": contractID,
		}),
	}

	recurring, err := e.collectRecurring(ctx, emp, baseProrated)
	if err != nil {
		return nil, err
	}
	items = append(items, recurring...)

	variables, err := e.collectVariables(ctx, emp)
	if err != nil {
		return nil, err
	}
	items = append(items, variables...)

	// Aggregate totals.
	grossEarnings := decimal.Zero
	employerOnly := decimal.Zero
	preTaxDeds := decimal.Zero
	postTaxDeds := decimal.Zero
	taxableGross := decimal.Zero
	contribBase := decimal.Zero

	for _, it := range items {
		switch it.Kind {
		case payroll.KindEarning:
			grossEarnings = grossEarnings.Add(it.Amount)
			if it.Taxable {
				taxableGross = taxableGross.Add(it.Amount)
			}
			if it.Contributory {
				contribBase = contribBase.Add(it.Amount)
			}
		case payroll.KindDeduction:
			if it.PreTax {
				preTaxDeds = preTaxDeds.Add(it.Amount)
			} else {
				postTaxDeds = postTaxDeds.Add(it.Amount)
			}
		case payroll.KindEmployer:
			employerOnly = employerOnly.Add(it.Amount)
		}
	}

	eeContrib, erContrib, err := e.applyContributions(ctx, contribBase)
	if err != nil {
		return nil, err
	}
	erContrib = round2(erContrib.Add(employerOnly))

	pitBase := taxableGross.Sub(eeContrib).Sub(preTaxDeds)
	if pitBase.IsNegative() {
		pitBase = decimal.Zero
	}
	pit, err := e.computeTax(ctx, pitBase)
	if err != nil {
		return nil, err
	}

	otherDeductions := round2(preTaxDeds.Add(postTaxDeds))
	net := round2(grossEarnings.Sub(eeContrib).Sub(pit).Sub(otherDeductions))

	slip, err := e.runs.UpsertPayslip(ctx, payroll.Payslip{
		RunID:           e.run.ID,
		EmployeeID:      emp.ID,
		BaseSalary:      round2(baseProrated),
		GrossPay:        round2(grossEarnings),
		TaxableGross:    round2(taxableGross),
		EmployeeContrib: eeContrib,
		EmployerContrib: erContrib,
		IncomeTax:       pit,
		OtherDeductions: otherDeductions,
		NetPay:          net,
		CurrencyCode:    e.policy.CurrencyCode,
		Finalized:       false,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert payslip for employee %s: %w", emp.ID, err)
	}

	if err := e.runs.ReplaceItems(ctx, slip.ID, items); err != nil {
		return nil, fmt.Errorf("replace payslip items for employee %s: %w", emp.ID, err)
	}

	slip.Items = items
	return &slip, nil
}

// ComputeRun computes payslips for all eligible employees of the run's
// policy and marks the run processed. Callers wrap it in one transaction:
// any per-employee failure aborts the whole run.
func (e *Engine) ComputeRun(ctx context.Context) ([]string, error) {
	if e.policy.CurrencyCode == "" {
		return nil, payroll.ErrMissingSettlementCurrency
	}
	// Resolve the basic component up front so a misconfigured catalog
	// aborts before any payslip is written.
	if _, err := e.basicComponent(ctx); err != nil {
		return nil, err
	}

	pstart, pend, _ := e.periodBounds()
	candidates, err := e.employees.ListPayrollCandidates(ctx, e.policy.ID, pstart, pend)
	if err != nil {
		return nil, fmt.Errorf("list payroll candidates: %w", err)
	}

	var ids []string
	for _, emp := range candidates {
		slip, err := e.ComputeForEmployee(ctx, emp)
		if err != nil {
			return nil, err
		}
		if slip != nil {
			ids = append(ids, slip.ID)
		}
	}

	if err := e.runs.MarkProcessed(ctx, e.run.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("mark run processed: %w", err)
	}
	return ids, nil
}
