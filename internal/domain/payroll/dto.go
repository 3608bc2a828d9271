package payroll

import (
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type CreateRunRequest struct {
	CompanyPolicyID string  `json:"company_policy_id"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Note            *string `json:"note,omitempty"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CompanyPolicyID == "" {
		errs = append(errs, validator.ValidationError{Field: "company_policy_id", Message: "is required"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if r.Year < 2000 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be 2000 or later"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunResponse struct {
	ID              string  `json:"id"`
	CompanyPolicyID string  `json:"company_policy_id"`
	PolicyName      *string `json:"policy_name,omitempty"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Status          string  `json:"status"`
	GeneratedAt     string  `json:"generated_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`
	ClosedAt        *string `json:"closed_at,omitempty"`
	Note            *string `json:"note,omitempty"`
}

type GenerateRunResponse struct {
	Run        RunResponse `json:"run"`
	PayslipIDs []string    `json:"payslip_ids"`
}

// ========== PAYSLIP DTOs ==========

type PayslipItemResponse struct {
	ID            string                 `json:"id"`
	ComponentID   string                 `json:"component_id"`
	ComponentCode *string                `json:"component_code,omitempty"`
	ComponentName *string                `json:"component_name,omitempty"`
	Kind          string                 `json:"kind"`
	Quantity      decimal.Decimal        `json:"quantity"`
	Rate          decimal.Decimal        `json:"rate"`
	Amount        decimal.Decimal        `json:"amount"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
}

type PayslipResponse struct {
	ID              string                `json:"id"`
	RunID           string                `json:"run_id"`
	EmployeeID      string                `json:"employee_id"`
	EmployeeName    *string               `json:"employee_name,omitempty"`
	BaseSalary      decimal.Decimal       `json:"base_salary"`
	GrossPay        decimal.Decimal       `json:"gross_pay"`
	TaxableGross    decimal.Decimal       `json:"taxable_gross"`
	EmployeeContrib decimal.Decimal       `json:"employee_contrib"`
	EmployerContrib decimal.Decimal       `json:"employer_contrib"`
	IncomeTax       decimal.Decimal       `json:"income_tax"`
	OtherDeductions decimal.Decimal       `json:"other_deductions"`
	NetPay          decimal.Decimal       `json:"net_pay"`
	Currency        string                `json:"currency"`
	Finalized       bool                  `json:"finalized"`
	Items           []PayslipItemResponse `json:"items,omitempty"`
}

// ========== COMPONENT DTOs ==========

type ComponentResponse struct {
	ID           string           `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Kind         string           `json:"kind"`
	Taxable      bool             `json:"taxable"`
	Contributory bool             `json:"contributory"`
	PreTax       bool             `json:"pre_tax"`
	Percentage   *decimal.Decimal `json:"percentage,omitempty"`
	Sequence     int              `json:"sequence"`
}

// ========== VARIABLE INPUT DTOs ==========

type CreateVariableInputRequest struct {
	RunID       *string          `json:"run_id,omitempty"`
	EmployeeID  string           `json:"employee_id"`
	ComponentID string           `json:"component_id"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Note        *string          `json:"note,omitempty"`
}

func (r *CreateVariableInputRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID == "" {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.ComponentID == "" {
		errs = append(errs, validator.ValidationError{Field: "component_id", Message: "is required"})
	}
	if r.Amount == nil && (r.Quantity == nil || r.Rate == nil) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "either amount or quantity and rate are required"})
	}
	if r.Amount != nil && r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type VariableInputResponse struct {
	ID          string          `json:"id"`
	RunID       *string         `json:"run_id,omitempty"`
	EmployeeID  string          `json:"employee_id"`
	ComponentID string          `json:"component_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Note        *string         `json:"note,omitempty"`
}
