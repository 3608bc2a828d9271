package payroll

import "errors"

var (
	ErrRunNotFound      = errors.New("payroll run not found")
	ErrRunAlreadyExists = errors.New("payroll run already exists for this policy and period")
	ErrRunClosed        = errors.New("payroll run is closed")
	ErrRunNotProcessed  = errors.New("payroll run must be processed before closing")
	ErrRunNotClosed     = errors.New("only closed payroll runs can be reopened")

	ErrPolicyNotFound            = errors.New("company policy not found")
	ErrPayslipNotFound           = errors.New("payslip not found")
	ErrComponentNotFound         = errors.New("payroll component not found")
	ErrNoEarningComponent        = errors.New("no earning component configured")
	ErrMissingSettlementCurrency = errors.New("company policy has no settlement currency")
	ErrMissingExchangeRate       = errors.New("no exchange rate available for conversion")
	ErrInvalidPeriod             = errors.New("invalid payroll period")
)
