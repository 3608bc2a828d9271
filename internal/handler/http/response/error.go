package response

import (
	"errors"
	"net/http"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Payroll run lifecycle
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrRunAlreadyExists):
		Conflict(w, "Payroll run already exists for this policy and period")
	case errors.Is(err, payroll.ErrRunClosed):
		Conflict(w, "Payroll run is closed")
	case errors.Is(err, payroll.ErrRunNotProcessed):
		Conflict(w, "Payroll run must be processed before closing")
	case errors.Is(err, payroll.ErrRunNotClosed):
		Conflict(w, "Only closed payroll runs can be reopened")

	// Payroll configuration
	case errors.Is(err, payroll.ErrPolicyNotFound):
		NotFound(w, "Company policy not found")
	case errors.Is(err, payroll.ErrComponentNotFound):
		NotFound(w, "Payroll component not found")
	case errors.Is(err, payroll.ErrNoEarningComponent):
		BadRequest(w, "No earning component configured", nil)
	case errors.Is(err, payroll.ErrMissingSettlementCurrency):
		BadRequest(w, "Company policy has no settlement currency", nil)
	case errors.Is(err, payroll.ErrMissingExchangeRate):
		BadRequest(w, "No exchange rate available for conversion", nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)

	// Payslips
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
