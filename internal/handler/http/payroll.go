package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/handler/http/response"
)

type PayrollHandler interface {
	// Runs
	CreateRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
	GenerateRun(w http.ResponseWriter, r *http.Request)
	CloseRun(w http.ResponseWriter, r *http.Request)
	ReopenRun(w http.ResponseWriter, r *http.Request)

	// Payslips
	ListRunPayslips(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)
	ListMyPayslips(w http.ResponseWriter, r *http.Request)

	// Components & inputs
	ListComponents(w http.ResponseWriter, r *http.Request)
	CreateVariableInput(w http.ResponseWriter, r *http.Request)
	ListVariableInputs(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	runService payroll.RunService
}

func NewPayrollHandler(runService payroll.RunService) PayrollHandler {
	return &payrollHandlerImpl{runService: runService}
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.runService.CreateRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run created", result)
}

func (h *payrollHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	result, err := h.runService.GetRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	var filter payroll.RunFilter

	if policyID := r.URL.Query().Get("policy_id"); policyID != "" {
		filter.PolicyID = &policyID
	}
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			response.BadRequest(w, "Invalid year", nil)
			return
		}
		filter.Year = &year
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := payroll.RunStatus(statusStr)
		filter.Status = &status
	}

	result, err := h.runService.ListRuns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GenerateRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	result, err := h.runService.GenerateRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run generated", result)
}

func (h *payrollHandlerImpl) CloseRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	result, err := h.runService.CloseRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run closed", result)
}

func (h *payrollHandlerImpl) ReopenRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	result, err := h.runService.ReopenRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run reopened", result)
}

// ========== PAYSLIPS ==========

func (h *payrollHandlerImpl) ListRunPayslips(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	result, err := h.runService.ListRunPayslips(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	payslipID := chi.URLParam(r, "id")

	result, err := h.runService.GetPayslip(r.Context(), payslipID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListMyPayslips(w http.ResponseWriter, r *http.Request) {
	result, err := h.runService.ListMyPayslips(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== COMPONENTS & INPUTS ==========

func (h *payrollHandlerImpl) ListComponents(w http.ResponseWriter, r *http.Request) {
	result, err := h.runService.ListComponents(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CreateVariableInput(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateVariableInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.runService.CreateVariableInput(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Variable input recorded", result)
}

func (h *payrollHandlerImpl) ListVariableInputs(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		response.BadRequest(w, "employee_id query parameter is required", nil)
		return
	}

	result, err := h.runService.ListVariableInputs(r.Context(), runID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
