package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/notification"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/situation"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
	"github.com/konema-hr/hrmis-backend-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
)

type RunServiceImpl struct {
	db            *database.DB
	refs          payroll.ReferenceRepository
	comp          payroll.CompensationRepository
	runs          payroll.RunRepository
	employeeRepo  employee.Repository
	situationRepo situation.Repository
	notifier      notification.Dispatcher
	onMissingRate payroll.MissingRatePolicy
	logger        *slog.Logger
}

func NewRunService(
	db *database.DB,
	refs payroll.ReferenceRepository,
	comp payroll.CompensationRepository,
	runs payroll.RunRepository,
	employeeRepo employee.Repository,
	situationRepo situation.Repository,
	notifier notification.Dispatcher,
	onMissingRate payroll.MissingRatePolicy,
	logger *slog.Logger,
) payroll.RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunServiceImpl{
		db:            db,
		refs:          refs,
		comp:          comp,
		runs:          runs,
		employeeRepo:  employeeRepo,
		situationRepo: situationRepo,
		notifier:      notifier,
		onMissingRate: onMissingRate,
		logger:        logger,
	}
}

// Helper to get user_id and employee_id from JWT context
func getClaimsFromContext(ctx context.Context) (userID, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", fmt.Errorf("user_id claim is missing or invalid")
	}

	employeeID, _ = claims["employee_id"].(string)

	return userID, employeeID, nil
}

// runInTx runs fn inside one transaction when a pool is attached; the
// transaction travels on the context for the repositories to pick up.
func (s *RunServiceImpl) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, "tx", tx))
	})
}

// ========== RUN LIFECYCLE ==========

func (s *RunServiceImpl) CreateRun(ctx context.Context, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	policy, err := s.refs.GetPolicy(ctx, req.CompanyPolicyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.runs.CreateRun(ctx, payroll.PayrollRun{
		CompanyPolicyID: policy.ID,
		Year:            req.Year,
		Month:           req.Month,
		Status:          payroll.RunStatusDraft,
		GeneratedAt:     time.Now(),
		Note:            req.Note,
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	return toRunResponse(run), nil
}

func (s *RunServiceImpl) GetRun(ctx context.Context, id string) (payroll.RunResponse, error) {
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return toRunResponse(run), nil
}

func (s *RunServiceImpl) ListRuns(ctx context.Context, filter payroll.RunFilter) ([]payroll.RunResponse, error) {
	runs, err := s.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, toRunResponse(run))
	}
	return responses, nil
}

func (s *RunServiceImpl) GenerateRun(ctx context.Context, runID string) (payroll.GenerateRunResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.GenerateRunResponse{}, err
	}
	if run.Status == payroll.RunStatusClosed {
		return payroll.GenerateRunResponse{}, payroll.ErrRunClosed
	}

	policy, err := s.refs.GetPolicy(ctx, run.CompanyPolicyID)
	if err != nil {
		return payroll.GenerateRunResponse{}, err
	}

	var payslipIDs []string
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		engine := NewEngine(run, policy, s.refs, s.comp, s.runs, s.employeeRepo, s.situationRepo, s.onMissingRate)
		payslipIDs, err = engine.ComputeRun(txCtx)
		return err
	})
	if err != nil {
		return payroll.GenerateRunResponse{}, err
	}

	run, err = s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.GenerateRunResponse{}, err
	}

	s.notifyRunGenerated(ctx, run, len(payslipIDs))
	s.notifyPayslipsReady(ctx, run)

	return payroll.GenerateRunResponse{
		Run:        toRunResponse(run),
		PayslipIDs: payslipIDs,
	}, nil
}

func (s *RunServiceImpl) CloseRun(ctx context.Context, runID string) (payroll.RunResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if run.Status != payroll.RunStatusProcessed {
		return payroll.RunResponse{}, payroll.ErrRunNotProcessed
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		return s.runs.MarkClosed(txCtx, runID, time.Now())
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err = s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.notifyPaymentValidated(ctx, run)

	return toRunResponse(run), nil
}

func (s *RunServiceImpl) ReopenRun(ctx context.Context, runID string) (payroll.RunResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if run.Status != payroll.RunStatusClosed {
		return payroll.RunResponse{}, payroll.ErrRunNotClosed
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.runs.DeletePayslipsByRun(txCtx, runID); err != nil {
			return fmt.Errorf("delete payslips: %w", err)
		}
		return s.runs.MarkReopened(txCtx, runID)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err = s.runs.GetRun(ctx, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.notifyRunReopened(ctx, run)

	return toRunResponse(run), nil
}

// ========== PAYSLIPS ==========

func (s *RunServiceImpl) ListRunPayslips(ctx context.Context, runID string) ([]payroll.PayslipResponse, error) {
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	slips, err := s.runs.ListPayslipsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayslipResponse, 0, len(slips))
	for _, slip := range slips {
		items, err := s.runs.ListItems(ctx, slip.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, toPayslipResponse(slip, items))
	}
	return responses, nil
}

func (s *RunServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	slip, err := s.runs.GetPayslip(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	items, err := s.runs.ListItems(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return toPayslipResponse(slip, items), nil
}

func (s *RunServiceImpl) ListMyPayslips(ctx context.Context) ([]payroll.PayslipResponse, error) {
	userID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if employeeID == "" {
		emp, err := s.employeeRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		employeeID = emp.ID
	}

	slips, err := s.runs.ListPayslipsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayslipResponse, 0, len(slips))
	for _, slip := range slips {
		responses = append(responses, toPayslipResponse(slip, nil))
	}
	return responses, nil
}

// ========== COMPONENTS & VARIABLE INPUTS ==========

func (s *RunServiceImpl) ListComponents(ctx context.Context) ([]payroll.ComponentResponse, error) {
	components, err := s.refs.ListComponents(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.ComponentResponse, 0, len(components))
	for _, c := range components {
		responses = append(responses, payroll.ComponentResponse{
			ID:           c.ID,
			Code:         c.Code,
			Name:         c.Name,
			Kind:         string(c.Kind),
			Taxable:      c.Taxable,
			Contributory: c.Contributory,
			PreTax:       c.PreTax,
			Percentage:   c.Percentage,
			Sequence:     c.Sequence,
		})
	}
	return responses, nil
}

func (s *RunServiceImpl) CreateVariableInput(ctx context.Context, req payroll.CreateVariableInputRequest) (payroll.VariableInputResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.VariableInputResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.VariableInputResponse{}, err
	}
	if req.RunID != nil {
		run, err := s.runs.GetRun(ctx, *req.RunID)
		if err != nil {
			return payroll.VariableInputResponse{}, err
		}
		if run.Status == payroll.RunStatusClosed {
			return payroll.VariableInputResponse{}, payroll.ErrRunClosed
		}
	}

	input := payroll.VariableInput{
		RunID:       req.RunID,
		EmployeeID:  req.EmployeeID,
		ComponentID: req.ComponentID,
		Quantity:    decimal.Zero,
		Rate:        decimal.Zero,
		Amount:      decimal.Zero,
		Note:        req.Note,
	}
	if req.Quantity != nil {
		input.Quantity = *req.Quantity
	}
	if req.Rate != nil {
		input.Rate = *req.Rate
	}
	if req.Amount != nil {
		input.Amount = *req.Amount
	}
	if userID, _, err := getClaimsFromContext(ctx); err == nil {
		input.CreatedBy = &userID
	}

	created, err := s.comp.CreateVariableInput(ctx, input)
	if err != nil {
		return payroll.VariableInputResponse{}, err
	}

	return toVariableInputResponse(created), nil
}

func (s *RunServiceImpl) ListVariableInputs(ctx context.Context, runID, employeeID string) ([]payroll.VariableInputResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	periodStart := time.Date(run.Year, time.Month(run.Month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	inputs, err := s.comp.ListVariableInputs(ctx, run.ID, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.VariableInputResponse, 0, len(inputs))
	for _, input := range inputs {
		responses = append(responses, toVariableInputResponse(input))
	}
	return responses, nil
}

// ========== RESPONSE MAPPING ==========

func toVariableInputResponse(input payroll.VariableInput) payroll.VariableInputResponse {
	return payroll.VariableInputResponse{
		ID:          input.ID,
		RunID:       input.RunID,
		EmployeeID:  input.EmployeeID,
		ComponentID: input.ComponentID,
		Quantity:    input.Quantity,
		Rate:        input.Rate,
		Amount:      input.Amount,
		Note:        input.Note,
	}
}

func toRunResponse(run payroll.PayrollRun) payroll.RunResponse {
	resp := payroll.RunResponse{
		ID:              run.ID,
		CompanyPolicyID: run.CompanyPolicyID,
		PolicyName:      run.PolicyName,
		Year:            run.Year,
		Month:           run.Month,
		Status:          string(run.Status),
		GeneratedAt:     run.GeneratedAt.Format(time.RFC3339),
		Note:            run.Note,
	}
	if run.ProcessedAt != nil {
		v := run.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &v
	}
	if run.ClosedAt != nil {
		v := run.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &v
	}
	return resp
}

func toPayslipResponse(slip payroll.Payslip, items []payroll.PayslipItem) payroll.PayslipResponse {
	resp := payroll.PayslipResponse{
		ID:              slip.ID,
		RunID:           slip.RunID,
		EmployeeID:      slip.EmployeeID,
		EmployeeName:    slip.EmployeeName,
		BaseSalary:      slip.BaseSalary,
		GrossPay:        slip.GrossPay,
		TaxableGross:    slip.TaxableGross,
		EmployeeContrib: slip.EmployeeContrib,
		EmployerContrib: slip.EmployerContrib,
		IncomeTax:       slip.IncomeTax,
		OtherDeductions: slip.OtherDeductions,
		NetPay:          slip.NetPay,
		Currency:        slip.CurrencyCode,
		Finalized:       slip.Finalized,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, payroll.PayslipItemResponse{
			ID:            it.ID,
			ComponentID:   it.ComponentID,
			ComponentCode: it.ComponentCode,
			ComponentName: it.ComponentName,
			Kind:          string(it.Kind),
			Quantity:      it.Quantity,
			Rate:          it.Rate,
			Amount:        it.Amount,
			Meta:          it.Meta,
		})
	}
	return resp
}
