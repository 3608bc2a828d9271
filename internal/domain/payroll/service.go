package payroll

import "context"

// RunService exposes the payroll run lifecycle and read operations.
// Generate, Close and Reopen dispatch notifications fire-and-forget; a
// notification failure never affects the payroll outcome.
type RunService interface {
	CreateRun(ctx context.Context, req CreateRunRequest) (RunResponse, error)
	GetRun(ctx context.Context, id string) (RunResponse, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunResponse, error)

	// GenerateRun (re)computes every eligible employee's payslip inside one
	// transaction. Allowed while the run is draft or processed; idempotent.
	GenerateRun(ctx context.Context, runID string) (GenerateRunResponse, error)
	// CloseRun moves a processed run to closed.
	CloseRun(ctx context.Context, runID string) (RunResponse, error)
	// ReopenRun moves a closed run back to draft and discards its payslips.
	ReopenRun(ctx context.Context, runID string) (RunResponse, error)

	ListRunPayslips(ctx context.Context, runID string) ([]PayslipResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	ListMyPayslips(ctx context.Context) ([]PayslipResponse, error)

	ListComponents(ctx context.Context) ([]ComponentResponse, error)
	CreateVariableInput(ctx context.Context, req CreateVariableInputRequest) (VariableInputResponse, error)
	// ListVariableInputs returns the inputs the run would pick up for one
	// employee: run-linked rows plus unlinked rows created in the period.
	ListVariableInputs(ctx context.Context, runID, employeeID string) ([]VariableInputResponse, error)
}
