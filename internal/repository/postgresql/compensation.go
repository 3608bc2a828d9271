package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type compensationRepository struct {
	db *database.DB
}

func NewCompensationRepository(db *database.DB) payroll.CompensationRepository {
	return &compensationRepository{db: db}
}

// ========== CONTRACTS ==========

func (r *compensationRepository) ActiveContract(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) (*payroll.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, contract_type, salary, currency_code,
			   start_date, end_date, status, created_at, updated_at
		FROM contracts
		WHERE employee_id = $1
		  AND status = 'ACTIVE'
		  AND start_date <= $3
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`

	var c payroll.Contract
	err := q.QueryRow(ctx, query, employeeID, periodStart, periodEnd).Scan(
		&c.ID, &c.EmployeeID, &c.ContractType, &c.Salary, &c.CurrencyCode,
		&c.StartDate, &c.EndDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active contract: %w", err)
	}

	return &c, nil
}

// ========== RECURRING ASSIGNMENTS ==========

func (r *compensationRepository) ListRecurring(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]payroll.RecurringAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.id, a.employee_id, a.component_id, a.amount, a.percentage,
			   a.start_date, a.end_date, a.active, a.note, a.created_at,
			   c.id, c.code, c.name, c.kind, c.taxable, c.contributory,
			   c.pre_tax, c.percentage, c.sequence, c.created_at, c.updated_at
		FROM recurring_assignments a
		JOIN payroll_components c ON c.id = a.component_id
		WHERE a.employee_id = $1
		  AND a.active = TRUE
		  AND a.start_date <= $3
		  AND (a.end_date IS NULL OR a.end_date >= $2)
		ORDER BY c.sequence, c.code
	`

	rows, err := q.Query(ctx, query, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring assignments: %w", err)
	}
	defer rows.Close()

	var assignments []payroll.RecurringAssignment
	for rows.Next() {
		var a payroll.RecurringAssignment
		var c payroll.Component
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.ComponentID, &a.Amount, &a.Percentage,
			&a.StartDate, &a.EndDate, &a.Active, &a.Note, &a.CreatedAt,
			&c.ID, &c.Code, &c.Name, &c.Kind, &c.Taxable, &c.Contributory,
			&c.PreTax, &c.Percentage, &c.Sequence, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring assignment: %w", err)
		}
		a.Component = &c
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// ========== VARIABLE INPUTS ==========

func (r *compensationRepository) ListVariableInputs(ctx context.Context, runID, employeeID string, periodStart, periodEnd time.Time) ([]payroll.VariableInput, error) {
	q := GetQuerier(ctx, r.db)

	// Inputs explicitly linked to the run, plus unlinked inputs created
	// inside the period.
	query := `
		SELECT v.id, v.run_id, v.employee_id, v.component_id, v.quantity,
			   v.rate, v.amount, v.note, v.created_by, v.created_at,
			   c.id, c.code, c.name, c.kind, c.taxable, c.contributory,
			   c.pre_tax, c.percentage, c.sequence, c.created_at, c.updated_at
		FROM variable_inputs v
		JOIN payroll_components c ON c.id = v.component_id
		WHERE v.employee_id = $1
		  AND (v.run_id = $2
			OR (v.run_id IS NULL AND v.created_at >= $3 AND v.created_at < $4 + INTERVAL '1 day'))
		ORDER BY c.sequence, c.code, v.created_at
	`

	rows, err := q.Query(ctx, query, employeeID, runID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list variable inputs: %w", err)
	}
	defer rows.Close()

	var inputs []payroll.VariableInput
	for rows.Next() {
		var v payroll.VariableInput
		var c payroll.Component
		err := rows.Scan(
			&v.ID, &v.RunID, &v.EmployeeID, &v.ComponentID, &v.Quantity,
			&v.Rate, &v.Amount, &v.Note, &v.CreatedBy, &v.CreatedAt,
			&c.ID, &c.Code, &c.Name, &c.Kind, &c.Taxable, &c.Contributory,
			&c.PreTax, &c.Percentage, &c.Sequence, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variable input: %w", err)
		}
		v.Component = &c
		inputs = append(inputs, v)
	}

	return inputs, rows.Err()
}

func (r *compensationRepository) CreateVariableInput(ctx context.Context, input payroll.VariableInput) (payroll.VariableInput, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO variable_inputs (run_id, employee_id, component_id, quantity, rate, amount, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, run_id, employee_id, component_id, quantity, rate, amount, note, created_by, created_at
	`

	var v payroll.VariableInput
	err := q.QueryRow(ctx, query,
		input.RunID, input.EmployeeID, input.ComponentID,
		input.Quantity, input.Rate, input.Amount, input.Note, input.CreatedBy,
	).Scan(
		&v.ID, &v.RunID, &v.EmployeeID, &v.ComponentID, &v.Quantity,
		&v.Rate, &v.Amount, &v.Note, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return payroll.VariableInput{}, fmt.Errorf("failed to create variable input: %w", err)
	}

	return v, nil
}
