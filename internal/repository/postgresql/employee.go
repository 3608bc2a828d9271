package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/employee"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, user_id, company_policy_id, first_name, last_name, is_active, hire_date, termination_date`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.UserID, &e.CompanyPolicyID, &e.FirstName, &e.LastName,
		&e.IsActive, &e.HireDate, &e.TerminationDate,
	)
	return e, err
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by user: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) ListPayrollCandidates(ctx context.Context, policyID string, periodStart, periodEnd time.Time) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT e.id, e.user_id, e.company_policy_id, e.first_name, e.last_name,
			   e.is_active, e.hire_date, e.termination_date
		FROM employees e
		JOIN contracts c ON c.employee_id = e.id
		WHERE e.company_policy_id = $1
		  AND e.is_active = TRUE
		  AND c.status = 'ACTIVE'
		  AND c.start_date <= $3
		  AND (c.end_date IS NULL OR c.end_date >= $2)
		ORDER BY e.first_name, e.last_name
	`

	rows, err := q.Query(ctx, query, policyID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll candidates: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}
