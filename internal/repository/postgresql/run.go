package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type runRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) payroll.RunRepository {
	return &runRepository{db: db}
}

// ========== RUNS ==========

func (r *runRepository) CreateRun(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (company_policy_id, year, month, status, generated_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, company_policy_id, year, month, status, generated_at, processed_at, closed_at, note
	`

	var created payroll.PayrollRun
	err := q.QueryRow(ctx, query,
		run.CompanyPolicyID, run.Year, run.Month, run.Status, run.GeneratedAt, run.Note,
	).Scan(
		&created.ID, &created.CompanyPolicyID, &created.Year, &created.Month,
		&created.Status, &created.GeneratedAt, &created.ProcessedAt, &created.ClosedAt, &created.Note,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return payroll.PayrollRun{}, payroll.ErrRunAlreadyExists
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}

	return created, nil
}

func (r *runRepository) GetRun(ctx context.Context, id string) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT r.id, r.company_policy_id, r.year, r.month, r.status,
			   r.generated_at, r.processed_at, r.closed_at, r.note, p.name
		FROM payroll_runs r
		JOIN company_policies p ON p.id = r.company_policy_id
		WHERE r.id = $1
	`

	var run payroll.PayrollRun
	err := q.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.CompanyPolicyID, &run.Year, &run.Month, &run.Status,
		&run.GeneratedAt, &run.ProcessedAt, &run.ClosedAt, &run.Note, &run.PolicyName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRun{}, payroll.ErrRunNotFound
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}

	return run, nil
}

func (r *runRepository) ListRuns(ctx context.Context, filter payroll.RunFilter) ([]payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT r.id, r.company_policy_id, r.year, r.month, r.status,
			   r.generated_at, r.processed_at, r.closed_at, r.note, p.name
		FROM payroll_runs r
		JOIN company_policies p ON p.id = r.company_policy_id
	`

	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.PolicyID != nil {
		conditions = append(conditions, fmt.Sprintf("r.company_policy_id = $%d", argPos))
		args = append(args, *filter.PolicyID)
		argPos++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("r.year = $%d", argPos))
		args = append(args, *filter.Year)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.year DESC, r.month DESC, r.generated_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		var run payroll.PayrollRun
		err := rows.Scan(
			&run.ID, &run.CompanyPolicyID, &run.Year, &run.Month, &run.Status,
			&run.GeneratedAt, &run.ProcessedAt, &run.ClosedAt, &run.Note, &run.PolicyName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *runRepository) MarkProcessed(ctx context.Context, runID string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE payroll_runs SET status = 'processed', processed_at = $2 WHERE id = $1`

	tag, err := q.Exec(ctx, query, runID, at)
	if err != nil {
		return fmt.Errorf("failed to mark run processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}
	return nil
}

func (r *runRepository) MarkClosed(ctx context.Context, runID string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payroll_runs SET status = 'closed', closed_at = $2 WHERE id = $1`, runID, at)
	if err != nil {
		return fmt.Errorf("failed to mark run closed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}

	// Closing freezes the run's payslips.
	if _, err := q.Exec(ctx, `UPDATE payslips SET finalized = TRUE, updated_at = NOW() WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to finalize payslips: %w", err)
	}
	return nil
}

func (r *runRepository) MarkReopened(ctx context.Context, runID string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE payroll_runs SET status = 'draft', processed_at = NULL, closed_at = NULL WHERE id = $1`

	tag, err := q.Exec(ctx, query, runID)
	if err != nil {
		return fmt.Errorf("failed to reopen run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}
	return nil
}

// ========== PAYSLIPS ==========

func (r *runRepository) UpsertPayslip(ctx context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			run_id, employee_id, base_salary, gross_pay, taxable_gross,
			employee_contrib, employer_contrib, income_tax, other_deductions,
			net_pay, currency_code, finalized
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id, employee_id) DO UPDATE SET
			base_salary = EXCLUDED.base_salary,
			gross_pay = EXCLUDED.gross_pay,
			taxable_gross = EXCLUDED.taxable_gross,
			employee_contrib = EXCLUDED.employee_contrib,
			employer_contrib = EXCLUDED.employer_contrib,
			income_tax = EXCLUDED.income_tax,
			other_deductions = EXCLUDED.other_deductions,
			net_pay = EXCLUDED.net_pay,
			currency_code = EXCLUDED.currency_code,
			finalized = EXCLUDED.finalized,
			updated_at = NOW()
		RETURNING id, run_id, employee_id, base_salary, gross_pay, taxable_gross,
			employee_contrib, employer_contrib, income_tax, other_deductions,
			net_pay, currency_code, finalized, created_at, updated_at
	`

	var saved payroll.Payslip
	err := q.QueryRow(ctx, query,
		slip.RunID, slip.EmployeeID, slip.BaseSalary, slip.GrossPay, slip.TaxableGross,
		slip.EmployeeContrib, slip.EmployerContrib, slip.IncomeTax, slip.OtherDeductions,
		slip.NetPay, slip.CurrencyCode, slip.Finalized,
	).Scan(
		&saved.ID, &saved.RunID, &saved.EmployeeID, &saved.BaseSalary, &saved.GrossPay,
		&saved.TaxableGross, &saved.EmployeeContrib, &saved.EmployerContrib, &saved.IncomeTax,
		&saved.OtherDeductions, &saved.NetPay, &saved.CurrencyCode, &saved.Finalized,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to upsert payslip: %w", err)
	}

	return saved, nil
}

func (r *runRepository) ReplaceItems(ctx context.Context, payslipID string, items []payroll.PayslipItem) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payslip_items WHERE payslip_id = $1`, payslipID); err != nil {
		return fmt.Errorf("failed to delete payslip items: %w", err)
	}

	query := `
		INSERT INTO payslip_items (payslip_id, component_id, quantity, rate, amount, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range items {
		metaJSON, err := json.Marshal(item.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal item meta: %w", err)
		}
		if _, err := q.Exec(ctx, query, payslipID, item.ComponentID, item.Quantity, item.Rate, item.Amount, metaJSON); err != nil {
			return fmt.Errorf("failed to insert payslip item: %w", err)
		}
	}

	return nil
}

func (r *runRepository) DeletePayslipsByRun(ctx context.Context, runID string) error {
	q := GetQuerier(ctx, r.db)

	deleteItems := `
		DELETE FROM payslip_items
		WHERE payslip_id IN (SELECT id FROM payslips WHERE run_id = $1)
	`
	if _, err := q.Exec(ctx, deleteItems, runID); err != nil {
		return fmt.Errorf("failed to delete payslip items: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM payslips WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to delete payslips: %w", err)
	}
	return nil
}

const payslipSelect = `
	SELECT s.id, s.run_id, s.employee_id, s.base_salary, s.gross_pay, s.taxable_gross,
		   s.employee_contrib, s.employer_contrib, s.income_tax, s.other_deductions,
		   s.net_pay, s.currency_code, s.finalized, s.created_at, s.updated_at,
		   e.first_name || ' ' || e.last_name
	FROM payslips s
	JOIN employees e ON e.id = s.employee_id
`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var s payroll.Payslip
	err := row.Scan(
		&s.ID, &s.RunID, &s.EmployeeID, &s.BaseSalary, &s.GrossPay, &s.TaxableGross,
		&s.EmployeeContrib, &s.EmployerContrib, &s.IncomeTax, &s.OtherDeductions,
		&s.NetPay, &s.CurrencyCode, &s.Finalized, &s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName,
	)
	return s, err
}

func (r *runRepository) GetPayslip(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanPayslip(q.QueryRow(ctx, payslipSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return s, nil
}

func (r *runRepository) ListPayslipsByRun(ctx context.Context, runID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, payslipSelect+` WHERE s.run_id = $1 ORDER BY e.first_name, e.last_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips by run: %w", err)
	}
	defer rows.Close()

	var slips []payroll.Payslip
	for rows.Next() {
		s, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		slips = append(slips, s)
	}

	return slips, rows.Err()
}

func (r *runRepository) ListPayslipsByEmployee(ctx context.Context, employeeID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := payslipSelect + `
		JOIN payroll_runs r ON r.id = s.run_id
		WHERE s.employee_id = $1
		ORDER BY r.year DESC, r.month DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips by employee: %w", err)
	}
	defer rows.Close()

	var slips []payroll.Payslip
	for rows.Next() {
		s, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		slips = append(slips, s)
	}

	return slips, rows.Err()
}

func (r *runRepository) ListItems(ctx context.Context, payslipID string) ([]payroll.PayslipItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT i.id, i.payslip_id, i.component_id, i.quantity, i.rate, i.amount, i.meta,
			   c.code, c.name, c.kind, c.taxable, c.contributory, c.pre_tax, c.sequence
		FROM payslip_items i
		JOIN payroll_components c ON c.id = i.component_id
		WHERE i.payslip_id = $1
		ORDER BY c.sequence, c.code
	`

	rows, err := q.Query(ctx, query, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip items: %w", err)
	}
	defer rows.Close()

	var items []payroll.PayslipItem
	for rows.Next() {
		var item payroll.PayslipItem
		var metaJSON []byte
		err := rows.Scan(
			&item.ID, &item.PayslipID, &item.ComponentID, &item.Quantity,
			&item.Rate, &item.Amount, &metaJSON,
			&item.ComponentCode, &item.ComponentName, &item.Kind,
			&item.Taxable, &item.Contributory, &item.PreTax, &item.Sequence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip item: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &item.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item meta: %w", err)
			}
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *runRepository) CountPayslipsByRun(ctx context.Context, runID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payslips WHERE run_id = $1`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payslips: %w", err)
	}
	return count, nil
}
