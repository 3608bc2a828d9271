package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type referenceRepository struct {
	db *database.DB
}

func NewReferenceRepository(db *database.DB) payroll.ReferenceRepository {
	return &referenceRepository{db: db}
}

// ========== POLICIES ==========

func (r *referenceRepository) GetPolicy(ctx context.Context, policyID string) (payroll.CompanyPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, country, currency_code, proration_method,
			   active_tax_table_id, cutoff_day, pay_day, created_at
		FROM company_policies
		WHERE id = $1
	`

	var p payroll.CompanyPolicy
	err := q.QueryRow(ctx, query, policyID).Scan(
		&p.ID, &p.Name, &p.Country, &p.CurrencyCode, &p.ProrationMethod,
		&p.ActiveTaxTable, &p.CutoffDay, &p.PayDay, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.CompanyPolicy{}, payroll.ErrPolicyNotFound
		}
		return payroll.CompanyPolicy{}, fmt.Errorf("failed to get company policy: %w", err)
	}

	return p, nil
}

// ========== COMPONENTS ==========

const componentColumns = `id, code, name, kind, taxable, contributory, pre_tax, percentage, sequence, created_at, updated_at`

func scanComponent(row pgx.Row) (payroll.Component, error) {
	var c payroll.Component
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Kind, &c.Taxable, &c.Contributory,
		&c.PreTax, &c.Percentage, &c.Sequence, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *referenceRepository) GetComponentByCode(ctx context.Context, code string) (payroll.Component, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM payroll_components WHERE code = $1`

	c, err := scanComponent(q.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Component{}, payroll.ErrComponentNotFound
		}
		return payroll.Component{}, fmt.Errorf("failed to get component by code: %w", err)
	}

	return c, nil
}

func (r *referenceRepository) FirstEarningComponent(ctx context.Context) (payroll.Component, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + componentColumns + `
		FROM payroll_components
		WHERE kind = 'EARNING'
		ORDER BY sequence, code
		LIMIT 1
	`

	c, err := scanComponent(q.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Component{}, payroll.ErrNoEarningComponent
		}
		return payroll.Component{}, fmt.Errorf("failed to get first earning component: %w", err)
	}

	return c, nil
}

func (r *referenceRepository) ListComponents(ctx context.Context) ([]payroll.Component, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM payroll_components ORDER BY sequence, code`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()

	var components []payroll.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

// ========== TAX TABLES ==========

func (r *referenceRepository) GetTaxTable(ctx context.Context, id string) (payroll.TaxTable, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, country, valid_from, valid_to
		FROM tax_tables
		WHERE id = $1
	`

	var t payroll.TaxTable
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Country, &t.ValidFrom, &t.ValidTo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.TaxTable{}, fmt.Errorf("tax table %s not found", id)
		}
		return payroll.TaxTable{}, fmt.Errorf("failed to get tax table: %w", err)
	}

	bracketQuery := `
		SELECT id, lower_bound, upper_bound, rate
		FROM tax_brackets
		WHERE tax_table_id = $1
		ORDER BY lower_bound
	`

	rows, err := q.Query(ctx, bracketQuery, id)
	if err != nil {
		return payroll.TaxTable{}, fmt.Errorf("failed to list tax brackets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b payroll.TaxBracket
		if err := rows.Scan(&b.ID, &b.Lower, &b.Upper, &b.Rate); err != nil {
			return payroll.TaxTable{}, fmt.Errorf("failed to scan tax bracket: %w", err)
		}
		t.Brackets = append(t.Brackets, b)
	}

	return t, rows.Err()
}

// ========== CONTRIBUTION SCHEMES ==========

func (r *referenceRepository) ListActiveSchemes(ctx context.Context, policyID string) ([]payroll.ContributionScheme, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.id, s.code, s.name, s.employee_rate, s.employer_rate,
			   s.valid_from, s.valid_to, s.cap, s.include_taxable_allowances
		FROM contribution_schemes s
		JOIN policy_contribution_schemes ps ON ps.scheme_id = s.id
		WHERE ps.policy_id = $1
		ORDER BY s.code
	`

	rows, err := q.Query(ctx, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution schemes: %w", err)
	}
	defer rows.Close()

	var schemes []payroll.ContributionScheme
	for rows.Next() {
		var s payroll.ContributionScheme
		err := rows.Scan(
			&s.ID, &s.Code, &s.Name, &s.EmployeeRate, &s.EmployerRate,
			&s.ValidFrom, &s.ValidTo, &s.Cap, &s.IncludeTaxableAllowances,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution scheme: %w", err)
		}
		schemes = append(schemes, s)
	}

	return schemes, rows.Err()
}

// ========== EXCHANGE RATES ==========

func (r *referenceRepository) LatestRateOnOrBefore(ctx context.Context, base, quote string, on time.Time) (*payroll.ExchangeRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, base_code, quote_code, rate_date, rate
		FROM exchange_rates
		WHERE base_code = $1 AND quote_code = $2 AND rate_date <= $3
		ORDER BY rate_date DESC
		LIMIT 1
	`

	var rate payroll.ExchangeRate
	err := q.QueryRow(ctx, query, base, quote, on).Scan(
		&rate.ID, &rate.Base, &rate.Quote, &rate.Date, &rate.Rate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return &rate, nil
}
