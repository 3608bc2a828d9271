package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/situation"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type situationRepository struct {
	db *database.DB
}

func NewSituationRepository(db *database.DB) situation.Repository {
	return &situationRepository{db: db}
}

func (r *situationRepository) HasSuspending(ctx context.Context, employeeID string, on time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM situations s
			JOIN situation_types t ON t.id = s.type_id
			WHERE s.employee_id = $1
			  AND t.suspend_payroll = TRUE
			  AND s.start_date <= $2
			  AND (s.end_date IS NULL OR s.end_date >= $2)
		)
	`

	var suspended bool
	if err := q.QueryRow(ctx, query, employeeID, on).Scan(&suspended); err != nil {
		return false, fmt.Errorf("failed to check suspending situations: %w", err)
	}

	return suspended, nil
}
