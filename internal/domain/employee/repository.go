package employee

import (
	"context"
	"time"
)

// Repository is the read-only contract onto the employee directory.
type Repository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)

	// ListPayrollCandidates returns active employees of the policy holding
	// an ACTIVE contract that overlaps the period.
	ListPayrollCandidates(ctx context.Context, policyID string, periodStart, periodEnd time.Time) ([]Employee, error)
}
