package situation

import (
	"context"
	"time"
)

// Repository is the read-only eligibility signal consumed by the payroll
// engine.
type Repository interface {
	// HasSuspending reports whether the employee has a situation whose type
	// suspends payroll and whose [start, end-or-open] interval covers the
	// given date.
	HasSuspending(ctx context.Context, employeeID string, on time.Time) (bool, error)
}
