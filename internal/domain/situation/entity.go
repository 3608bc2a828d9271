package situation

import "time"

// SituationType - administrative situation category. SuspendPayroll marks
// types that exclude an employee from payroll while the situation is open.
type SituationType struct {
	ID             string
	Code           string
	Name           string
	SuspendPayroll bool
}

// Situation - an administrative situation of an employee over a date range.
// EndDate nil means still open.
type Situation struct {
	ID         string
	EmployeeID string
	TypeID     string
	StartDate  time.Time
	EndDate    *time.Time
}
