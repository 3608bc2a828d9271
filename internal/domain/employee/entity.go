package employee

import "time"

// Employee - read-only view of the directory record the payroll engine
// needs: activity flag and the hire/termination window for proration.
type Employee struct {
	ID              string
	UserID          *string
	CompanyPolicyID string
	FirstName       string
	LastName        string
	IsActive        bool
	HireDate        *time.Time
	TerminationDate *time.Time
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
