package notification

import "time"

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeRunGenerated     NotificationType = "payroll_run_generated"
	TypePayslipReady     NotificationType = "payslip_ready"
	TypePaymentValidated NotificationType = "payment_validated"
	TypeRunReopened      NotificationType = "payroll_run_reopened"
)

// Notification represents a stored notification row
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	Priority    int
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
