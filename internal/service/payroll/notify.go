package payroll

import (
	"context"
	"fmt"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/notification"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
)

// Notification fan-out for run lifecycle events. Every helper is
// fire-and-forget: failures are logged and never surface to the caller,
// the payroll outcome is already committed by the time these run.

func periodLabel(run payroll.PayrollRun) string {
	return fmt.Sprintf("%04d-%02d", run.Year, run.Month)
}

func (s *RunServiceImpl) notifyRunGenerated(ctx context.Context, run payroll.PayrollRun, payslipCount int) {
	if s.notifier == nil {
		return
	}
	actorID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return
	}

	err = s.notifier.Dispatch(ctx, notification.CreateNotificationRequest{
		RecipientID: actorID,
		Type:        notification.TypeRunGenerated,
		Title:       "Payroll run generated",
		Message:     fmt.Sprintf("Payroll run %s generated with %d payslips.", periodLabel(run), payslipCount),
		Data: map[string]interface{}{
			"run_id":        run.ID,
			"payslip_count": payslipCount,
		},
	})
	if err != nil {
		s.logger.Warn("failed to dispatch run generated notification", "run_id", run.ID, "error", err)
	}
}

func (s *RunServiceImpl) notifyPayslipsReady(ctx context.Context, run payroll.PayrollRun) {
	if s.notifier == nil {
		return
	}

	slips, err := s.runs.ListPayslipsByRun(ctx, run.ID)
	if err != nil {
		s.logger.Warn("failed to list payslips for notification", "run_id", run.ID, "error", err)
		return
	}

	var reqs []notification.CreateNotificationRequest
	for _, slip := range slips {
		emp, err := s.employeeRepo.GetByID(ctx, slip.EmployeeID)
		if err != nil || emp.UserID == nil {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: *emp.UserID,
			Type:        notification.TypePayslipReady,
			Title:       "Payslip ready",
			Message:     fmt.Sprintf("Your payslip for %s is ready: net pay %s %s.", periodLabel(run), slip.NetPay.StringFixed(2), slip.CurrencyCode),
			Data: map[string]interface{}{
				"run_id":     run.ID,
				"payslip_id": slip.ID,
			},
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := s.notifier.DispatchBulk(ctx, reqs); err != nil {
		s.logger.Warn("failed to dispatch payslip ready notifications", "run_id", run.ID, "error", err)
	}
}

func (s *RunServiceImpl) notifyPaymentValidated(ctx context.Context, run payroll.PayrollRun) {
	if s.notifier == nil {
		return
	}

	var reqs []notification.CreateNotificationRequest
	if actorID, _, err := getClaimsFromContext(ctx); err == nil {
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: actorID,
			Type:        notification.TypePaymentValidated,
			Title:       "Payroll run closed",
			Message:     fmt.Sprintf("Payroll run %s is closed and validated for payment.", periodLabel(run)),
			Data:        map[string]interface{}{"run_id": run.ID},
		})
	}

	slips, err := s.runs.ListPayslipsByRun(ctx, run.ID)
	if err != nil {
		s.logger.Warn("failed to list payslips for notification", "run_id", run.ID, "error", err)
	}
	for _, slip := range slips {
		emp, err := s.employeeRepo.GetByID(ctx, slip.EmployeeID)
		if err != nil || emp.UserID == nil {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: *emp.UserID,
			Type:        notification.TypePaymentValidated,
			Title:       "Payment validated",
			Message:     fmt.Sprintf("Your pay for %s has been validated for payment.", periodLabel(run)),
			Data: map[string]interface{}{
				"run_id":     run.ID,
				"payslip_id": slip.ID,
			},
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := s.notifier.DispatchBulk(ctx, reqs); err != nil {
		s.logger.Warn("failed to dispatch payment validated notifications", "run_id", run.ID, "error", err)
	}
}

func (s *RunServiceImpl) notifyRunReopened(ctx context.Context, run payroll.PayrollRun) {
	if s.notifier == nil {
		return
	}
	actorID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return
	}

	err = s.notifier.Dispatch(ctx, notification.CreateNotificationRequest{
		RecipientID: actorID,
		Type:        notification.TypeRunReopened,
		Title:       "Payroll run reopened",
		Message:     fmt.Sprintf("Payroll run %s was reopened; its payslips were discarded.", periodLabel(run)),
		Data:        map[string]interface{}{"run_id": run.ID},
	})
	if err != nil {
		s.logger.Warn("failed to dispatch run reopened notification", "run_id", run.ID, "error", err)
	}
}
