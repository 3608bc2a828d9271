package notification

import "context"

// Dispatcher is the fire-and-forget notification sink consumed by the
// payroll engine. Dispatch must never block the caller for long and its
// errors must never roll back already-committed payroll state.
type Dispatcher interface {
	Dispatch(ctx context.Context, req CreateNotificationRequest) error
	DispatchBulk(ctx context.Context, reqs []CreateNotificationRequest) error

	// Lifecycle
	Stop()
}
