package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/konema-hr/hrmis-backend-go/internal/domain/notification"
)

// Config holds dispatcher configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type dispatcher struct {
	repo   notification.Repository
	config Config

	queue  chan notification.CreateNotificationRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewDispatcher creates a notification dispatcher with background workers.
// Notifications are buffered and batch-inserted; when the queue is full the
// dispatcher falls back to a direct insert on the caller's goroutine.
func NewDispatcher(repo notification.Repository, cfg Config) notification.Dispatcher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	d := &dispatcher{
		repo:   repo,
		config: cfg,
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	log.Printf("[NotificationDispatcher] Started with %d workers, batch size %d, flush interval %v",
		cfg.WorkerCount, cfg.BatchSize, cfg.FlushInterval)

	return d
}

func fromRequest(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		Priority:    req.Priority,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}
}

// worker drains the queue and flushes batches on size or interval
func (d *dispatcher) worker(id int) {
	defer d.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, d.config.BatchSize)
	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = fromRequest(req)
		}

		if err := d.repo.CreateBatch(ctx, notifications); err != nil {
			log.Printf("[NotificationWorker-%d] Failed to batch insert: %v", id, err)
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-d.queue:
			batch = append(batch, req)
			if len(batch) >= d.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-d.stopCh:
			flush()
			return
		}
	}
}

// Dispatch queues a notification for async processing
func (d *dispatcher) Dispatch(ctx context.Context, req notification.CreateNotificationRequest) error {
	select {
	case d.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full, try direct insert
		return d.directInsert(ctx, req)
	}
}

// DispatchBulk queues multiple notifications for async processing
func (d *dispatcher) DispatchBulk(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	for _, req := range reqs {
		if err := d.Dispatch(ctx, req); err != nil {
			log.Printf("[NotificationDispatcher] Failed to queue notification: %v", err)
		}
	}
	return nil
}

// directInsert writes a notification synchronously when the queue is full
func (d *dispatcher) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	return d.repo.Create(ctx, fromRequest(req))
}

// Stop drains the queue and stops the workers
func (d *dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}
