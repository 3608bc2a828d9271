package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/konema-hr/hrmis-backend-go/internal/domain/notification"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const insertNotification = `
	INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, data, priority, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	dataJSON, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	_, err = q.Exec(ctx, insertNotification,
		n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
		dataJSON, n.Priority, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	for _, n := range ns {
		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		_, err = q.Exec(ctx, insertNotification,
			n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
			dataJSON, n.Priority, n.IsRead, n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to batch insert notifications: %w", err)
		}
	}
	return nil
}
