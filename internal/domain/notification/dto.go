package notification

// CreateNotificationRequest is what producers hand to the dispatcher.
type CreateNotificationRequest struct {
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	Priority    int
}
