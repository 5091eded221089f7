package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"consultly/models"
)

const TypeNotificationSend = "notification:send"

// Notification kinds carried in the task payload.
const (
	KindBookingConfirmation = "booking_confirmation"
	KindAdmin               = "admin"
	KindWaitlist            = "waitlist"
)

// NotificationService is how the scheduling core emits outbound messages.
// Every method only enqueues a delivery task; actual delivery happens in the
// background worker, so state transitions never block on it.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, recipient string, context map[string]string) error
	SendAdminNotification(ctx context.Context, title string, context map[string]string) error
	SendWaitlistNotification(ctx context.Context, recipient string, context map[string]string) error
}

// DefaultNotificationService enqueues notification tasks on the asynq queue.
type DefaultNotificationService struct {
	client *asynq.Client
}

func NewDefaultNotificationService(client *asynq.Client) (*DefaultNotificationService, error) {
	if client == nil {
		return nil, fmt.Errorf("notification service initialization error: asynq client is nil")
	}
	return &DefaultNotificationService{client: client}, nil
}

func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, recipient string, msgCtx map[string]string) error {
	return s.enqueue(ctx, models.NotificationPayload{
		Kind:      KindBookingConfirmation,
		Recipient: recipient,
		Context:   msgCtx,
	})
}

func (s *DefaultNotificationService) SendAdminNotification(ctx context.Context, title string, msgCtx map[string]string) error {
	return s.enqueue(ctx, models.NotificationPayload{
		Kind:    KindAdmin,
		Title:   title,
		Context: msgCtx,
	})
}

func (s *DefaultNotificationService) SendWaitlistNotification(ctx context.Context, recipient string, msgCtx map[string]string) error {
	return s.enqueue(ctx, models.NotificationPayload{
		Kind:      KindWaitlist,
		Recipient: recipient,
		Context:   msgCtx,
	})
}

func (s *DefaultNotificationService) enqueue(ctx context.Context, p models.NotificationPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	task := asynq.NewTask(TypeNotificationSend, body)
	if _, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", p.Kind, err)
	}
	return nil
}
