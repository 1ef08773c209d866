package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/lending"
	"github.com/openshelf/openshelf/internal/notify"
)

// RequestLoader loads a borrow request with its owner for mail rendering.
type RequestLoader interface {
	GetByID(id uint) (*entities.BorrowRequest, error)
}

// StatusMailTask sends the approval/rejection mail for a borrow request.
type StatusMailTask struct {
	Kind      string `json:"kind"`
	RequestID uint   `json:"request_id"`
}

// Config returns the queue configuration for status mail tasks.
func (t StatusMailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "status_mail",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// StatusMailProcessor creates a processor function for StatusMailTask.
func StatusMailProcessor(loader RequestLoader, mailer notify.Mailer) backlite.QueueProcessor[StatusMailTask] {
	return func(ctx context.Context, task StatusMailTask) error {
		if mailer == nil {
			return fmt.Errorf("mailer not configured")
		}

		request, err := loader.GetByID(task.RequestID)
		if err != nil {
			return fmt.Errorf("load request %d: %w", task.RequestID, err)
		}

		switch lending.NotificationKind(task.Kind) {
		case lending.NotificationApproved:
			err = mailer.SendBorrowRequestApproved(request)
		case lending.NotificationRejected:
			err = mailer.SendBorrowRequestRejected(request)
		default:
			return fmt.Errorf("unknown notification kind %q", task.Kind)
		}
		if err != nil {
			return fmt.Errorf("send %s mail for request %d: %w", task.Kind, task.RequestID, err)
		}

		log.Printf("[TASK] Sent %s mail for request %d", task.Kind, task.RequestID)
		return nil
	}
}

// NewStatusMailQueue creates a backlite queue for status mail tasks.
func NewStatusMailQueue(loader RequestLoader, mailer notify.Mailer) backlite.Queue {
	return backlite.NewQueue(StatusMailProcessor(loader, mailer))
}

// QueueNotifier adapts the task client to the engine's Notifier interface.
type QueueNotifier struct {
	client *Client
}

// NewQueueNotifier creates a notifier that enqueues status mail tasks.
func NewQueueNotifier(client *Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// NotifyStatusChange enqueues the mail for a transition. Called after the
// transition committed, so a queue failure loses at most a mail.
func (n *QueueNotifier) NotifyStatusChange(kind lending.NotificationKind, requestID uint) error {
	_, err := n.client.Add(StatusMailTask{Kind: string(kind), RequestID: requestID}).Save()
	return err
}
