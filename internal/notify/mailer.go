// Package notify defines the outbound mail collaborator. Delivery is
// best-effort: the engine enqueues, the queue retries, and a mailer that
// keeps failing only ever costs the user an email.
package notify

import (
	"fmt"
	"log"

	"github.com/openshelf/openshelf/internal/entities"
)

// Mailer sends the status-change mails to the request's owner.
type Mailer interface {
	SendBorrowRequestApproved(request *entities.BorrowRequest) error
	SendBorrowRequestRejected(request *entities.BorrowRequest) error
}

// LogMailer writes mails to the log instead of a transport. It is the
// default until a real transport is wired in deployment.
type LogMailer struct {
	From string
}

// NewLogMailer creates a log-backed mailer.
func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

func (m *LogMailer) SendBorrowRequestApproved(request *entities.BorrowRequest) error {
	return m.send("approved", request)
}

func (m *LogMailer) SendBorrowRequestRejected(request *entities.BorrowRequest) error {
	return m.send("rejected", request)
}

func (m *LogMailer) send(kind string, request *entities.BorrowRequest) error {
	if request.User.Email == "" {
		return fmt.Errorf("request %d has no recipient email", request.ID)
	}
	log.Printf("[MAIL] %s -> %s: borrow request %s %s",
		m.From, request.User.Email, request.Reference, kind)
	return nil
}
