// Package lending implements the borrow request lifecycle: the status
// transition engine and its side effects on the inventory ledger and the
// notification queue.
package lending

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/inventory"
)

// NotificationKind names the mails the engine can trigger.
type NotificationKind string

const (
	NotificationApproved NotificationKind = "approved"
	NotificationRejected NotificationKind = "rejected"
)

// Notifier is the best-effort side channel invoked after a successful
// approve/reject transition. Failures are logged by the engine and never
// affect the transition result.
type Notifier interface {
	NotifyStatusChange(kind NotificationKind, requestID uint) error
}

// Result describes the outcome of a transition. FinalStatus can differ from
// RequestedStatus: an approval against insufficient stock is redirected to
// need_update instead of being rejected outright.
type Result struct {
	Request         *entities.BorrowRequest
	RequestedStatus entities.Status
	FinalStatus     entities.Status
	NeedsUpdate     bool
}

// Engine drives all admin status transitions on borrow requests. Every
// transition runs in a single transaction covering the aggregate update,
// the stock adjustment and the transition log row.
type Engine struct {
	db       *gorm.DB
	ledger   *inventory.Ledger
	notifier Notifier
	clock    func() time.Time

	// rejectAllNoChange widens the no-change guard from the re-approval
	// case to every status pair.
	rejectAllNoChange bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the notification side channel.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock injects the time source used for defaulted transition dates.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// RejectAllNoChange makes the engine refuse any transition whose target
// equals the current status, not just the approved re-confirmation case.
func RejectAllNoChange() Option {
	return func(e *Engine) { e.rejectAllNoChange = true }
}

// NewEngine creates a transition engine.
func NewEngine(db *gorm.DB, ledger *inventory.Ledger, opts ...Option) *Engine {
	e := &Engine{
		db:     db,
		ledger: ledger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transition moves a borrow request to the target status on behalf of the
// given admin, applying the status-specific attributes and stock side
// effects atomically. On success a notification is enqueued for
// approve/reject; enqueue failures are logged and swallowed.
func (e *Engine) Transition(ctx context.Context, requestID uint, target entities.Status, adminID uint, tc Context) (*Result, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	result := &Result{RequestedStatus: target}
	var notifyKind NotificationKind

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		prev := request.Status

		if err := e.checkNoChange(request, target, tc); err != nil {
			return err
		}

		patch, err := StatusAttributes(prev, target, adminID, tc, e.clock())
		if err != nil {
			return err
		}

		if tc.AdminNote != "" {
			request.AdminNote = tc.AdminNote
		}

		ledger := e.ledger.WithTx(tx)
		switch target {
		case entities.StatusApproved:
			ok, err := ledger.Sufficient(request.Items)
			if err != nil {
				return err
			}
			if !ok {
				// Stock shortfall: redirect the approval into need_update
				// with the recorded reasons instead of failing.
				messages, err := ledger.ShortfallMessages(request.Items)
				if err != nil {
					return err
				}
				request.Status = entities.StatusNeedUpdate
				request.NeedUpdateReason = messages
				if err := tx.Save(request).Error; err != nil {
					return err
				}
				result.NeedsUpdate = true
				return e.finish(tx, result, request, prev, adminID)
			}

			patch.Apply(request)
			request.Status = target
			request.NeedUpdateReason = nil
			if err := tx.Save(request).Error; err != nil {
				return err
			}
			if prev != entities.StatusApproved {
				if err := ledger.Decrement(request.Items); err != nil {
					return err
				}
			}
			notifyKind = NotificationApproved

		case entities.StatusRejected:
			patch.Apply(request)
			request.Status = target
			if err := tx.Save(request).Error; err != nil {
				return err
			}
			notifyKind = NotificationRejected

		case entities.StatusReturned:
			patch.Apply(request)
			request.Status = target
			if err := tx.Save(request).Error; err != nil {
				return err
			}
			if prev != entities.StatusReturned {
				if err := ledger.Increment(request.Items); err != nil {
					return err
				}
			}

		default:
			patch.Apply(request)
			request.Status = target
			if err := tx.Save(request).Error; err != nil {
				return err
			}
		}

		return e.finish(tx, result, request, prev, adminID)
	})
	if err != nil {
		return nil, err
	}

	if notifyKind != "" && e.notifier != nil {
		if err := e.notifier.NotifyStatusChange(notifyKind, requestID); err != nil {
			log.Printf("Failed to enqueue %s notification for request %d: %v", notifyKind, requestID, err)
		}
	}

	return result, nil
}

// lockRequest loads the aggregate with its items under a row lock so
// concurrent transitions on the same request serialize. SQLite has no row
// locks but serializes writers at the connection level.
func (e *Engine) lockRequest(tx *gorm.DB, requestID uint) (*entities.BorrowRequest, error) {
	query := tx.Preload("Items.Book")
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var request entities.BorrowRequest
	if err := query.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// checkNoChange refuses degenerate transitions. By default only the
// approved re-confirmation with an unchanged approved date is refused,
// matching the admin workflow; RejectAllNoChange widens it to all pairs.
func (e *Engine) checkNoChange(request *entities.BorrowRequest, target entities.Status, tc Context) error {
	if target != request.Status {
		return nil
	}
	if e.rejectAllNoChange {
		return ErrNoChange
	}
	if target == entities.StatusApproved && sameDate(request.ApprovedDate, tc.ApprovedDate) {
		return ErrNoChange
	}
	return nil
}

func (e *Engine) finish(tx *gorm.DB, result *Result, request *entities.BorrowRequest, prev entities.Status, adminID uint) error {
	if err := e.logTransition(tx, request.ID, prev, request.Status, adminID); err != nil {
		return err
	}
	result.Request = request
	result.FinalStatus = request.Status
	return nil
}

func (e *Engine) logTransition(tx *gorm.DB, requestID uint, from, to entities.Status, adminID uint) error {
	row := entities.BorrowRequestTransition{
		BorrowRequestID: requestID,
		FromStatus:      from,
		ToStatus:        to,
	}
	if adminID > 0 {
		row.AdminID = &adminID
	}
	return tx.Create(&row).Error
}

func sameDate(current, supplied *time.Time) bool {
	if supplied == nil {
		return true
	}
	if current == nil {
		return false
	}
	return supplied.Equal(*current)
}
