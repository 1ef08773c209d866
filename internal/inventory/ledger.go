// Package inventory owns the per-title stock counts. All adjustments go
// through the Ledger so that the check-then-decrement sequence stays inside
// the caller's transaction and concurrent approvals cannot overdraw stock.
package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// ErrInsufficientStock is returned by Decrement when a conditional update
// matches no row. Under correct sequencing (Sufficient checked in the same
// transaction) this only fires on a lost race, and the caller's transaction
// rolls back.
var ErrInsufficientStock = errors.New("insufficient stock")

// Ledger adjusts book stock counters atomically.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger bound to the given database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger that runs inside the given transaction. Stock
// reads and writes that must be atomic with an aggregate update go through
// the transactional ledger.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Sufficient reports whether every line item can be satisfied from the
// current available quantities. Pure read, no mutation.
func (l *Ledger) Sufficient(items []entities.BorrowRequestItem) (bool, error) {
	for _, item := range items {
		book, err := l.loadBook(item.BookID)
		if err != nil {
			return false, err
		}
		if item.Quantity > book.AvailableQuantity {
			return false, nil
		}
	}
	return true, nil
}

// ShortfallMessages returns one human-readable message per unsatisfiable
// item, preserving item order. Empty when the request is fully satisfiable.
func (l *Ledger) ShortfallMessages(items []entities.BorrowRequestItem) ([]string, error) {
	var messages []string
	for _, item := range items {
		book, err := l.loadBook(item.BookID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > book.AvailableQuantity {
			messages = append(messages, fmt.Sprintf("Book '%s' only has %d left (requested %d)",
				book.Title, book.AvailableQuantity, item.Quantity))
		}
	}
	return messages, nil
}

// Decrement takes stock for every line item and bumps the borrow counters.
// Each item is a single conditional UPDATE guarded by the remaining
// quantity, so stock can never go negative even if two approvals race.
func (l *Ledger) Decrement(items []entities.BorrowRequestItem) error {
	for _, item := range items {
		result := l.db.Model(&entities.Book{}).
			Where("id = ? AND available_quantity >= ?", item.BookID, item.Quantity).
			UpdateColumns(map[string]any{
				"available_quantity": gorm.Expr("available_quantity - ?", item.Quantity),
				"borrow_count":       gorm.Expr("borrow_count + ?", item.Quantity),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("book %d: %w", item.BookID, ErrInsufficientStock)
		}
	}
	return nil
}

// Increment restores stock for every line item. Returns always restore
// exactly what was taken, so the total_quantity bound is not re-checked.
func (l *Ledger) Increment(items []entities.BorrowRequestItem) error {
	for _, item := range items {
		err := l.db.Model(&entities.Book{}).
			Where("id = ?", item.BookID).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity + ?", item.Quantity)).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) loadBook(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := l.db.First(&book, id).Error; err != nil {
		return nil, fmt.Errorf("load book %d: %w", id, err)
	}
	return &book, nil
}
