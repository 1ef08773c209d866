// Package borrowrequests provides database operations for the borrow
// request aggregate: checkout, user-facing listing and editing while
// pending, and the conditional bulk updates used by the auto-transition
// scans.
package borrowrequests

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	// ErrNotFound is returned when a request does not exist or does not
	// belong to the given user.
	ErrNotFound = errors.New("borrow request not found")
	// ErrNotPending is returned when a user-driven edit or cancel hits a
	// request that has already left the pending status.
	ErrNotPending = errors.New("borrow request is no longer pending")
)

// Repository handles all borrow request database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrow request repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ItemInput is one (book, quantity) line supplied by a checkout or edit.
type ItemInput struct {
	BookID   uint `json:"book_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// Create persists a new pending request with its line items.
func (r *Repository) Create(userID uint, startDate, endDate time.Time, items []ItemInput) (*entities.BorrowRequest, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a borrow request needs at least one item")
	}

	request := &entities.BorrowRequest{
		UserID:      userID,
		Status:      entities.StatusPending,
		RequestDate: time.Now(),
		StartDate:   startDate,
		EndDate:     endDate,
	}
	for _, item := range items {
		request.Items = append(request.Items, entities.BorrowRequestItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		})
	}

	if err := r.db.Create(request).Error; err != nil {
		return nil, err
	}
	return r.GetByID(request.ID)
}

// GetByID loads a request with its items, books and owning user.
func (r *Repository) GetByID(id uint) (*entities.BorrowRequest, error) {
	var request entities.BorrowRequest
	err := r.db.Preload("Items.Book").Preload("User").First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetForUser loads a request only if it belongs to the given user.
func (r *Repository) GetForUser(id, userID uint) (*entities.BorrowRequest, error) {
	var request entities.BorrowRequest
	err := r.db.Preload("Items.Book").
		Where("user_id = ?", userID).
		First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListFilters narrows a request listing. Zero values mean "no filter".
type ListFilters struct {
	UserID          uint
	Status          *entities.Status
	RequestDateFrom *time.Time
	RequestDateTo   *time.Time
	Limit           int
	Offset          int
}

// List returns requests newest-first with the given filters applied.
func (r *Repository) List(f ListFilters) ([]entities.BorrowRequest, int64, error) {
	query := r.db.Model(&entities.BorrowRequest{})
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.RequestDateFrom != nil {
		query = query.Where("request_date >= ?", *f.RequestDateFrom)
	}
	if f.RequestDateTo != nil {
		query = query.Where("request_date <= ?", *f.RequestDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Items.Book").Preload("User").Order("created_at DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var requests []entities.BorrowRequest
	err := query.Find(&requests).Error
	return requests, total, err
}

// ReplaceItems swaps the line items of a user's pending request and resets
// the status to pending (a need_update request goes back into review this
// way). Fails with ErrNotPending once an admin transition happened.
func (r *Repository) ReplaceItems(id, userID uint, items []ItemInput) (*entities.BorrowRequest, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a borrow request needs at least one item")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var request entities.BorrowRequest
		err := tx.Where("user_id = ?", userID).First(&request, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if request.Status != entities.StatusPending && request.Status != entities.StatusNeedUpdate {
			return ErrNotPending
		}

		if err := tx.Where("borrow_request_id = ?", id).
			Delete(&entities.BorrowRequestItem{}).Error; err != nil {
			return err
		}
		for _, item := range items {
			row := entities.BorrowRequestItem{
				BorrowRequestID: id,
				BookID:          item.BookID,
				Quantity:        item.Quantity,
			}
			if row.Quantity < 1 {
				return fmt.Errorf("item quantity must be at least 1")
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		return tx.Model(&entities.BorrowRequest{}).
			Session(&gorm.Session{SkipHooks: true}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":             entities.StatusPending,
				"need_update_reason": nil,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Cancel moves a pending request to cancelled. The status is re-checked in
// the UPDATE itself so a concurrent admin transition cannot be clobbered.
func (r *Repository) Cancel(id, userID uint) error {
	result := r.db.Model(&entities.BorrowRequest{}).
		Session(&gorm.Session{SkipHooks: true}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, entities.StatusPending).
		Update("status", entities.StatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var request entities.BorrowRequest
		err := r.db.Where("user_id = ?", userID).First(&request, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// MarkOverdue relabels borrowed requests whose end date has passed. The
// status is part of the UPDATE's WHERE clause, so requests that left
// borrowed between selection and update are untouched.
func (r *Repository) MarkOverdue(today time.Time) (int64, error) {
	result := r.db.Model(&entities.BorrowRequest{}).
		Session(&gorm.Session{SkipHooks: true}).
		Where("status = ? AND end_date < ?", entities.StatusBorrowed, today).
		Update("status", entities.StatusOverdue)
	return result.RowsAffected, result.Error
}

// MarkExpired relabels pending requests whose start date has passed.
func (r *Repository) MarkExpired(today time.Time) (int64, error) {
	result := r.db.Model(&entities.BorrowRequest{}).
		Session(&gorm.Session{SkipHooks: true}).
		Where("status = ? AND start_date < ?", entities.StatusPending, today).
		Update("status", entities.StatusExpired)
	return result.RowsAffected, result.Error
}

// Transitions returns the append-only transition log for a request,
// oldest first.
func (r *Repository) Transitions(id uint) ([]entities.BorrowRequestTransition, error) {
	var rows []entities.BorrowRequestTransition
	err := r.db.Where("borrow_request_id = ?", id).Order("id ASC").Find(&rows).Error
	return rows, err
}
