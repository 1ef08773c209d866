package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BorrowRequest is the aggregate root of the lending workflow. It is
// created in StatusPending from a cart checkout and mutated exclusively
// through the lending engine afterwards (or by the owning user editing
// items / cancelling while still pending).
type BorrowRequest struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"uniqueIndex;size:36" json:"reference"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Status Status `gorm:"index;not null;default:0" json:"status"`

	RequestDate time.Time `gorm:"not null" json:"request_date"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`

	ApprovedDate     *time.Time `json:"approved_date,omitempty"`
	ActualBorrowDate *time.Time `json:"actual_borrow_date,omitempty"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`

	AdminNote        string     `gorm:"type:text" json:"admin_note,omitempty"`
	NeedUpdateReason StringList `gorm:"type:text" json:"need_update_reason,omitempty"`

	ApprovedByAdminID *uint `json:"approved_by_admin_id,omitempty"`
	RejectedByAdminID *uint `json:"rejected_by_admin_id,omitempty"`
	BorrowedByAdminID *uint `json:"borrowed_by_admin_id,omitempty"`
	ReturnedByAdminID *uint `json:"returned_by_admin_id,omitempty"`

	Items []BorrowRequestItem `gorm:"foreignKey:BorrowRequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BorrowRequestItem is one (book, quantity) line within a request.
type BorrowRequestItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BorrowRequestID uint      `gorm:"index;not null" json:"borrow_request_id"`
	BookID          uint      `gorm:"index;not null" json:"book_id"`
	Book            Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BorrowRequestTransition is an append-only log row recording who moved a
// request between which statuses and when.
type BorrowRequestTransition struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BorrowRequestID uint      `gorm:"index;not null" json:"borrow_request_id"`
	FromStatus      Status    `gorm:"not null" json:"from_status"`
	ToStatus        Status    `gorm:"not null" json:"to_status"`
	AdminID         *uint     `json:"admin_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (BorrowRequest) TableName() string           { return "borrow_requests" }
func (BorrowRequestItem) TableName() string       { return "borrow_request_items" }
func (BorrowRequestTransition) TableName() string { return "borrow_request_transitions" }

// Validate checks the cross-field invariants that must hold on every save.
// The rules mirror the lending workflow: date fields that only exist once a
// transition happened are required exactly when the status says so.
func (br *BorrowRequest) Validate() error {
	verr := &ValidationError{}

	if !br.Status.Valid() {
		verr.add("status", "%d is not a valid status code", int(br.Status))
	}
	if br.RequestDate.IsZero() {
		verr.add("request_date", "is required")
	}
	if br.StartDate.IsZero() {
		verr.add("start_date", "is required")
	}
	if br.EndDate.IsZero() {
		verr.add("end_date", "is required")
	}
	if !br.StartDate.IsZero() && !br.EndDate.IsZero() && !br.EndDate.After(br.StartDate) {
		verr.add("end_date", "must be after start_date")
	}

	switch br.Status {
	case StatusRejected:
		if br.AdminNote == "" {
			verr.add("admin_note", "is required when rejected")
		}
	case StatusApproved:
		br.validateApproved(verr)
	case StatusBorrowed:
		br.validateBorrowed(verr)
	case StatusReturned:
		br.validateReturned(verr)
	}

	for i, item := range br.Items {
		if item.Quantity < 1 {
			verr.add("items", "item %d quantity must be at least 1", i)
		}
	}

	return verr.orNil()
}

func (br *BorrowRequest) validateApproved(verr *ValidationError) {
	if br.ApprovedDate == nil {
		verr.add("approved_date", "is required when approved")
		return
	}
	if br.ApprovedDate.Before(br.RequestDate) {
		verr.add("approved_date", "must be after request_date")
	}
	if br.ApprovedDate.After(br.StartDate) {
		verr.add("approved_date", "must be before start_date")
	}
}

func (br *BorrowRequest) validateBorrowed(verr *ValidationError) {
	if br.ActualBorrowDate == nil {
		verr.add("actual_borrow_date", "is required when borrowed")
		return
	}
	if br.ApprovedDate != nil && br.ActualBorrowDate.Before(*br.ApprovedDate) {
		verr.add("actual_borrow_date", "must be after approved_date")
	}
	if br.ActualBorrowDate.Before(br.StartDate) {
		verr.add("actual_borrow_date", "must be after start_date")
	}
	if br.ActualBorrowDate.After(br.EndDate) {
		verr.add("actual_borrow_date", "must be before end_date")
	}
}

func (br *BorrowRequest) validateReturned(verr *ValidationError) {
	if br.ActualReturnDate == nil {
		verr.add("actual_return_date", "is required when returned")
		return
	}
	if br.ActualReturnDate.After(time.Now()) {
		verr.add("actual_return_date", "cannot be in the future")
	}
	if br.ActualBorrowDate != nil && br.ActualReturnDate.Before(*br.ActualBorrowDate) {
		verr.add("actual_return_date", "must be after actual_borrow_date")
	}
}

// BeforeSave enforces the invariants on every create and update that goes
// through a full struct save, rolling back the surrounding transaction on
// violation. Column-level batch updates (the auto-transition scans) skip
// hooks explicitly.
func (br *BorrowRequest) BeforeSave(tx *gorm.DB) error {
	return br.Validate()
}

// BeforeCreate assigns the user-facing reference code.
func (br *BorrowRequest) BeforeCreate(tx *gorm.DB) error {
	if br.Reference == "" {
		br.Reference = uuid.NewString()
	}
	return nil
}
