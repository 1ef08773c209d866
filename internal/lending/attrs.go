package lending

import (
	"time"

	"github.com/openshelf/openshelf/internal/entities"
)

// Context carries the caller-supplied fields of a status-change request.
// Nil dates default to the engine clock's "now" where a transition needs
// them.
type Context struct {
	ApprovedDate     *time.Time
	ActualBorrowDate *time.Time
	ActualReturnDate *time.Time
	AdminNote        string
}

// Patch is the set of attribute changes a transition applies on top of the
// status field itself. Clear flags distinguish "set to NULL" from "leave
// untouched".
type Patch struct {
	ApprovedByAdminID *uint
	ClearApprovedBy   bool
	RejectedByAdminID *uint
	ClearRejectedBy   bool
	BorrowedByAdminID *uint
	ReturnedByAdminID *uint

	ApprovedDate     *time.Time
	ActualBorrowDate *time.Time
	ActualReturnDate *time.Time
}

// StatusAttributes computes the attribute patch for a (prev, target)
// transition. Pure: no storage access, no side effects. Unknown targets
// fail before anything else happens.
func StatusAttributes(prev, target entities.Status, adminID uint, tc Context, now time.Time) (Patch, error) {
	if !target.Valid() {
		return Patch{}, ErrInvalidStatus
	}

	switch target {
	case entities.StatusApproved:
		if prev == entities.StatusApproved {
			// Idempotent re-approval keeps the original approver and date.
			return Patch{ClearRejectedBy: true}, nil
		}
		return Patch{
			ApprovedByAdminID: &adminID,
			ApprovedDate:      orNow(tc.ApprovedDate, now),
			ClearRejectedBy:   true,
		}, nil
	case entities.StatusBorrowed:
		return Patch{
			BorrowedByAdminID: &adminID,
			ActualBorrowDate:  orNow(tc.ActualBorrowDate, now),
		}, nil
	case entities.StatusRejected:
		return Patch{
			RejectedByAdminID: &adminID,
			ClearApprovedBy:   true,
		}, nil
	case entities.StatusReturned:
		return Patch{
			ReturnedByAdminID: &adminID,
			ActualReturnDate:  orNow(tc.ActualReturnDate, now),
		}, nil
	default:
		return Patch{}, nil
	}
}

// Apply merges the patch into the aggregate. The status field itself is set
// by the engine.
func (p Patch) Apply(request *entities.BorrowRequest) {
	if p.ApprovedByAdminID != nil {
		request.ApprovedByAdminID = p.ApprovedByAdminID
	}
	if p.ClearApprovedBy {
		request.ApprovedByAdminID = nil
	}
	if p.RejectedByAdminID != nil {
		request.RejectedByAdminID = p.RejectedByAdminID
	}
	if p.ClearRejectedBy {
		request.RejectedByAdminID = nil
	}
	if p.BorrowedByAdminID != nil {
		request.BorrowedByAdminID = p.BorrowedByAdminID
	}
	if p.ReturnedByAdminID != nil {
		request.ReturnedByAdminID = p.ReturnedByAdminID
	}
	if p.ApprovedDate != nil {
		request.ApprovedDate = p.ApprovedDate
	}
	if p.ActualBorrowDate != nil {
		request.ActualBorrowDate = p.ActualBorrowDate
	}
	if p.ActualReturnDate != nil {
		request.ActualReturnDate = p.ActualReturnDate
	}
}

func orNow(t *time.Time, now time.Time) *time.Time {
	if t != nil {
		return t
	}
	return &now
}
