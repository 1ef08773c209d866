package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func validPendingRequest() BorrowRequest {
	return BorrowRequest{
		UserID:      1,
		Status:      StatusPending,
		RequestDate: date(2026, 3, 1),
		StartDate:   date(2026, 3, 10),
		EndDate:     date(2026, 3, 20),
		Items: []BorrowRequestItem{
			{BookID: 1, Quantity: 1},
		},
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func TestBorrowRequestValidate(t *testing.T) {
	t.Run("valid pending request passes", func(t *testing.T) {
		request := validPendingRequest()
		assert.NoError(t, request.Validate())
	})

	t.Run("end date must be strictly after start date", func(t *testing.T) {
		request := validPendingRequest()
		request.EndDate = request.StartDate
		assert.Contains(t, fieldNames(t, request.Validate()), "end_date")

		request.EndDate = request.StartDate.AddDate(0, 0, -1)
		assert.Contains(t, fieldNames(t, request.Validate()), "end_date")
	})

	t.Run("unknown status code fails", func(t *testing.T) {
		request := validPendingRequest()
		request.Status = Status(99)
		assert.Contains(t, fieldNames(t, request.Validate()), "status")
	})

	t.Run("zero quantity item fails", func(t *testing.T) {
		request := validPendingRequest()
		request.Items[0].Quantity = 0
		assert.Contains(t, fieldNames(t, request.Validate()), "items")
	})

	t.Run("rejected requires an admin note", func(t *testing.T) {
		request := validPendingRequest()
		request.Status = StatusRejected
		assert.Contains(t, fieldNames(t, request.Validate()), "admin_note")

		request.AdminNote = "out of scope for inter-library loans"
		assert.NoError(t, request.Validate())
	})
}

func TestBorrowRequestValidateApproved(t *testing.T) {
	approved := func() BorrowRequest {
		request := validPendingRequest()
		request.Status = StatusApproved
		request.ApprovedDate = datePtr(2026, 3, 5)
		return request
	}

	t.Run("valid approval passes", func(t *testing.T) {
		request := approved()
		assert.NoError(t, request.Validate())
	})

	t.Run("approved date is required", func(t *testing.T) {
		request := approved()
		request.ApprovedDate = nil
		assert.Contains(t, fieldNames(t, request.Validate()), "approved_date")
	})

	t.Run("approved date may equal request date or start date", func(t *testing.T) {
		request := approved()
		request.ApprovedDate = datePtr(2026, 3, 1)
		assert.NoError(t, request.Validate())

		request.ApprovedDate = datePtr(2026, 3, 10)
		assert.NoError(t, request.Validate())
	})

	t.Run("approved date outside the window fails", func(t *testing.T) {
		request := approved()
		request.ApprovedDate = datePtr(2026, 2, 28)
		assert.Contains(t, fieldNames(t, request.Validate()), "approved_date")

		request.ApprovedDate = datePtr(2026, 3, 11)
		assert.Contains(t, fieldNames(t, request.Validate()), "approved_date")
	})
}

func TestBorrowRequestValidateBorrowed(t *testing.T) {
	borrowed := func() BorrowRequest {
		request := validPendingRequest()
		request.Status = StatusBorrowed
		request.ApprovedDate = datePtr(2026, 3, 5)
		request.ActualBorrowDate = datePtr(2026, 3, 10)
		return request
	}

	t.Run("valid borrow passes", func(t *testing.T) {
		request := borrowed()
		assert.NoError(t, request.Validate())
	})

	t.Run("actual borrow date is required", func(t *testing.T) {
		request := borrowed()
		request.ActualBorrowDate = nil
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_borrow_date")
	})

	t.Run("borrow date before approval fails", func(t *testing.T) {
		request := borrowed()
		request.StartDate = date(2026, 3, 2)
		request.ActualBorrowDate = datePtr(2026, 3, 4)
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_borrow_date")
	})

	t.Run("borrow date outside the lending window fails", func(t *testing.T) {
		request := borrowed()
		request.ActualBorrowDate = datePtr(2026, 3, 9)
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_borrow_date")

		request.ActualBorrowDate = datePtr(2026, 3, 21)
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_borrow_date")
	})

	t.Run("borrow date may equal either window bound", func(t *testing.T) {
		request := borrowed()
		request.ActualBorrowDate = datePtr(2026, 3, 20)
		assert.NoError(t, request.Validate())
	})
}

func TestBorrowRequestValidateReturned(t *testing.T) {
	returned := func() BorrowRequest {
		request := validPendingRequest()
		request.Status = StatusReturned
		request.ActualBorrowDate = datePtr(2026, 3, 10)
		request.ActualReturnDate = datePtr(2026, 3, 15)
		return request
	}

	t.Run("valid return passes", func(t *testing.T) {
		request := returned()
		assert.NoError(t, request.Validate())
	})

	t.Run("actual return date is required", func(t *testing.T) {
		request := returned()
		request.ActualReturnDate = nil
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_return_date")
	})

	t.Run("return before borrow fails", func(t *testing.T) {
		request := returned()
		request.ActualReturnDate = datePtr(2026, 3, 9)
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_return_date")
	})

	t.Run("future return date fails", func(t *testing.T) {
		request := returned()
		future := time.Now().AddDate(0, 0, 2)
		request.ActualReturnDate = &future
		assert.Contains(t, fieldNames(t, request.Validate()), "actual_return_date")
	})
}
