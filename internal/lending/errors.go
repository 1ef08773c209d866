package lending

import "errors"

var (
	// ErrInvalidStatus is returned before any attribute computation when
	// the requested target is not a known status.
	ErrInvalidStatus = errors.New("invalid target status")

	// ErrNoChange is returned when the requested transition would not
	// change anything and the caller must acknowledge it explicitly.
	ErrNoChange = errors.New("status has not changed")

	// ErrNotFound is returned when the borrow request does not exist.
	ErrNotFound = errors.New("borrow request not found")
)
