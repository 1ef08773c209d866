package entities

import "fmt"

// Status is the lifecycle state of a borrow request. The integer codes are
// part of the persisted schema and must not be renumbered.
type Status int

const (
	StatusExpired    Status = -1
	StatusPending    Status = 0
	StatusApproved   Status = 1
	StatusRejected   Status = 2
	StatusReturned   Status = 3
	StatusOverdue    Status = 4
	StatusCancelled  Status = 5
	StatusBorrowed   Status = 6
	StatusNeedUpdate Status = 7
)

var statusNames = map[Status]string{
	StatusExpired:    "expired",
	StatusPending:    "pending",
	StatusApproved:   "approved",
	StatusRejected:   "rejected",
	StatusReturned:   "returned",
	StatusOverdue:    "overdue",
	StatusCancelled:  "cancelled",
	StatusBorrowed:   "borrowed",
	StatusNeedUpdate: "need_update",
}

var statusByName = func() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for s, name := range statusNames {
		m[name] = s
	}
	return m
}()

// ParseStatus converts a status name (e.g. "approved") into a Status.
func ParseStatus(name string) (Status, error) {
	s, ok := statusByName[name]
	if !ok {
		return 0, fmt.Errorf("%q is not a valid status", name)
	}
	return s, nil
}

// Valid reports whether s is one of the known status codes.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalJSON renders the status by name so API clients never see the
// integer codes.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%d is not a valid status code", int(s))
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("status must be a string")
	}
	parsed, err := ParseStatus(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
