package reservation

import "fmt"

// Status represents the current state of a reservation in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRented    Status = "rented"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// validTransitions defines the state machine for reservation status changes.
// No inactive status leads back to an active one.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed: {StatusRented, StatusCancelled},
	StatusRented:    {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// activeStatuses hold their dates against availability.
var activeStatuses = []Status{StatusPending, StatusConfirmed, StatusRented}

// ActiveStatuses returns the statuses that block an item's dates.
func ActiveStatuses() []Status {
	out := make([]Status, len(activeStatuses))
	copy(out, activeStatuses)
	return out
}

// ActiveStatusValues returns ActiveStatuses as plain strings for queries.
func ActiveStatusValues() []string {
	out := make([]string, len(activeStatuses))
	for i, s := range activeStatuses {
		out[i] = string(s)
	}
	return out
}

// IsValid returns true if the status is a recognized reservation status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsActive returns true if a reservation in this status blocks its dates.
func (s Status) IsActive() bool {
	for _, a := range activeStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}
