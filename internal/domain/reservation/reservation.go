package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// Contact holds the customer details captured with a reservation. The engine
// passes them through untouched apart from requiring a name.
type Contact struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
}

// Reservation is a customer's claim on an item for a closed date interval.
type Reservation struct {
	id         int64
	itemID     int64
	period     Period
	status     Status
	customerID *uuid.UUID
	contact    Contact
	notes      string
	statusNote string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation builds a candidate reservation. The id is assigned by the
// store when the candidate is created. An empty status defaults to pending.
func NewReservation(
	itemID int64,
	period Period,
	status Status,
	customerID *uuid.UUID,
	contact Contact,
	notes string,
) (*Reservation, error) {
	if itemID <= 0 {
		return nil, domain.NewValidationError("item ID is required")
	}
	if period.IsZero() {
		return nil, domain.NewValidationError("reservation period is required")
	}
	if strings.TrimSpace(contact.Name) == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if status == "" {
		status = StatusPending
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid reservation status: %s", status))
	}

	now := time.Now().UTC()
	return &Reservation{
		itemID:     itemID,
		period:     period,
		status:     status,
		customerID: customerID,
		contact:    contact,
		notes:      notes,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id int64,
	itemID int64,
	period Period,
	status Status,
	customerID *uuid.UUID,
	contact Contact,
	notes string,
	statusNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		itemID:     itemID,
		period:     period,
		status:     status,
		customerID: customerID,
		contact:    contact,
		notes:      notes,
		statusNote: statusNote,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ReconstructPeriod rebuilds a Period from stored dates (no validation).
func ReconstructPeriod(start, end time.Time) Period {
	return Period{start: toDate(start), end: toDate(end)}
}

// --- Getters ---

// ID returns the store-assigned identifier, or zero before creation.
func (r *Reservation) ID() int64 { return r.id }

// ItemID returns the reserved item.
func (r *Reservation) ItemID() int64 { return r.itemID }

// Period returns the reserved dates.
func (r *Reservation) Period() Period { return r.period }

// Status returns the current status.
func (r *Reservation) Status() Status { return r.status }

// CustomerID returns the authenticated customer, or nil for operator-entered reservations.
func (r *Reservation) CustomerID() *uuid.UUID { return r.customerID }

// Contact returns the customer contact details.
func (r *Reservation) Contact() Contact { return r.contact }

// Notes returns the customer's notes.
func (r *Reservation) Notes() string { return r.notes }

// StatusNote returns the reason recorded with the latest status change.
func (r *Reservation) StatusNote() string { return r.statusNote }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// IsActive reports whether the reservation currently blocks its dates.
func (r *Reservation) IsActive() bool { return r.status.IsActive() }

// Conflicts reports whether both reservations are active, for the same item,
// and overlapping.
func (r *Reservation) Conflicts(other *Reservation) bool {
	return r.itemID == other.itemID &&
		r.IsActive() && other.IsActive() &&
		r.period.Overlaps(other.period)
}

// --- Behavior ---

// TransitionTo moves the reservation to target, recording note.
func (r *Reservation) TransitionTo(target Status, note string) error {
	if !target.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid reservation status: %s", target))
	}
	if !r.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(r.status), string(target))
	}
	r.status = target
	r.statusNote = note
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel cancels a pending or confirmed reservation.
func (r *Reservation) Cancel(reason string) error {
	return r.TransitionTo(StatusCancelled, reason)
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
