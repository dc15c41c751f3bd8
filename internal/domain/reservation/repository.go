package reservation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reservations.
type Repository interface {
	// Create stores candidate as a new reservation unless an active reservation
	// for the same item overlaps its period. The overlap check and the insert
	// run in one transaction; on any failure nothing is written. It returns the
	// stored reservation with its assigned id.
	Create(ctx context.Context, candidate *Reservation) (*Reservation, error)

	// HasActiveOverlap reports whether an active reservation for itemID overlaps period.
	HasActiveOverlap(ctx context.Context, itemID int64, period Period) (bool, error)

	// ListByStartDate returns every reservation ordered by start date ascending.
	ListByStartDate(ctx context.Context) ([]*Reservation, error)

	// FindByID retrieves a reservation by its identifier.
	FindByID(ctx context.Context, id int64) (*Reservation, error)

	// FindByCustomerID retrieves a customer's reservations with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Reservation, int64, error)

	// ListAll retrieves all reservations with pagination, newest first (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// CountByStatus returns reservation counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Update persists a status change with optimistic locking.
	Update(ctx context.Context, r *Reservation) error
}
