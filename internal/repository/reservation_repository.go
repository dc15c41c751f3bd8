package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	itemDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/item"
	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// pgExclusionViolation is raised by the reservations overlap exclusion constraint.
const pgExclusionViolation = "23P01"

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	ItemID        int64      `gorm:"not null;index:idx_reservations_item_period,priority:1"`
	StartDate     time.Time  `gorm:"type:date;not null;index:idx_reservations_item_period,priority:2"`
	EndDate       time.Time  `gorm:"type:date;not null;index:idx_reservations_item_period,priority:3"`
	Status        string     `gorm:"not null;size:20;index;default:'pending'"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName  string     `gorm:"not null;size:200"`
	CustomerEmail string     `gorm:"not null;size:254;default:''"`
	CustomerPhone string     `gorm:"not null;size:50;default:''"`
	PaymentMethod string     `gorm:"not null;size:50;default:''"`
	Notes         string     `gorm:"not null;size:1000;default:''"`
	StatusNote    string     `gorm:"not null;size:500;default:''"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of the reservation Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create runs the availability check and the insert as one transaction.
//
// A transaction-scoped advisory lock keyed by item id serializes concurrent
// creates for the same item, so the overlap query and the insert cannot
// interleave with another writer's. Creates for different items take different
// locks. The lock is released on commit or rollback.
func (r *GormReservationRepository) Create(ctx context.Context, candidate *resDomain.Reservation) (*resDomain.Reservation, error) {
	model := toReservationModel(candidate)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", model.ItemID).Error; err != nil {
			return fmt.Errorf("failed to lock item %d: %w", model.ItemID, err)
		}

		if err := ensureRentable(tx, model.ItemID); err != nil {
			return err
		}

		overlapping, err := countActiveOverlaps(tx, model.ItemID, model.StartDate, model.EndDate)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.NewConflictError(fmt.Sprintf(
				"item %d is not available for %s", model.ItemID, candidate.Period()))
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classifyCreateError(candidate, err)
	}

	return toDomainReservation(model)
}

// HasActiveOverlap reports whether an active reservation for itemID overlaps period.
func (r *GormReservationRepository) HasActiveOverlap(ctx context.Context, itemID int64, period resDomain.Period) (bool, error) {
	n, err := countActiveOverlaps(r.db.WithContext(ctx), itemID, period.Start(), period.End())
	if err != nil {
		return false, domain.NewStorageError("check availability", err)
	}
	return n > 0, nil
}

// ListByStartDate returns every reservation ordered by start date, then id.
func (r *GormReservationRepository) ListByStartDate(ctx context.Context) ([]*resDomain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Order("start_date ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("list reservations", err)
	}
	return toDomainReservations(models)
}

// FindByID retrieves a reservation by its identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id int64) (*resDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
		}
		return nil, domain.NewStorageError("find reservation", err)
	}
	return toDomainReservation(&model)
}

// FindByCustomerID retrieves a customer's reservations with pagination, soonest first.
func (r *GormReservationRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*resDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("count customer reservations", err)
	}

	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("start_date DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("find customer reservations", err)
	}

	reservations, err := toDomainReservations(models)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// ListAll retrieves all reservations with pagination, newest first (admin).
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*resDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("count reservations", err)
	}

	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("list reservations", err)
	}

	reservations, err := toDomainReservations(models)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// CountByStatus returns reservation counts grouped by status (admin).
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, domain.NewStorageError("count by status", err)
	}

	counts := make(map[string]int64, len(results))
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Update persists a status change with optimistic locking. The caller must
// have called IncrementVersion.
func (r *GormReservationRepository) Update(ctx context.Context, res *resDomain.Reservation) error {
	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", res.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":      string(res.Status()),
			"status_note": res.StatusNote(),
			"version":     res.Version(),
			"updated_at":  res.UpdatedAt(),
		})

	if result.Error != nil {
		return domain.NewStorageError("update reservation", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// --- Query helpers ---

// countActiveOverlaps counts active reservations for itemID whose closed
// interval intersects [start, end]: NOT (existing.end < start OR existing.start > end).
func countActiveOverlaps(db *gorm.DB, itemID int64, start, end time.Time) (int64, error) {
	var n int64
	err := db.Model(&ReservationModel{}).
		Where("item_id = ? AND status IN ?", itemID, resDomain.ActiveStatusValues()).
		Where("NOT (end_date < ? OR start_date > ?)", start, end).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query overlapping reservations: %w", err)
	}
	return n, nil
}

// ensureRentable verifies inside the transaction that the item exists and is
// not retired. The shared row lock keeps it from being retired until commit.
func ensureRentable(tx *gorm.DB, itemID int64) error {
	var it ItemModel
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id", "status").
		Where("id = ?", itemID).
		Take(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError("Item", strconv.FormatInt(itemID, 10))
	}
	if err != nil {
		return fmt.Errorf("failed to load item %d: %w", itemID, err)
	}
	if itemDomain.Status(it.Status) != itemDomain.StatusAvailable {
		return domain.NewValidationError(fmt.Sprintf("item %d is %s and cannot be reserved", itemID, it.Status))
	}
	return nil
}

// classifyCreateError keeps domain outcomes as they are and reports every
// other failure as a storage error.
func classifyCreateError(candidate *resDomain.Reservation, err error) error {
	switch domain.KindOf(err) {
	case domain.KindConflict, domain.KindNotFound, domain.KindValidation:
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return domain.NewConflictError(fmt.Sprintf(
			"item %d is not available for %s", candidate.ItemID(), candidate.Period()))
	}
	return domain.NewStorageError("create reservation", err)
}

// --- Conversion Helpers ---

func toReservationModel(res *resDomain.Reservation) *ReservationModel {
	contact := res.Contact()
	return &ReservationModel{
		ID:            res.ID(),
		ItemID:        res.ItemID(),
		StartDate:     res.Period().Start(),
		EndDate:       res.Period().End(),
		Status:        string(res.Status()),
		CustomerID:    res.CustomerID(),
		CustomerName:  contact.Name,
		CustomerEmail: contact.Email,
		CustomerPhone: contact.Phone,
		PaymentMethod: contact.PaymentMethod,
		Notes:         res.Notes(),
		StatusNote:    res.StatusNote(),
		Version:       res.Version(),
		CreatedAt:     res.CreatedAt(),
		UpdatedAt:     res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*resDomain.Reservation, error) {
	status, err := resDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return resDomain.Reconstruct(
		m.ID,
		m.ItemID,
		resDomain.ReconstructPeriod(m.StartDate, m.EndDate),
		status,
		m.CustomerID,
		resDomain.Contact{
			Name:          m.CustomerName,
			Email:         m.CustomerEmail,
			Phone:         m.CustomerPhone,
			PaymentMethod: m.PaymentMethod,
		},
		m.Notes,
		m.StatusNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainReservations(models []ReservationModel) ([]*resDomain.Reservation, error) {
	out := make([]*resDomain.Reservation, len(models))
	for i := range models {
		res, err := toDomainReservation(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}
