package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/events"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/kafka"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/metrics"
)

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateReservationRequest holds the data needed to reserve an item.
type CreateReservationRequest struct {
	ItemID        int64  `json:"item_id" binding:"required,gt=0"`
	StartDate     string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" binding:"required,datetime=2006-01-02,enddate=StartDate"`
	Status        string `json:"status" binding:"omitempty,oneof=pending confirmed rented"`
	CustomerName  string `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email,max=254"`
	CustomerPhone string `json:"customer_phone" binding:"omitempty,max=50"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=50"`
	Notes         string `json:"notes" binding:"omitempty,max=1000"`
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID            int64      `json:"id"`
	ItemID        int64      `json:"item_id"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Days          int        `json:"days"`
	Status        string     `json:"status"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	StatusNote    string     `json:"status_note,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReservationService is the application service for the booking engine and
// reservation status management.
type ReservationService struct {
	repo      resDomain.Repository
	publisher EventPublisher
	metrics   *metrics.ReservationMetrics
	txTimeout time.Duration
	logger    *zap.Logger
}

// NewReservationService creates a new ReservationService. publisher and m may
// be nil; txTimeout <= 0 disables the create deadline.
func NewReservationService(
	repo resDomain.Repository,
	publisher EventPublisher,
	m *metrics.ReservationMetrics,
	txTimeout time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		txTimeout: txTimeout,
		logger:    logger,
	}
}

// --- Booking engine ---

// CheckAvailability reports whether no active reservation for itemID overlaps
// period. It is a pre-flight read only: a true result does not hold the dates.
// Unknown items are reported as available.
func (s *ReservationService) CheckAvailability(ctx context.Context, itemID int64, period resDomain.Period) (bool, error) {
	if period.IsZero() {
		return false, domain.NewValidationError("reservation period is required")
	}
	busy, err := s.repo.HasActiveOverlap(ctx, itemID, period)
	if err != nil {
		return false, err
	}
	return !busy, nil
}

// CreateReservation atomically checks the candidate's dates against active
// reservations and inserts it. It returns the stored reservation with its id,
// or a ConflictError, NotFoundError, ValidationError or StorageError.
func (s *ReservationService) CreateReservation(ctx context.Context, candidate *resDomain.Reservation) (*resDomain.Reservation, error) {
	started := time.Now()

	txCtx := ctx
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	created, err := s.repo.Create(txCtx, candidate)
	s.metrics.Observe(outcomeOf(err), time.Since(started))
	if err != nil {
		s.logger.Info("reservation rejected",
			zap.Int64("item_id", candidate.ItemID()),
			zap.String("period", candidate.Period().String()),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.Int64("reservation_id", created.ID()),
		zap.Int64("item_id", created.ItemID()),
		zap.String("period", created.Period().String()),
	)

	s.publishEvent(ctx, events.ReservationCreated, created.ID(), events.ReservationCreatedEvent{
		ReservationID: created.ID(),
		ItemID:        created.ItemID(),
		StartDate:     created.Period().Start().Format(resDomain.DateLayout),
		EndDate:       created.Period().End().Format(resDomain.DateLayout),
		Status:        string(created.Status()),
		CustomerID:    created.CustomerID(),
		OccurredAt:    time.Now().UTC(),
	})
	return created, nil
}

// ListReservations returns every reservation ordered by start date.
func (s *ReservationService) ListReservations(ctx context.Context) ([]ReservationDTO, error) {
	reservations, err := s.repo.ListByStartDate(ctx)
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

// Reserve validates an API request and runs CreateReservation for it.
// Customers always start at pending; operators may book directly into another
// active status.
func (s *ReservationService) Reserve(ctx context.Context, customerID *uuid.UUID, operator bool, req CreateReservationRequest) (*ReservationDTO, error) {
	period, err := resDomain.ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeInvalid, 0)
		return nil, err
	}

	status := resDomain.StatusPending
	if operator && req.Status != "" {
		status = resDomain.Status(req.Status)
		if !status.IsActive() {
			s.metrics.Observe(metrics.OutcomeInvalid, 0)
			return nil, domain.NewValidationError(fmt.Sprintf("cannot create a reservation as %s", req.Status))
		}
	}

	candidate, err := resDomain.NewReservation(req.ItemID, period, status, customerID, resDomain.Contact{
		Name:          req.CustomerName,
		Email:         req.CustomerEmail,
		Phone:         req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
	}, req.Notes)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeInvalid, 0)
		return nil, err
	}

	created, err := s.CreateReservation(ctx, candidate)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(created)
	return &result, nil
}

// --- Status management ---

// GetReservation retrieves a reservation. Customers may only see their own.
func (s *ReservationService) GetReservation(ctx context.Context, id int64, callerID uuid.UUID, operator bool) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !operator && !ownedBy(res, callerID) {
		return nil, domain.NewForbiddenError("reservation does not belong to this user")
	}
	result := toReservationDTO(res)
	return &result, nil
}

// GetCustomerReservations retrieves a customer's reservations with pagination.
func (s *ReservationService) GetCustomerReservations(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReservationDTO], error) {
	reservations, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toReservationDTOs(reservations), total, page, limit)
	return &result, nil
}

// CancelReservation cancels a pending or confirmed reservation, freeing its dates.
func (s *ReservationService) CancelReservation(ctx context.Context, id int64, callerID uuid.UUID, operator bool, reason string) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !operator && !ownedBy(res, callerID) {
		return nil, domain.NewForbiddenError("reservation does not belong to this user")
	}
	return s.transition(ctx, res, resDomain.StatusCancelled, reason)
}

// UpdateStatus moves a reservation to target following the status machine (operator).
func (s *ReservationService) UpdateStatus(ctx context.Context, id int64, target resDomain.Status, reason string) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, res, target, reason)
}

// ConfirmPayment confirms a pending reservation after its payment was captured.
func (s *ReservationService) ConfirmPayment(ctx context.Context, id int64) (*ReservationDTO, error) {
	return s.UpdateStatus(ctx, id, resDomain.StatusConfirmed, "payment captured")
}

// RejectPayment rejects a pending reservation whose payment failed.
func (s *ReservationService) RejectPayment(ctx context.Context, id int64, reason string) (*ReservationDTO, error) {
	if reason == "" {
		reason = "payment failed"
	}
	return s.UpdateStatus(ctx, id, resDomain.StatusRejected, reason)
}

func (s *ReservationService) transition(ctx context.Context, res *resDomain.Reservation, target resDomain.Status, reason string) (*ReservationDTO, error) {
	from := res.Status()
	if err := res.TransitionTo(target, reason); err != nil {
		return nil, err
	}

	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("reservation status changed",
		zap.Int64("reservation_id", res.ID()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)

	s.publishEvent(ctx, events.ReservationStatusChanged, res.ID(), events.ReservationStatusChangedEvent{
		ReservationID: res.ID(),
		ItemID:        res.ItemID(),
		FromStatus:    string(from),
		ToStatus:      string(target),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})

	result := toReservationDTO(res)
	return &result, nil
}

// --- Admin methods ---

// ReservationStatsDTO holds reservation statistics for the admin dashboard.
type ReservationStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ListAllReservations returns a paginated list of all reservations (admin).
func (s *ReservationService) ListAllReservations(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	reservations, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toReservationDTOs(reservations), total, nil
}

// GetReservationStats returns aggregate reservation statistics (admin).
func (s *ReservationService) GetReservationStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &ReservationStatsDTO{
		TotalReservations: total,
		ByStatus:          counts,
	}, nil
}

// --- Helpers ---

func ownedBy(res *resDomain.Reservation, customerID uuid.UUID) bool {
	return res.CustomerID() != nil && *res.CustomerID() == customerID
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeCreated
	}
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return metrics.OutcomeConflict
	case domain.KindValidation:
		return metrics.OutcomeInvalid
	case domain.KindNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeStorageError
	}
}

func toReservationDTO(res *resDomain.Reservation) ReservationDTO {
	contact := res.Contact()
	return ReservationDTO{
		ID:            res.ID(),
		ItemID:        res.ItemID(),
		StartDate:     res.Period().Start().Format(resDomain.DateLayout),
		EndDate:       res.Period().End().Format(resDomain.DateLayout),
		Days:          res.Period().Days(),
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

func toReservationDTOs(reservations []*resDomain.Reservation) []ReservationDTO {
	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	return dtos
}

func (s *ReservationService) publishEvent(ctx context.Context, eventType string, reservationID int64, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(events.SourceRentalService, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = fmt.Sprintf("reservation/%d", reservationID)

	if err := s.publisher.PublishEvent(ctx, events.TopicReservationEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicReservationEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
