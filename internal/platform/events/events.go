// Package events defines the topics, CloudEvent types and payloads exchanged
// over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicReservationEvents = "reservation.events"
	TopicPaymentEvents     = "payment.events"
)

// Event types published on reservation.events.
const (
	ReservationCreated       = "reservation.created"
	ReservationStatusChanged = "reservation.status_changed"
)

// Event types consumed from payment.events.
const (
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
)

// SourceRentalService is the CloudEvent source of everything this service publishes.
const SourceRentalService = "service-rental"

// ReservationCreatedEvent is published after a reservation is committed.
type ReservationCreatedEvent struct {
	ReservationID int64      `json:"reservation_id"`
	ItemID        int64      `json:"item_id"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// ReservationStatusChangedEvent is published after a status transition is committed.
type ReservationStatusChangedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	ItemID        int64     `json:"item_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent signals that a reservation's payment went through.
type PaymentCapturedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	ReservationID int64     `json:"reservation_id"`
	AmountCents   int64     `json:"amount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentFailedEvent signals that a reservation's payment was declined.
type PaymentFailedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	ReservationID int64     `json:"reservation_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}
