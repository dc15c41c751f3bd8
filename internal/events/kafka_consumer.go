// Package events consumes payment outcomes and applies them to reservations.
package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/application"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
	contracts "github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/events"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/kafka"
)

// PaymentHandler is the part of the reservation service the consumer drives.
type PaymentHandler interface {
	ConfirmPayment(ctx context.Context, id int64) (*application.ReservationDTO, error)
	RejectPayment(ctx context.Context, id int64, reason string) (*application.ReservationDTO, error)
}

// PaymentEventConsumer listens to payment events and confirms or rejects
// pending reservations.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentHandler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, contracts.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.dispatch(ctx, cloudEvent)
}

func (c *PaymentEventConsumer) dispatch(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	switch cloudEvent.Type {
	case contracts.PaymentCaptured:
		var evt contracts.PaymentCapturedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentCapturedEvent data", zap.Error(err))
			return nil
		}
		_, err := c.service.ConfirmPayment(ctx, evt.ReservationID)
		return c.settle(err, "confirm", evt.ReservationID, evt.PaymentID.String())

	case contracts.PaymentFailed:
		var evt contracts.PaymentFailedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
			return nil
		}
		_, err := c.service.RejectPayment(ctx, evt.ReservationID, evt.Reason)
		return c.settle(err, "reject", evt.ReservationID, evt.PaymentID.String())

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// settle decides whether a failed status change is worth retrying. Storage
// failures and optimistic-lock conflicts are, since a later attempt re-reads
// the row; a missing reservation or a forbidden transition will not fix itself.
func (c *PaymentEventConsumer) settle(err error, action string, reservationID int64, paymentID string) error {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Int64("reservation_id", reservationID),
		zap.String("payment_id", paymentID),
	}
	if err == nil {
		c.logger.Info("reservation updated from payment event", fields...)
		return nil
	}

	if domain.IsStorage(err) || domain.IsConflict(err) {
		c.logger.Error("payment event processing failed", append(fields, zap.Error(err))...)
		return err
	}
	c.logger.Warn("payment event skipped", append(fields, zap.Error(err))...)
	return nil
}
