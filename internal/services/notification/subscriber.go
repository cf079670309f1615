package notification

import (
	"context"
	"fmt"
	"io"
	"os"

	"le-palanka/internal/logger"
	"le-palanka/internal/messaging"
	"le-palanka/internal/models"
	"le-palanka/internal/payment"
	"le-palanka/internal/pricing"
	"le-palanka/internal/services/reservation"
)

// Consumer delivers message bodies to a handler until stopped
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber prints a line for every order and reservation event
type Subscriber struct {
	consumer Consumer
	logger   *logger.Logger
	out      io.Writer
}

// NewSubscriber creates a new notification subscriber writing to stdout
func NewSubscriber(consumer Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		out:      os.Stdout,
	}
}

// Start consumes notifications until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.handleNotification)

	s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, closeErr, nil)
	}

	if ctx.Err() != nil {
		return nil
	}
	return err
}

// handleNotification decodes one event and prints it
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var envelope models.Envelope
	if err := messaging.ParseMessage(body, &envelope); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return err
	}

	var line string
	switch envelope.Event {
	case models.EventOrderPlaced:
		var msg models.OrderPlacedMessage
		if err := messaging.ParseMessage(body, &msg); err != nil {
			return err
		}
		line = formatOrderPlaced(&msg)
		s.logger.Debug("notification_received", "Received order placed notification", requestID, map[string]interface{}{
			"order_number": msg.OrderID,
		})

	case models.EventReservationCreated:
		var msg models.ReservationCreatedMessage
		if err := messaging.ParseMessage(body, &msg); err != nil {
			return err
		}
		line = formatReservationCreated(&msg)
		s.logger.Debug("notification_received", "Received reservation notification", requestID, map[string]interface{}{
			"date": msg.Date,
		})

	default:
		s.logger.Info("notification_skipped", "Ignoring unknown event", requestID, map[string]interface{}{
			"event": envelope.Event,
		})
		return nil
	}

	if _, err := fmt.Fprintln(s.out, line); err != nil {
		return fmt.Errorf("failed to display notification: %w", err)
	}
	return nil
}

func formatOrderPlaced(msg *models.OrderPlacedMessage) string {
	items := "items"
	if msg.ItemCount == 1 {
		items = "item"
	}
	return fmt.Sprintf("🧾 [%s] Order %s placed by %s: %s via %s (%d %s)",
		msg.Timestamp.Format("2006-01-02 15:04:05"),
		msg.OrderID,
		msg.CustomerName,
		pricing.FormatAmount(msg.Total),
		payment.DisplayName(msg.PaymentMethod),
		msg.ItemCount,
		items,
	)
}

func formatReservationCreated(msg *models.ReservationCreatedMessage) string {
	return fmt.Sprintf("📅 [%s] Table for %d reserved by %s on %s",
		msg.Timestamp.Format("2006-01-02 15:04:05"),
		msg.PartySize,
		msg.Name,
		reservation.FormatWhen(msg.Date, msg.Time),
	)
}
