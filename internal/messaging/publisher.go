package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	mu     sync.Mutex
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderPlaced announces a recorded order on the events and notifications exchanges
func (p *Publisher) PublishOrderPlaced(ctx context.Context, order *models.Order, requestID string) error {
	return p.publishEvent(ctx, models.EventOrderPlaced, models.CreateOrderPlacedMessage(order), requestID)
}

// PublishReservationCreated announces a recorded reservation on the events and notifications exchanges
func (p *Publisher) PublishReservationCreated(ctx context.Context, r *models.Reservation, requestID string) error {
	return p.publishEvent(ctx, models.EventReservationCreated, models.CreateReservationCreatedMessage(r), requestID)
}

func (p *Publisher) publishEvent(ctx context.Context, event string, message interface{}, requestID string) error {
	publishing, err := newPublishing(message, requestID)
	if err != nil {
		return err
	}

	routingKey := models.GenerateRoutingKey(event)
	if err := p.publish(ctx, EventsExchange, routingKey, publishing, requestID); err != nil {
		return err
	}
	return p.publish(ctx, NotificationsExchange, "", publishing, requestID)
}

// newPublishing serializes message as a persistent JSON delivery
func newPublishing(message interface{}, requestID string) (amqp091.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	return amqp091.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now().UTC(),
		CorrelationId: requestID,
	}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, publishing amqp091.Publishing, requestID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			requestID, err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		requestID, map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(publishing.Body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, *models.Order, string) error {
	return nil
}

func (NoopPublisher) PublishReservationCreated(context.Context, *models.Reservation, string) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
