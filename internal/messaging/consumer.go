package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"le-palanka/internal/logger"
)

// MessageHandler processes one delivery body
type MessageHandler func(ctx context.Context, body []byte) error

// ErrMalformed marks a message that can never be processed; it is dropped
// instead of requeued
var ErrMalformed = errors.New("malformed message")

// Consumer handles message consumption from RabbitMQ
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer creates a new message consumer
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

// StartConsuming consumes until ctx is done, reconnecting when the broker
// closes the delivery channel
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			c.logger.Info("consumer_stopped", "Consumer stopped by context", "", nil)
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		c.logger.Error("consumer_channel_closed", "Message channel closed, attempting to reconnect", "", nil, nil)
		if err := c.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect after channel closed: %w", err)
		}
	}
}

// consume returns nil when the delivery channel closes
func (c *Consumer) consume(ctx context.Context, handler MessageHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ch := c.conn.Channel()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack (we'll ack manually)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer_started",
		fmt.Sprintf("Started consuming from queue %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.processMessage(ctx, d, handler)
		}
	}
}

// acknowledger is the part of a delivery that settles it
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery struct {
	ack         acknowledger
	body        []byte
	routingKey  string
	deliveryTag uint64
	redelivered bool
	requestID   string
}

func fromAMQP(d amqp091.Delivery) delivery {
	return delivery{
		ack:         d,
		body:        d.Body,
		routingKey:  d.RoutingKey,
		deliveryTag: d.DeliveryTag,
		redelivered: d.Redelivered,
		requestID:   d.CorrelationId,
	}
}

func (c *Consumer) processMessage(ctx context.Context, d amqp091.Delivery, handler MessageHandler) {
	c.settle(ctx, fromAMQP(d), handler)
}

// settle runs handler and acks, or nacks with requeue only for a first
// delivery that failed for a reason other than ErrMalformed
func (c *Consumer) settle(ctx context.Context, d delivery, handler MessageHandler) {
	startTime := time.Now()

	c.logger.Debug("message_received", "Processing message", d.requestID, map[string]interface{}{
		"queue":        c.queueName,
		"routing_key":  d.routingKey,
		"message_size": len(d.body),
		"delivery_tag": d.deliveryTag,
	})

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := handler(processingCtx, d.body)
	duration := time.Since(startTime)

	if err != nil {
		requeue := !d.redelivered && !errors.Is(err, ErrMalformed)
		c.logger.Error("message_processing_failed", "Failed to process message", d.requestID, err, map[string]interface{}{
			"queue":        c.queueName,
			"routing_key":  d.routingKey,
			"duration_ms":  duration.Milliseconds(),
			"delivery_tag": d.deliveryTag,
			"requeue":      requeue,
		})

		if nackErr := d.ack.Nack(false, requeue); nackErr != nil {
			c.logger.Error("message_nack_failed", "Failed to nack message", d.requestID, nackErr, nil)
		}
		return
	}

	c.logger.Debug("message_processed", "Successfully processed message", d.requestID, map[string]interface{}{
		"queue":        c.queueName,
		"routing_key":  d.routingKey,
		"duration_ms":  duration.Milliseconds(),
		"delivery_tag": d.deliveryTag,
	})

	if ackErr := d.ack.Ack(false); ackErr != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", d.requestID, ackErr, nil)
	}
}

// ParseMessage parses a JSON message into v, marking decode failures as ErrMalformed
func ParseMessage(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Close stops consuming messages
func (c *Consumer) Close() error {
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Channel().Cancel(c.consumerTag, false); err != nil {
			c.logger.Error("consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
		}
		return c.conn.Close()
	}
	return nil
}
