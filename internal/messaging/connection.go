package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"le-palanka/internal/logger"
)

// Exchange and queue names
const (
	EventsExchange        = "restaurant_events"
	NotificationsExchange = "notifications_fanout"
	NotificationsQueue    = "notifications_queue"
)

type exchangeDecl struct {
	name string
	kind string
}

type queueBinding struct {
	queue      string
	routingKey string
	exchange   string
}

// topology lists what every connection declares before use
var topology = struct {
	exchanges []exchangeDecl
	queues    []string
	bindings  []queueBinding
}{
	exchanges: []exchangeDecl{
		{EventsExchange, amqp091.ExchangeTopic},
		{NotificationsExchange, amqp091.ExchangeFanout},
	},
	queues: []string{NotificationsQueue},
	bindings: []queueBinding{
		{NotificationsQueue, "", NotificationsExchange},
	},
}

// Connection wraps RabbitMQ connection with reconnection logic
type Connection struct {
	mu         sync.Mutex
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	logger     *logger.Logger
	url        string
	maxRetries int
	retryDelay time.Duration
}

// New creates a new RabbitMQ connection
func New(ctx context.Context, url string, log *logger.Logger) (*Connection, error) {
	conn := &Connection{
		logger:     log,
		url:        url,
		maxRetries: 5,
		retryDelay: 2 * time.Second,
	}

	if err := conn.connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", nil)
	return conn, nil
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Connection) connect(ctx context.Context) error {
	var err error

	for i := 0; i < c.maxRetries; i++ {
		if err = c.dial(); err == nil {
			return nil
		}

		if i < c.maxRetries-1 {
			waitTime := time.Duration(i+1) * c.retryDelay
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", waitTime),
				"startup", err, nil)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", c.maxRetries, err)
}

func (c *Connection) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := setupTopology(channel); err != nil {
		c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", err, nil)
		channel.Close()
		conn.Close()
		return err
	}

	c.conn = conn
	c.channel = channel
	return nil
}

// setupTopology declares exchanges and queues and binds them
func setupTopology(ch *amqp091.Channel) error {
	for _, ex := range topology.exchanges {
		err := ch.ExchangeDeclare(
			ex.name, // name
			ex.kind, // type
			true,    // durable
			false,   // auto-deleted
			false,   // internal
			false,   // no-wait
			nil,     // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare %s exchange: %w", ex.name, err)
		}
	}

	for _, queue := range topology.queues {
		_, err := ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	for _, b := range topology.bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed() || c.channel == nil || c.channel.IsClosed()
}

// Reconnect attempts to reconnect to RabbitMQ
func (c *Connection) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.close()
	return c.connect(ctx)
}
