package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"le-palanka/internal/cart"
	"le-palanka/internal/config"
	"le-palanka/internal/logger"
	"le-palanka/internal/messaging"
	"le-palanka/internal/services/notification"
	"le-palanka/internal/services/order"
	"le-palanka/internal/services/order/adapter/web"
	"le-palanka/internal/services/reservation"
	"le-palanka/internal/storage"
)

// eventPublisher is what the order and reservation services publish through
type eventPublisher interface {
	order.Publisher
	reservation.Publisher
	Close() error
}

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (order-service, notification-subscriber)")
		configPath = flag.String("config", "config.yaml", "Path to the configuration file")
		port       = flag.Int("port", 0, "HTTP port (overrides config)")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":           *mode,
		"port":           cfg.HTTP.Port,
		"storage_driver": cfg.Storage.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg, log)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runOrderService serves the cart, checkout and reservations over HTTP
func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	publisher, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer publisher.Close()

	namespace := cfg.Storage.Namespace

	cartStore := cart.NewStore(backend, namespace, log)
	if err := cartStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to restore cart: %w", err)
	}

	orders := order.NewService(cartStore, backend, namespace, publisher, log)
	reservations := reservation.NewRecorder(backend, namespace, publisher, log)

	orders.OnTransition(func(from, to order.State) {
		log.Debug("checkout_transition", fmt.Sprintf("%s -> %s", from, to), "", nil)
	})

	gin.SetMode(gin.ReleaseMode)
	handler := web.NewHandler(cartStore, orders, reservations, log)
	server := handler.NewServer(cfg.HTTP.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("Order Service started on port %d", cfg.HTTP.Port), requestID, map[string]interface{}{
			"port": cfg.HTTP.Port,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// newPublisher connects to RabbitMQ when configured and falls back to a no-op
func newPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (eventPublisher, error) {
	if !cfg.MessagingEnabled() {
		log.Info("messaging_disabled", "RabbitMQ not configured, events will not be published", "startup", nil)
		return messaging.NoopPublisher{}, nil
	}

	conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
	if err != nil {
		return nil, err
	}
	return messaging.NewPublisher(conn, log), nil
}

// runNotificationSubscriber prints order and reservation events as they arrive
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	if !cfg.MessagingEnabled() {
		return errors.New("rabbitmq.host is required for notification-subscriber mode")
	}

	conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	hostname, _ := os.Hostname()
	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue,
		fmt.Sprintf("notification-subscriber-%s-%d", hostname, os.Getpid()), prefetch)

	return notification.NewSubscriber(consumer, log).Start(ctx)
}
