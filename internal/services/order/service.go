// Package order turns the cart into a recorded order. It owns the checkout
// state machine and the append-only order log.
package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/payment"
	"le-palanka/internal/pricing"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

// State is the checkout state derived from the cart and any submission in flight
type State string

const (
	StateEmpty      State = "EMPTY"
	StateReady      State = "READY"
	StateSubmitting State = "SUBMITTING"
	StateConfirmed  State = "CONFIRMED"
)

// ErrSubmissionInProgress is returned when an order is placed while another
// placement has not finished
var ErrSubmissionInProgress = errors.New("order submission already in progress")

// Cart is the part of the cart store checkout depends on
type Cart interface {
	Items() []models.LineItem
	Len() int
	Clear(ctx context.Context) error
}

// Publisher announces recorded orders
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order, requestID string) error
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderPlaced(context.Context, *models.Order, string) error { return nil }

// TransitionFunc observes checkout state changes
type TransitionFunc func(from, to State)

type Service struct {
	mu          sync.Mutex
	submitting  bool
	cart        Cart
	store       storage.Store
	ordersKey   string
	publisher   Publisher
	logger      *logger.Logger
	transitions []TransitionFunc
	now         func() time.Time
}

// NewService creates the checkout service. A nil publisher disables events.
func NewService(cart Cart, store storage.Store, namespace string, publisher Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Service{
		cart:      cart,
		store:     store,
		ordersKey: storage.Key(namespace, storage.OrdersKey),
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// OnTransition registers fn to be called on every state change made by PlaceOrder
func (s *Service) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	s.transitions = append(s.transitions, fn)
	s.mu.Unlock()
}

// State reports SUBMITTING while an order is being placed, otherwise EMPTY
// or READY depending on the cart
func (s *Service) State() State {
	s.mu.Lock()
	submitting := s.submitting
	s.mu.Unlock()

	if submitting {
		return StateSubmitting
	}
	if s.cart.Len() == 0 {
		return StateEmpty
	}
	return StateReady
}

// PlaceOrder validates req, records an order built from the current cart and
// clears the cart. Validation failures leave the cart and order log untouched.
func (s *Service) PlaceOrder(ctx context.Context, req *models.CheckoutRequest, requestID string) (*models.Order, error) {
	items, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.finish()

	s.transition(StateReady, StateSubmitting)

	method, err := validateCheckout(req)
	if err != nil {
		s.logger.Debug("validation_failed", "Checkout validation failed", requestID, map[string]interface{}{
			"fields": fieldsOf(err),
		})
		s.transition(StateSubmitting, StateReady)
		return nil, err
	}

	var orders []models.Order
	if _, err := storage.LoadJSON(ctx, s.store, s.ordersKey, &orders); err != nil {
		s.transition(StateSubmitting, StateReady)
		return nil, err
	}

	now := s.now().UTC()
	totals := pricing.Calculate(items)
	order := models.Order{
		ID: nextOrderNumber(orders, now),
		Customer: models.Customer{
			Name:  strings.TrimSpace(req.CustomerName),
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
		},
		Items:         models.CloneItems(items),
		Subtotal:      totals.Subtotal,
		ServiceCharge: totals.ServiceCharge,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentMethod: method,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		Status:        models.StatusReceived,
	}

	if err := storage.SaveJSON(ctx, s.store, s.ordersKey, append(orders, order)); err != nil {
		s.logger.Error("order_persist_failed", "Failed to record order", requestID, err, map[string]interface{}{
			"order_number": order.ID,
		})
		s.transition(StateSubmitting, StateReady)
		return nil, err
	}

	if err := s.cart.Clear(ctx); err != nil {
		if rbErr := storage.SaveJSON(ctx, s.store, s.ordersKey, orders); rbErr != nil {
			s.logger.Error("order_rollback_failed", "Failed to withdraw order after cart clear failed", requestID, rbErr, map[string]interface{}{
				"order_number": order.ID,
			})
		}
		s.transition(StateSubmitting, StateReady)
		return nil, err
	}

	s.transition(StateSubmitting, StateConfirmed)
	s.transition(StateConfirmed, StateEmpty)

	s.logger.Info("order_placed", "Order placed", requestID, map[string]interface{}{
		"order_number":   order.ID,
		"total_amount":   order.Total,
		"payment_method": order.PaymentMethod,
		"items":          len(order.Items),
	})

	// Don't fail the order if the notification fails
	if err := s.publisher.PublishOrderPlaced(ctx, &order, requestID); err != nil {
		s.logger.Error("publish_failed", "Failed to publish order event", requestID, err, map[string]interface{}{
			"order_number": order.ID,
		})
	}

	return &order, nil
}

// Orders returns the recorded orders, oldest first
func (s *Service) Orders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if _, err := storage.LoadJSON(ctx, s.store, s.ordersKey, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// begin enters SUBMITTING, refusing an empty cart or a second submission
func (s *Service) begin() ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return nil, ErrSubmissionInProgress
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, validation.New("cart", "cart is empty")
	}

	s.submitting = true
	return items, nil
}

func (s *Service) finish() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func (s *Service) transition(from, to State) {
	s.mu.Lock()
	fns := append([]TransitionFunc(nil), s.transitions...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(from, to)
	}
}

func validateCheckout(req *models.CheckoutRequest) (models.PaymentMethod, error) {
	var errs validation.Errors
	errs.Require("customer_name", req.CustomerName)
	errs.Require("email", req.Email)
	errs.Require("phone", req.Phone)

	var method models.PaymentMethod
	if strings.TrimSpace(req.PaymentMethod) == "" {
		errs.Add("payment_method", "payment method is required")
	} else if m, err := payment.ParseMethod(req.PaymentMethod); err != nil {
		errs.Add("payment_method", "select exactly one of mpesa, card or cash")
	} else {
		method = m
	}

	return method, errs.Err()
}

func fieldsOf(err error) []string {
	var verr validation.Errors
	if errors.As(err, &verr) {
		return verr.Fields()
	}
	return nil
}
