// Package web exposes the cart, checkout and reservations over HTTP/JSON.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"le-palanka/internal/cart"
	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/payment"
	"le-palanka/internal/pricing"
	"le-palanka/internal/services/order"
	"le-palanka/internal/services/reservation"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string                       `json:"error"`
	Message   string                       `json:"message"`
	Details   string                       `json:"details,omitempty"`
	Fields    []validation.ValidationError `json:"fields,omitempty"`
	RequestID string                       `json:"request_id"`
}

// FormattedTotals mirrors pricing.Totals as display strings
type FormattedTotals struct {
	Subtotal      string `json:"subtotal"`
	ServiceCharge string `json:"service_charge"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
}

type CartResponse struct {
	Items     []models.LineItem `json:"items"`
	Count     int               `json:"count"`
	Totals    pricing.Totals    `json:"totals"`
	Formatted FormattedTotals   `json:"formatted"`
	State     order.State       `json:"state"`
}

type AddItemRequest struct {
	Name  string `json:"name"`
	Price *int64 `json:"price"`
}

type OrderResponse struct {
	Order          *models.Order `json:"order"`
	FormattedTotal string        `json:"formatted_total"`
	Message        string        `json:"message"`
}

type ReservationResponse struct {
	Reservation  *models.Reservation `json:"reservation"`
	Confirmation string              `json:"confirmation"`
}

// Handler serves one shared cart. Mutations are serialized by a session
// lock so the cart and checkout see one actor at a time. Only one checkout
// may be in flight; further submits are refused instead of queued.
type Handler struct {
	session      sync.Mutex
	checkout     sync.Mutex
	cart         *cart.Store
	orders       *order.Service
	reservations *reservation.Recorder
	logger       *logger.Logger
	requestTTL   time.Duration
}

func NewHandler(c *cart.Store, orders *order.Service, reservations *reservation.Recorder, log *logger.Logger) *Handler {
	return &Handler{
		cart:         c,
		orders:       orders,
		reservations: reservations,
		logger:       log,
		requestTTL:   30 * time.Second,
	}
}

// GetCart handles GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartResponse())
}

// AddItem handles POST /cart/items
func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeInvalidInput(c, "Invalid request body", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	h.session.Lock()
	err := h.addItem(ctx, &req)
	h.session.Unlock()

	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse())
}

func (h *Handler) addItem(ctx context.Context, req *AddItemRequest) error {
	if req.Price == nil {
		var errs validation.Errors
		errs.Require("name", req.Name)
		errs.Add("price", "price is required")
		return errs
	}
	return h.cart.AddItem(ctx, req.Name, *req.Price)
}

// RemoveItem handles DELETE /cart/items/:index
func (h *Handler) RemoveItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.writeInvalidInput(c, "Item index must be an integer", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	h.session.Lock()
	err = h.cart.RemoveOne(ctx, index)
	h.session.Unlock()

	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse())
}

// Checkout handles POST /checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeInvalidInput(c, "Invalid request body", err)
		return
	}

	if !h.checkout.TryLock() {
		h.writeError(c, order.ErrSubmissionInProgress)
		return
	}
	defer h.checkout.Unlock()

	ctx, cancel := h.requestContext(c)
	defer cancel()

	h.session.Lock()
	placed, err := h.orders.PlaceOrder(ctx, &req, requestID(c))
	h.session.Unlock()

	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, OrderResponse{
		Order:          placed,
		FormattedTotal: pricing.FormatAmount(placed.Total),
		Message:        "Order " + placed.ID + " placed successfully",
	})
}

// ListOrders handles GET /orders
func (h *Handler) ListOrders(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	orders, err := h.orders.Orders(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CreateReservation handles POST /reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	var req models.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeInvalidInput(c, "Invalid request body", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	recorded, confirmation, err := h.reservations.Record(ctx, &req, requestID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReservationResponse{
		Reservation:  recorded,
		Confirmation: confirmation,
	})
}

// ListReservations handles GET /reservations
func (h *Handler) ListReservations(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.reservations.List(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// ReservationDefaults handles GET /reservations/defaults
func (h *Handler) ReservationDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, h.reservations.Defaults())
}

// PaymentMethods handles GET /payment-methods
func (h *Handler) PaymentMethods(c *gin.Context) {
	type method struct {
		Method models.PaymentMethod `json:"method"`
		Name   string               `json:"name"`
	}

	methods := make([]method, 0, len(payment.Methods))
	for _, m := range payment.Methods {
		methods = append(methods, method{Method: m, Name: payment.DisplayName(m)})
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// PaymentInstructions handles GET /payment-methods/:method, quoting the
// current cart total
func (h *Handler) PaymentInstructions(c *gin.Context) {
	total := pricing.Calculate(h.cart.Items()).Total

	instructions, err := payment.Lookup(c.Param("method"), total)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, instructions)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
	})
}

func (h *Handler) cartResponse() CartResponse {
	items := h.cart.Items()
	totals := pricing.Calculate(items)

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return CartResponse{
		Items:  items,
		Count:  count,
		Totals: totals,
		Formatted: FormattedTotals{
			Subtotal:      pricing.FormatAmount(totals.Subtotal),
			ServiceCharge: pricing.FormatAmount(totals.ServiceCharge),
			Tax:           pricing.FormatAmount(totals.Tax),
			Total:         pricing.FormatAmount(totals.Total),
		},
		State: h.orders.State(),
	}
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTTL)
}

func (h *Handler) writeInvalidInput(c *gin.Context, message string, err error) {
	id := requestID(c)
	h.logger.Error("validation_failed", message, id, err, nil)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "INVALID_INPUT",
		Message:   message,
		Details:   err.Error(),
		RequestID: id,
	})
}

// writeError maps domain errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	id := requestID(c)
	resp := ErrorResponse{RequestID: id}

	var (
		verr      validation.Errors
		indexErr  *cart.IndexError
		methodErr *payment.UnknownMethodError
		storeErr  *storage.Error
		status    int
	)

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = "VALIDATION_FAILED"
		resp.Message = "Please fill in all required fields"
		resp.Details = verr.Error()
		resp.Fields = verr
	case errors.As(err, &indexErr):
		status = http.StatusNotFound
		resp.Error = "ITEM_NOT_FOUND"
		resp.Message = "Cart item not found"
		resp.Details = indexErr.Error()
	case errors.Is(err, order.ErrSubmissionInProgress):
		status = http.StatusConflict
		resp.Error = "SUBMISSION_IN_PROGRESS"
		resp.Message = "Your order is already being placed"
	case errors.As(err, &methodErr):
		status = http.StatusNotFound
		resp.Error = "UNKNOWN_PAYMENT_METHOD"
		resp.Message = "Payment method not found"
		resp.Details = methodErr.Error()
	case errors.As(err, &storeErr):
		status = http.StatusInsufficientStorage
		resp.Error = "STORAGE_FAILED"
		resp.Message = "Could not save your changes, please try again"
		resp.Details = storeErr.Error()
	default:
		status = http.StatusInternalServerError
		resp.Error = "INTERNAL_ERROR"
		resp.Message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request_failed", resp.Message, id, err, map[string]interface{}{
			"path":   c.FullPath(),
			"status": status,
		})
	} else {
		h.logger.Debug("request_rejected", resp.Message, id, map[string]interface{}{
			"path":   c.FullPath(),
			"status": status,
			"reason": err.Error(),
		})
	}

	c.JSON(status, resp)
}
