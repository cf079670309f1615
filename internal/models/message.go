package models

import "time"

// Event types carried on the notifications exchange
const (
	EventOrderPlaced        = "order.placed"
	EventReservationCreated = "reservation.created"
)

// OrderPlacedMessage is published once an order has been recorded
type OrderPlacedMessage struct {
	Event         string        `json:"event"`
	OrderID       string        `json:"order_id"`
	CustomerName  string        `json:"customer_name"`
	ItemCount     int           `json:"item_count"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ReservationCreatedMessage is published once a reservation has been recorded
type ReservationCreatedMessage struct {
	Event     string    `json:"event"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	PartySize int       `json:"party_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is used to peek at the event type before decoding the body
type Envelope struct {
	Event string `json:"event"`
}

// CreateOrderPlacedMessage builds the event for a recorded order
func CreateOrderPlacedMessage(order *Order) *OrderPlacedMessage {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return &OrderPlacedMessage{
		Event:         EventOrderPlaced,
		OrderID:       order.ID,
		CustomerName:  order.Customer.Name,
		ItemCount:     count,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Timestamp:     order.CreatedAt,
	}
}

// CreateReservationCreatedMessage builds the event for a recorded reservation
func CreateReservationCreatedMessage(r *Reservation) *ReservationCreatedMessage {
	return &ReservationCreatedMessage{
		Event:     EventReservationCreated,
		Name:      r.Name,
		Date:      r.Date,
		Time:      r.Time,
		PartySize: r.PartySize,
		Timestamp: r.CreatedAt,
	}
}

// GenerateRoutingKey generates a routing key for restaurant events
func GenerateRoutingKey(event string) string {
	return "restaurant." + event
}
