package models

import "time"

// Reservation is a table-booking record, independent of the cart
type Reservation struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	PartySize       int       `json:"party_size"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReservationRequest represents the reservation form submission
type ReservationRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"party_size"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// ReservationDefaults pre-fills the reservation form
type ReservationDefaults struct {
	MinDate string `json:"min_date"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}
