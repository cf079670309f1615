// Package reservation records table bookings. Capacity and conflicts are not
// modeled; every valid request is accepted.
package reservation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

const (
	DateLayout  = "2006-01-02"
	TimeLayout  = "15:04"
	DefaultTime = "19:00"

	// DefaultLeadDays is how far ahead the form's date starts
	DefaultLeadDays = 3
)

// Publisher announces recorded reservations
type Publisher interface {
	PublishReservationCreated(ctx context.Context, r *models.Reservation, requestID string) error
}

type noopPublisher struct{}

func (noopPublisher) PublishReservationCreated(context.Context, *models.Reservation, string) error {
	return nil
}

type Recorder struct {
	mu        sync.Mutex
	store     storage.Store
	key       string
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewRecorder creates a recorder persisting under namespace. A nil publisher
// disables events.
func NewRecorder(store storage.Store, namespace string, publisher Publisher, log *logger.Logger) *Recorder {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Recorder{
		store:     store,
		key:       storage.Key(namespace, storage.ReservationsKey),
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Record validates req, appends the reservation and returns it with the
// confirmation shown to the guest. A failure leaves the list unchanged.
func (r *Recorder) Record(ctx context.Context, req *models.ReservationRequest, requestID string) (*models.Reservation, string, error) {
	date, at, err := validateRequest(req)
	if err != nil {
		return nil, "", err
	}

	reservation := models.Reservation{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Date:            date.Format(DateLayout),
		Time:            at.Format(TimeLayout),
		PartySize:       req.PartySize,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		CreatedAt:       r.now().UTC(),
	}

	if err := r.appendReservation(ctx, reservation); err != nil {
		r.logger.Error("reservation_persist_failed", "Failed to record reservation", requestID, err, nil)
		return nil, "", err
	}

	r.logger.Info("reservation_recorded", "Reservation recorded", requestID, map[string]interface{}{
		"date":       reservation.Date,
		"time":       reservation.Time,
		"party_size": reservation.PartySize,
	})

	if err := r.publisher.PublishReservationCreated(ctx, &reservation, requestID); err != nil {
		r.logger.Error("publish_failed", "Failed to publish reservation event", requestID, err, nil)
	}

	return &reservation, Confirmation(&reservation), nil
}

func (r *Recorder) appendReservation(ctx context.Context, reservation models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reservations []models.Reservation
	if _, err := storage.LoadJSON(ctx, r.store, r.key, &reservations); err != nil {
		return err
	}
	return storage.SaveJSON(ctx, r.store, r.key, append(reservations, reservation))
}

// List returns every recorded reservation, oldest first
func (r *Recorder) List(ctx context.Context) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	if _, err := storage.LoadJSON(ctx, r.store, r.key, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// Defaults pre-fills the booking form relative to now
func Defaults(now time.Time) models.ReservationDefaults {
	today := now.UTC()
	return models.ReservationDefaults{
		MinDate: today.Format(DateLayout),
		Date:    today.AddDate(0, 0, DefaultLeadDays).Format(DateLayout),
		Time:    DefaultTime,
	}
}

// Defaults pre-fills the booking form for today
func (r *Recorder) Defaults() models.ReservationDefaults {
	return Defaults(r.now())
}

// Confirmation renders the guest-facing message, e.g.
// "Thank you, Jane! Your table for 4 on Saturday, March 15, 2025 at 7:00 PM has been reserved. ..."
func Confirmation(res *models.Reservation) string {
	return fmt.Sprintf("Thank you, %s! Your table for %d on %s has been reserved. We've sent a confirmation to %s.",
		res.Name, res.PartySize, FormatWhen(res.Date, res.Time), res.Email)
}

// FormatWhen renders a stored date and time as "Saturday, March 15, 2025 at 7:00 PM".
// Values that do not parse are shown as stored.
func FormatWhen(date, at string) string {
	if d, err := time.Parse(DateLayout, date); err == nil {
		date = d.Format("Monday, January 2, 2006")
	}
	if t, err := time.Parse(TimeLayout, at); err == nil {
		at = t.Format("3:04 PM")
	}
	return date + " at " + at
}

func validateRequest(req *models.ReservationRequest) (time.Time, time.Time, error) {
	var errs validation.Errors
	errs.Require("name", req.Name)
	errs.Require("email", req.Email)
	errs.Require("phone", req.Phone)
	errs.Require("date", req.Date)
	errs.Require("time", req.Time)
	errs.RequirePositive("party_size", req.PartySize)

	var date, at time.Time
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
		date = d
	}
	if strings.TrimSpace(req.Time) != "" {
		t, err := time.Parse(TimeLayout, strings.TrimSpace(req.Time))
		if err != nil {
			errs.Add("time", "time must be in HH:MM format")
		}
		at = t
	}

	return date, at, errs.Err()
}
