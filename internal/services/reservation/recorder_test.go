package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

type recordingPublisher struct {
	events []*models.Reservation
	err    error
}

func (p *recordingPublisher) PublishReservationCreated(_ context.Context, r *models.Reservation, _ string) error {
	p.events = append(p.events, r)
	return p.err
}

func newRecorder(t *testing.T) (*Recorder, *storage.MemoryStore, *recordingPublisher) {
	t.Helper()
	mem := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	r := NewRecorder(mem, "lePalanka", pub, logger.Discard())
	r.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }
	return r, mem, pub
}

func validRequest() *models.ReservationRequest {
	return &models.ReservationRequest{
		Name:      "Jane",
		Email:     "jane@example.com",
		Phone:     "+254 711 000 111",
		Date:      "2025-03-15",
		Time:      "19:00",
		PartySize: 4,
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	r, mem, pub := newRecorder(t)

	res, msg, err := r.Record(ctx, validRequest(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "Thank you, Jane! Your table for 4 on Saturday, March 15, 2025 at 7:00 PM has been reserved. "+
		"We've sent a confirmation to jane@example.com.", msg)
	assert.Equal(t, "2025-03-15", res.Date)
	assert.Equal(t, "19:00", res.Time)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), res.CreatedAt)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *res, list[0])

	raw, err := mem.Get(ctx, "lePalankaReservations")
	require.NoError(t, err)
	assert.NotNil(t, raw)

	require.Len(t, pub.events, 1)
}

func TestRecordAppends(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRecorder(t)

	for i := 0; i < 3; i++ {
		_, _, err := r.Record(ctx, validRequest(), "")
		require.NoError(t, err)
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3, "no capacity or conflict checks")
}

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*models.ReservationRequest)
		wantFields []string
	}{
		{"missing name", func(r *models.ReservationRequest) { r.Name = "" }, []string{"name"}},
		{"missing email", func(r *models.ReservationRequest) { r.Email = "" }, []string{"email"}},
		{"missing phone", func(r *models.ReservationRequest) { r.Phone = " " }, []string{"phone"}},
		{"missing date", func(r *models.ReservationRequest) { r.Date = "" }, []string{"date"}},
		{"missing time", func(r *models.ReservationRequest) { r.Time = "" }, []string{"time"}},
		{"no guests", func(r *models.ReservationRequest) { r.PartySize = 0 }, []string{"party_size"}},
		{"bad date", func(r *models.ReservationRequest) { r.Date = "15/03/2025" }, []string{"date"}},
		{"bad time", func(r *models.ReservationRequest) { r.Time = "7pm" }, []string{"time"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r, mem, pub := newRecorder(t)

			req := validRequest()
			tt.mutate(req)
			_, _, err := r.Record(ctx, req, "")

			var verr validation.Errors
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantFields, verr.Fields())

			list, err := r.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Zero(t, mem.Size())
			assert.Empty(t, pub.events)
		})
	}
}

func TestRecordStorageFailure(t *testing.T) {
	ctx := context.Background()
	r, mem, _ := newRecorder(t)
	_, _, err := r.Record(ctx, validRequest(), "")
	require.NoError(t, err)

	mem.SetQuota(mem.Size())

	_, _, err = r.Record(ctx, validRequest(), "")
	var se *storage.Error
	require.True(t, errors.As(err, &se))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordPublishFailureIsIgnored(t *testing.T) {
	r, _, pub := newRecorder(t)
	pub.err = errors.New("broker down")

	_, _, err := r.Record(context.Background(), validRequest(), "")
	assert.NoError(t, err)
}

func TestConfirmation(t *testing.T) {
	tests := []struct {
		name string
		res  models.Reservation
		want string
	}{
		{
			name: "afternoon",
			res:  models.Reservation{Name: "Otieno", Email: "o@example.com", Date: "2025-12-25", Time: "13:30", PartySize: 2},
			want: "Thank you, Otieno! Your table for 2 on Thursday, December 25, 2025 at 1:30 PM has been reserved. We've sent a confirmation to o@example.com.",
		},
		{
			name: "morning",
			res:  models.Reservation{Name: "Amina", Email: "a@example.com", Date: "2025-03-17", Time: "09:05", PartySize: 1},
			want: "Thank you, Amina! Your table for 1 on Monday, March 17, 2025 at 9:05 AM has been reserved. We've sent a confirmation to a@example.com.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Confirmation(&tt.res))
		})
	}
}

func TestDefaults(t *testing.T) {
	got := Defaults(time.Date(2025, 12, 30, 22, 0, 0, 0, time.UTC))

	assert.Equal(t, models.ReservationDefaults{
		MinDate: "2025-12-30",
		Date:    "2026-01-02",
		Time:    "19:00",
	}, got)
}
