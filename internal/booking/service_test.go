package booking_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/cache"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
	"github.com/DevMandate/LinknaMali-sub000/internal/tasks"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// memStore is an in-memory booking.SessionStore.
type memStore struct {
	entries map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]byte)}
}

func (s *memStore) Put(ctx context.Context, id string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[id] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, id string, dest interface{}) error {
	data, ok := s.entries[id]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	delete(s.entries, id)
	return nil
}

// fakeUpstream serves a single property and records bookings it creates.
type fakeUpstream struct {
	property *models.Property
	blocked  []string
	created  *models.Booking
}

func (f *fakeUpstream) Search(ctx context.Context, query string) (*models.RawSearchPayload, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUpstream) KeywordSearch(ctx context.Context, keyword string) (*models.RawSearchPayload, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUpstream) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	return f.property, nil
}

func (f *fakeUpstream) BlockedDates(ctx context.Context, propertyID string) ([]string, error) {
	if f.blocked == nil {
		return nil, upstream.ErrNotFound
	}
	return f.blocked, nil
}

func (f *fakeUpstream) CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.Booking, error) {
	f.created = &models.Booking{ID: "bk-new", BookingDraft: *draft}
	return f.created, nil
}

func (f *fakeUpstream) UpdateBooking(ctx context.Context, bookingID string, update *models.BookingUpdate) (*models.Booking, error) {
	b := &models.Booking{ID: bookingID}
	b.TotalAmount = update.TotalAmount
	return b, nil
}

// recordingTaskClient captures enqueued tasks.
type recordingTaskClient struct {
	enqueued []*asynq.Task
}

func (r *recordingTaskClient) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.enqueued = append(r.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

func newStayService(taskClient tasks.IClient) (booking.IWizardService, *fakeUpstream) {
	client := &fakeUpstream{
		property: &models.Property{ID: "prop-1", PropertyType: "Apartments", Price: 4500},
		blocked:  []string{},
	}
	return booking.NewWizardService(client, newMemStore(), newMemStore(), nil, taskClient), client
}

func TestWizardService_Start_KeepsContactEmail(t *testing.T) {
	svc, _ := newStayService(nil)

	w, err := svc.Start(context.Background(), "user-1", booking.StartInput{
		PropertyID: "prop-1",
		Email:      "  guest@example.com  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", w.Email)

	// The address survives the round trip through the session store.
	reloaded, err := svc.Get(context.Background(), "user-1", w.ID)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", reloaded.Email)
}

func TestWizardService_Submit_EnqueuesConfirmationWithEmail(t *testing.T) {
	taskClient := &recordingTaskClient{}
	svc, client := newStayService(taskClient)
	ctx := context.Background()

	w, err := svc.Start(ctx, "user-1", booking.StartInput{
		PropertyID: "prop-1",
		Email:      "guest@example.com",
	})
	require.NoError(t, err)

	_, err = svc.ApplyDetails(ctx, "user-1", w.ID, booking.DetailsInput{
		CheckInDate:    "2026-09-10",
		CheckOutDate:   "2026-09-12",
		NumberOfAdults: 2,
	})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "user-1", w.ID)
	require.NoError(t, err)

	_, err = svc.SelectPayment(ctx, "user-1", w.ID, booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayAtProperty,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "user-1", w.ID)
	require.NoError(t, err)

	created, err := svc.Submit(ctx, "user-1", w.ID)
	require.NoError(t, err)
	assert.Equal(t, client.created.ID, created.ID)

	require.Len(t, taskClient.enqueued, 1)
	task := taskClient.enqueued[0]
	assert.Equal(t, tasks.TypeBookingConfirmEmail, task.Type())

	var payload tasks.BookingConfirmationPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "guest@example.com", payload.Email)
	assert.Equal(t, created.ID, payload.BookingID)
	assert.Equal(t, created.TotalAmount, payload.TotalAmount)
}

func TestWizardService_Start_LandPricedFromProperty(t *testing.T) {
	client := &fakeUpstream{
		property: &models.Property{ID: "plot-1", PropertyType: "land", Price: 250000},
	}
	svc := booking.NewWizardService(client, newMemStore(), newMemStore(), nil, nil)

	w, err := svc.Start(context.Background(), "user-1", booking.StartInput{PropertyID: "plot-1"})
	require.NoError(t, err)

	assert.True(t, w.IsLand())
	assert.Equal(t, 250000.0, w.Draft.TotalAmount)
}

func TestWizardService_LandPayNowHasChargeableAmount(t *testing.T) {
	client := &fakeUpstream{
		property: &models.Property{ID: "plot-1", PropertyType: "land", Price: 250000},
	}
	svc := booking.NewWizardService(client, newMemStore(), newMemStore(), nil, nil)
	ctx := context.Background()

	w, err := svc.Start(ctx, "user-1", booking.StartInput{PropertyID: "plot-1"})
	require.NoError(t, err)

	_, err = svc.ApplyDetails(ctx, "user-1", w.ID, booking.DetailsInput{
		PurchasePurpose:     "residential",
		ReservationDuration: "30 days",
		PaymentOption:       models.PaymentOptionPayNow,
	})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "user-1", w.ID)
	require.NoError(t, err)

	w, err = svc.SelectPayment(ctx, "user-1", w.ID, booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayNow,
		PaymentMethod: models.PaymentMethodMpesa,
		MpesaPhone:    "254712345678",
	})
	require.NoError(t, err)

	// The gate holds until payment confirms, and the amount an STK push
	// would charge is the land price, not zero.
	_, err = svc.Advance(ctx, "user-1", w.ID)
	assert.ErrorIs(t, err, booking.ErrPaymentRequired)
	assert.Greater(t, w.Draft.TotalAmount, 0.0)
}
