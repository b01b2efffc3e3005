package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DevMandate/LinknaMali-sub000/internal/cache"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
	"github.com/DevMandate/LinknaMali-sub000/internal/tasks"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// ErrWizardNotFound is returned when a wizard session is unknown, expired,
// or belongs to another user.
var ErrWizardNotFound = errors.New("booking wizard not found")

// PaymentChecker is the slice of the payment service the wizard needs: the
// current status of an STK push session.
type PaymentChecker interface {
	Status(ctx context.Context, userID, sessionID string) (models.PaymentStatus, error)
}

// SessionStore is the slice of the cache layer the wizard persists through.
// Satisfied by *cache.Store.
type SessionStore interface {
	Put(ctx context.Context, id string, value interface{}) error
	Get(ctx context.Context, id string, dest interface{}) error
	Delete(ctx context.Context, id string) error
}

// StartInput opens a new wizard. For editing mode, BookingID identifies the
// existing record and Draft carries its current field values.
type StartInput struct {
	PropertyID   string               `json:"property_id"`
	PropertyType string               `json:"property_type"`
	BookingID    string               `json:"booking_id,omitempty"`
	Draft        *models.BookingDraft `json:"draft,omitempty"`
	Email        string               `json:"email,omitempty"`
}

// IWizardService defines the booking wizard operations.
type IWizardService interface {
	Start(ctx context.Context, userID string, in StartInput) (*Wizard, error)
	Get(ctx context.Context, userID, wizardID string) (*Wizard, error)
	ApplyDetails(ctx context.Context, userID, wizardID string, in DetailsInput) (*Wizard, error)
	SelectPayment(ctx context.Context, userID, wizardID string, in PaymentInput) (*Wizard, error)
	Advance(ctx context.Context, userID, wizardID string) (*Wizard, error)
	Back(ctx context.Context, userID, wizardID string) (*Wizard, error)
	AttachPaymentSession(ctx context.Context, userID, wizardID, paymentSessionID string) (*Wizard, error)
	Submit(ctx context.Context, userID, wizardID string) (*models.Booking, error)
	Cancel(ctx context.Context, userID, wizardID string) error
	BlockedDates(ctx context.Context, propertyID string) ([]string, error)
}

// wizardService implements IWizardService.
type wizardService struct {
	client       upstream.IClient
	store        SessionStore
	blockedCache SessionStore
	payments     PaymentChecker
	taskClient   tasks.IClient
}

// NewWizardService creates the wizard service. store holds wizard sessions,
// blockedCache holds per-property blocked-date lists, and taskClient may be
// nil when no background worker is running.
func NewWizardService(client upstream.IClient, store, blockedCache SessionStore, payments PaymentChecker, taskClient tasks.IClient) IWizardService {
	return &wizardService{
		client:       client,
		store:        store,
		blockedCache: blockedCache,
		payments:     payments,
		taskClient:   taskClient,
	}
}

// Start opens a wizard at the details step. The property's blocked dates
// are fetched once per wizard entry; the daily rate comes from the property
// record. In editing mode the draft is pre-populated from the existing
// booking and submit will update rather than create.
func (s *wizardService) Start(ctx context.Context, userID string, in StartInput) (*Wizard, error) {
	property, err := s.client.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve property %s: %w", in.PropertyID, err)
	}

	blocked, err := s.BlockedDates(ctx, in.PropertyID)
	if err != nil {
		// A missing calendar is not fatal: land reservations have none.
		if !errors.Is(err, upstream.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch blocked dates for property %s: %w", in.PropertyID, err)
		}
		blocked = nil
	}

	now := time.Now().UTC()
	w := &Wizard{
		ID:           uuid.NewString(),
		UserID:       userID,
		Email:        strings.TrimSpace(in.Email),
		DailyRate:    property.Price,
		BlockedDates: blocked,
		Step:         StepDetails,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if in.BookingID != "" {
		w.Editing = true
		w.BookingID = in.BookingID
		if in.Draft != nil {
			w.Draft = *in.Draft
		}
	}
	w.Draft.PropertyID = in.PropertyID
	w.Draft.PropertyType = in.PropertyType
	if w.Draft.PropertyType == "" {
		w.Draft.PropertyType = property.PropertyType
	}
	w.Draft.UserID = userID

	if w.Draft.CheckInDate != "" && w.Draft.CheckOutDate != "" {
		if err := w.recomputeTotal(); err != nil {
			return nil, err
		}
	}
	if w.IsLand() && w.Draft.TotalAmount == 0 {
		// Land reservations have no nightly recompute; the amount due is the
		// property's asking price, resolved here so a pay-now M-Pesa flow
		// has something to charge.
		w.Draft.TotalAmount = property.Price
	}

	if err := s.store.Put(ctx, w.ID, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Get loads a wizard owned by the given user.
func (s *wizardService) Get(ctx context.Context, userID, wizardID string) (*Wizard, error) {
	var w Wizard
	err := s.store.Get(ctx, wizardID, &w)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrWizardNotFound
		}
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrWizardNotFound
	}
	return &w, nil
}

func (s *wizardService) mutate(ctx context.Context, userID, wizardID string, fn func(*Wizard) error) (*Wizard, error) {
	w, err := s.Get(ctx, userID, wizardID)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, w.ID, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *wizardService) ApplyDetails(ctx context.Context, userID, wizardID string, in DetailsInput) (*Wizard, error) {
	return s.mutate(ctx, userID, wizardID, func(w *Wizard) error {
		return w.ApplyDetails(in)
	})
}

func (s *wizardService) SelectPayment(ctx context.Context, userID, wizardID string, in PaymentInput) (*Wizard, error) {
	return s.mutate(ctx, userID, wizardID, func(w *Wizard) error {
		return w.SelectPayment(in)
	})
}

// Advance runs the current step's guard. A pending M-Pesa session is
// re-checked against the payment service first, so a confirmation that
// arrived between requests is picked up here.
func (s *wizardService) Advance(ctx context.Context, userID, wizardID string) (*Wizard, error) {
	return s.mutate(ctx, userID, wizardID, func(w *Wizard) error {
		if w.Step == StepPayment && w.requiresMpesaConfirmation() &&
			!w.PaymentConfirmed && w.PaymentSessionID != "" && s.payments != nil {
			status, err := s.payments.Status(ctx, userID, w.PaymentSessionID)
			if err == nil && status == models.PaymentSuccess {
				w.PaymentConfirmed = true
			}
		}
		return w.Advance()
	})
}

func (s *wizardService) Back(ctx context.Context, userID, wizardID string) (*Wizard, error) {
	return s.mutate(ctx, userID, wizardID, func(w *Wizard) error {
		w.Back()
		return nil
	})
}

// AttachPaymentSession links a freshly initiated STK push session to the
// wizard. A retry replaces the previous session outright.
func (s *wizardService) AttachPaymentSession(ctx context.Context, userID, wizardID, paymentSessionID string) (*Wizard, error) {
	return s.mutate(ctx, userID, wizardID, func(w *Wizard) error {
		w.PaymentSessionID = paymentSessionID
		w.PaymentConfirmed = false
		w.touch()
		return nil
	})
}

// Submit finalizes the wizard: create for new bookings, update for editing
// mode. The update path transmits only mutable fields; property_id,
// property_type and user_id are never resent. On failure the wizard keeps
// its state so the submission can be retried; on success it is destroyed.
func (s *wizardService) Submit(ctx context.Context, userID, wizardID string) (*models.Booking, error) {
	w, err := s.Get(ctx, userID, wizardID)
	if err != nil {
		return nil, err
	}
	if w.Step != StepAdditional {
		return nil, ErrWrongStep
	}

	var booking *models.Booking
	if w.Editing {
		booking, err = s.client.UpdateBooking(ctx, w.BookingID, w.Draft.UpdatePayload())
	} else {
		booking, err = s.client.CreateBooking(ctx, &w.Draft)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, w.ID); err != nil {
		log.Printf("Warning: failed to discard wizard %s after submit: %v", w.ID, err)
	}

	if s.taskClient != nil {
		task, taskErr := tasks.NewBookingConfirmationTask(booking.ID, booking.PropertyID, userID, w.Email, booking.TotalAmount)
		if taskErr == nil {
			if _, taskErr = s.taskClient.Enqueue(task); taskErr != nil {
				log.Printf("Warning: failed to enqueue confirmation email for booking %s: %v", booking.ID, taskErr)
			}
		}
	}

	return booking, nil
}

// Cancel discards the wizard and everything it collected.
func (s *wizardService) Cancel(ctx context.Context, userID, wizardID string) error {
	if _, err := s.Get(ctx, userID, wizardID); err != nil {
		return err
	}
	return s.store.Delete(ctx, wizardID)
}

// BlockedDates returns the property's reserved dates, served from the
// short-TTL cache when possible.
func (s *wizardService) BlockedDates(ctx context.Context, propertyID string) ([]string, error) {
	var cached []string
	if err := s.blockedCache.Get(ctx, propertyID, &cached); err == nil {
		return cached, nil
	}

	dates, err := s.client.BlockedDates(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.blockedCache.Put(ctx, propertyID, dates); err != nil {
		log.Printf("Warning: failed to cache blocked dates for property %s: %v", propertyID, err)
	}
	return dates, nil
}
