package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DevMandate/LinknaMali-sub000/internal/cache"
	"github.com/DevMandate/LinknaMali-sub000/internal/config"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// ErrSessionNotFound is returned when a payment session is unknown, expired,
// or owned by another user.
var ErrSessionNotFound = errors.New("payment session not found")

// IService defines the payment session operations.
type IService interface {
	Initiate(ctx context.Context, userID, wizardID, phone string, amount float64) (*models.PaymentSession, error)
	Status(ctx context.Context, userID, sessionID string) (models.PaymentStatus, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.PaymentSession, error)
	Cancel(ctx context.Context, userID, sessionID string) error
	Shutdown()
}

// service implements IService. Each initiated session gets its own polling
// goroutine; the cancel funcs are held in-process so an explicit user cancel
// stops the timers immediately.
type service struct {
	cfg     *config.Config
	gateway IGateway
	store   *cache.Store
	ledger  ILedger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates the payment service. ledger may be nil in tests.
func NewService(cfg *config.Config, gateway IGateway, store *cache.Store, ledger ILedger) IService {
	return &service{
		cfg:     cfg,
		gateway: gateway,
		store:   store,
		ledger:  ledger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Initiate sends the STK push and, on acceptance, creates a fresh pending
// session and starts its polling loop. A gateway rejection is returned to
// the caller directly; nothing is retried implicitly. Retrying creates a
// brand-new session; an old CheckoutRequestID is never reused.
func (s *service) Initiate(ctx context.Context, userID, wizardID, phone string, amount float64) (*models.PaymentSession, error) {
	if phone == "" {
		return nil, fmt.Errorf("a phone number is required to initiate payment")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	result, err := s.gateway.InitiateSTKPush(ctx, phone, amount)
	if err != nil {
		return nil, err
	}

	session := &models.PaymentSession{
		ID:                uuid.NewString(),
		UserID:            userID,
		WizardID:          wizardID,
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		PhoneNumber:       phone,
		Amount:            amount,
		Status:            models.PaymentPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.Put(ctx, session.ID, session); err != nil {
		return nil, err
	}

	if s.ledger != nil {
		entry := &models.PaymentLedgerEntry{
			ID:                session.ID,
			UserID:            userID,
			CheckoutRequestID: session.CheckoutRequestID,
			MerchantRequestID: session.MerchantRequestID,
			PhoneNumber:       phone,
			Amount:            amount,
			Status:            models.PaymentPending,
			InitiatedAt:       session.CreatedAt,
		}
		if err := s.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
			log.Printf("Warning: failed to record payment ledger entry for session %s: %v", session.ID, err)
		}
	}

	s.startPolling(session)
	return session, nil
}

// startPolling launches the session's polling goroutine and registers its
// cancel func for explicit teardown.
func (s *service) startPolling(session *models.PaymentSession) {
	pollCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.cancels[session.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.cancels, session.ID)
			s.mu.Unlock()
			cancel()
		}()

		poller := NewPoller(s.gateway, s.cfg.PollInterval, s.cfg.PollMaxAttempts)
		status, err := poller.Run(pollCtx, session.CheckoutRequestID)
		if err != nil {
			if errors.Is(err, ErrPollCancelled) {
				// The user closed the modal; Cancel already resolved the
				// session state.
				return
			}
			log.Printf("Payment polling for session %s ended with error: %v", session.ID, err)
			return
		}
		s.resolve(session, status)
	}()
}

// resolve commits a terminal status to the session and the ledger.
func (s *service) resolve(session *models.PaymentSession, status models.PaymentStatus) {
	ctx, cancelResolve := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelResolve()

	session.Status = status
	if err := s.store.Put(ctx, session.ID, session); err != nil {
		log.Printf("Warning: failed to persist terminal status for payment session %s: %v", session.ID, err)
	}
	if s.ledger != nil {
		if err := s.ledger.Resolve(ctx, session.CheckoutRequestID, status); err != nil {
			log.Printf("Warning: failed to resolve ledger entry for session %s: %v", session.ID, err)
		}
	}
}

// GetSession loads a session owned by the given user.
func (s *service) GetSession(ctx context.Context, userID, sessionID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.store.Get(ctx, sessionID, &session)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Status returns the session's current lifecycle state.
func (s *service) Status(ctx context.Context, userID, sessionID string) (models.PaymentStatus, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	return session.Status, nil
}

// Cancel stops the session's polling immediately and destroys the session.
// Control returns to the wizard without advancing.
func (s *service) Cancel(ctx context.Context, userID, sessionID string) error {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	cancel, running := s.cancels[sessionID]
	s.mu.Unlock()
	if running {
		cancel()
	}

	if s.ledger != nil && !session.Status.Terminal() {
		if err := s.ledger.Resolve(ctx, session.CheckoutRequestID, models.PaymentCancelled); err != nil {
			log.Printf("Warning: failed to mark ledger entry cancelled for session %s: %v", sessionID, err)
		}
	}
	return s.store.Delete(ctx, sessionID)
}

// Shutdown cancels all in-flight polling loops and waits for them to stop.
func (s *service) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
