package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/DevMandate/LinknaMali-sub000/internal/config"
	"github.com/DevMandate/LinknaMali-sub000/internal/email"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
	"github.com/DevMandate/LinknaMali-sub000/internal/payment"
)

// Task types processed by the background worker.
const (
	TypeBookingConfirmEmail = "booking:email:confirm"
	TypePaymentReconcile    = "payment:ledger:reconcile"
)

// IClient is the slice of the asynq client used to enqueue tasks; it exists
// so services and handlers can be tested with a mock.
type IClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// BookingConfirmationPayload is the payload of a confirmation email task.
type BookingConfirmationPayload struct {
	BookingID   string  `json:"booking_id"`
	PropertyID  string  `json:"property_id"`
	UserID      string  `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
	Email       string  `json:"email,omitempty"`
}

// NewBookingConfirmationTask builds the task enqueued after a successful
// booking submit. email is the wizard's delivery address; when empty the
// handler drops the message instead of retrying.
func NewBookingConfirmationTask(bookingID, propertyID, userID, email string, totalAmount float64) (*asynq.Task, error) {
	payload, err := json.Marshal(BookingConfirmationPayload{
		BookingID:   bookingID,
		PropertyID:  propertyID,
		UserID:      userID,
		Email:       email,
		TotalAmount: totalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeBookingConfirmEmail, payload), nil
}

// PaymentReconcilePayload configures one ledger reconcile sweep.
type PaymentReconcilePayload struct {
	OlderThanSeconds int `json:"older_than_seconds"`
	Limit            int `json:"limit"`
}

// NewPaymentReconcileTask builds the periodic ledger sweep task.
func NewPaymentReconcileTask(olderThan time.Duration, limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(PaymentReconcilePayload{
		OlderThanSeconds: int(olderThan.Seconds()),
		Limit:            limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment reconcile payload: %w", err)
	}
	return asynq.NewTask(TypePaymentReconcile, payload), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	ledger      payment.ILedger
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, ledger payment.ILedger) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		ledger:      ledger,
	}
}

// SetupServer configures and returns an Asynq server instance.
func SetupServer(rdb *redis.Client) *asynq.Server {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	return asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)
}

// The reconcile sweep runs on a fixed schedule in bg mode. The cutoff is
// left zero so each run derives it from the live polling config; the limit
// bounds one sweep's write load.
const (
	reconcileCronSpec   = "@every 10m"
	reconcileSweepLimit = 100
)

// SetupScheduler configures the periodic scheduler that keeps the payment
// ledger swept. It runs alongside the worker in bg mode.
func SetupScheduler(rdb *redis.Client) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}, nil)

	task, err := NewPaymentReconcileTask(0, reconcileSweepLimit)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(reconcileCronSpec, task, asynq.Queue("low")); err != nil {
		return nil, fmt.Errorf("failed to register payment reconcile schedule: %w", err)
	}
	return scheduler, nil
}

// NewServeMux registers the background task handlers.
func NewServeMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingConfirmEmail, processor.HandleBookingConfirmationTask)
	mux.HandleFunc(TypePaymentReconcile, processor.HandlePaymentReconcileTask)
	return mux
}

// --- Task Handlers ---

// HandleBookingConfirmationTask sends the booking confirmation email.
// A malformed payload is not retryable; a sender failure is.
func (p *TaskProcessor) HandleBookingConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var payload BookingConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal booking confirmation payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		// The auth/profile collaborator resolves addresses; without one we
		// log and drop rather than retry forever.
		log.Printf("No email address for booking %s confirmation; skipping delivery", payload.BookingID)
		return nil
	}

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "bookings@linknamali.ke"
	}
	subject := fmt.Sprintf("%s booking confirmed", p.cfg.AppName)
	body := fmt.Sprintf(
		"Your booking %s has been confirmed.\r\nProperty: %s\r\nTotal amount: KES %.2f\r\n",
		payload.BookingID, payload.PropertyID, payload.TotalAmount)

	rawMessage := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		fromAddress, payload.Email, subject, body))

	if err := p.emailSender.Send(ctx, []string{payload.Email}, subject, rawMessage); err != nil {
		return fmt.Errorf("failed to send booking confirmation for %s: %w", payload.BookingID, err)
	}
	return nil
}

// HandlePaymentReconcileTask closes out ledger entries that stayed pending
// past the polling deadline: their sessions expired without a terminal
// status, so they are recorded as timed out.
func (p *TaskProcessor) HandlePaymentReconcileTask(ctx context.Context, t *asynq.Task) error {
	var payload PaymentReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payment reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	olderThan := time.Duration(payload.OlderThanSeconds) * time.Second
	if olderThan <= 0 {
		// Twice the full polling window: no live poller can still resolve it.
		olderThan = p.cfg.PollInterval * time.Duration(p.cfg.PollMaxAttempts) * 2
	}

	entries, err := p.ledger.FindStalePending(ctx, olderThan, payload.Limit)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := p.ledger.Resolve(ctx, entry.CheckoutRequestID, models.PaymentTimeout); err != nil {
			log.Printf("Failed to time out stale ledger entry %s: %v", entry.ID, err)
		}
	}
	if len(entries) > 0 {
		log.Printf("Payment reconcile swept %d stale pending entries", len(entries))
	}
	return nil
}
