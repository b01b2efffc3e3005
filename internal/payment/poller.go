package payment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// ErrPollCancelled is returned when polling is stopped by the caller before
// a terminal status was reached.
var ErrPollCancelled = errors.New("payment polling cancelled")

// Poller repeatedly queries the gateway for an STK push confirmation on a
// fixed interval, with a hard attempt ceiling so a session can never poll
// forever. Cancelling the context stops the loop immediately.
type Poller struct {
	gateway     IGateway
	interval    time.Duration
	maxAttempts int
}

// NewPoller creates a poller. maxAttempts bounds the total number of status
// queries; interval is the fixed delay between them.
func NewPoller(gateway IGateway, interval time.Duration, maxAttempts int) *Poller {
	return &Poller{gateway: gateway, interval: interval, maxAttempts: maxAttempts}
}

// Run polls until a terminal status or until the attempt ceiling is hit, in
// which case it returns PaymentTimeout. Transient query errors count as
// attempts and polling continues; a cancelled context returns
// ErrPollCancelled right away with no further network calls.
func (p *Poller) Run(ctx context.Context, checkoutRequestID string) (models.PaymentStatus, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return models.PaymentCancelled, ErrPollCancelled
		case <-ticker.C:
		}

		status, err := p.gateway.QuerySTKStatus(ctx, checkoutRequestID)
		if err != nil {
			if ctx.Err() != nil {
				return models.PaymentCancelled, ErrPollCancelled
			}
			log.Printf("STK status query attempt %d for %s failed: %v", attempt, checkoutRequestID, err)
			continue
		}
		if status.Terminal() {
			return status, nil
		}
	}

	return models.PaymentTimeout, nil
}
