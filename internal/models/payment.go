package models

import "time"

// PaymentStatus is the lifecycle state of an M-Pesa payment session.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentTimeout   PaymentStatus = "timeout"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether no further polling should happen for this status.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSuccess, PaymentFailed, PaymentTimeout, PaymentCancelled:
		return true
	}
	return false
}

// PaymentSession is an ephemeral STK push session: created when the gateway
// accepts the push, polled until terminal, then destroyed.
type PaymentSession struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	WizardID          string        `json:"wizard_id,omitempty"`
	CheckoutRequestID string        `json:"checkout_request_id"`
	MerchantRequestID string        `json:"merchant_request_id"`
	PhoneNumber       string        `json:"phone_number"`
	Amount            float64       `json:"amount"`
	Status            PaymentStatus `json:"status"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// PaymentLedgerEntry is the persistent record of an STK push initiation and
// its eventual outcome. Sessions are ephemeral; the ledger is not.
type PaymentLedgerEntry struct {
	ID                string        `bson:"_id" json:"id"`
	UserID            string        `bson:"user_id" json:"user_id"`
	CheckoutRequestID string        `bson:"checkout_request_id" json:"checkout_request_id"`
	MerchantRequestID string        `bson:"merchant_request_id" json:"merchant_request_id"`
	PhoneNumber       string        `bson:"phone_number" json:"phone_number"`
	Amount            float64       `bson:"amount" json:"amount"`
	Status            PaymentStatus `bson:"status" json:"status"`
	InitiatedAt       time.Time     `bson:"initiated_at" json:"initiated_at"`
	ResolvedAt        *time.Time    `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
