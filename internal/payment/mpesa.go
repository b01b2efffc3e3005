package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/DevMandate/LinknaMali-sub000/internal/config"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// stkPendingResultCode is what the gateway's status query returns while the
// user has not yet responded on their phone.
const stkPendingResultCode = "500.001.1001"

// STKPushResult is the gateway's acceptance of a push request.
type STKPushResult struct {
	CheckoutRequestID string
	MerchantRequestID string
	CustomerMessage   string
}

// IGateway defines the M-Pesa gateway operations.
type IGateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64) (*STKPushResult, error)
	QuerySTKStatus(ctx context.Context, checkoutRequestID string) (models.PaymentStatus, error)
}

// stkPushResponse is the wire shape of the push acceptance.
type stkPushResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorMessage        string `json:"errorMessage"`
}

// stkQueryResponse is the wire shape of the status query.
type stkQueryResponse struct {
	ResultCode string `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
	ErrorCode  string `json:"errorCode"`
}

// gateway implements IGateway against the payment gateway's HTTP API.
type gateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewGateway creates an M-Pesa gateway client.
func NewGateway(cfg *config.Config) IGateway {
	return &gateway{
		baseURL:    cfg.MpesaBaseURL,
		httpClient: &http.Client{Timeout: cfg.MpesaTimeout},
	}
}

// InitiateSTKPush asks the gateway to push a payment prompt to the user's
// phone. A non-2xx response or a ResponseCode other than "0" is an
// immediate failure; the caller decides whether to re-invoke.
func (g *gateway) InitiateSTKPush(ctx context.Context, phone string, amount float64) (*STKPushResult, error) {
	reqBody, _ := json.Marshal(map[string]interface{}{
		"phone":  phone,
		"amount": amount,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/mpesa/stk-push", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create STK push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling M-Pesa STK push: %v", err)
		return nil, fmt.Errorf("failed to contact payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read STK push response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("STK push returned status %d - Body: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("payment initiation failed with status %d", resp.StatusCode)
	}

	var pushResp stkPushResponse
	if err := json.Unmarshal(body, &pushResp); err != nil {
		log.Printf("Error unmarshalling STK push response: %v - Body: %s", err, string(body))
		return nil, fmt.Errorf("failed to parse payment gateway response: %w", err)
	}

	if pushResp.ResponseCode != "0" {
		reason := pushResp.ResponseDescription
		if reason == "" {
			reason = pushResp.ErrorMessage
		}
		return nil, fmt.Errorf("payment gateway rejected STK push: %s", reason)
	}

	return &STKPushResult{
		CheckoutRequestID: pushResp.CheckoutRequestID,
		MerchantRequestID: pushResp.MerchantRequestID,
		CustomerMessage:   pushResp.CustomerMessage,
	}, nil
}

// QuerySTKStatus asks the gateway whether the user has confirmed the push.
// ResultCode "0" means paid; the gateway's still-processing error code maps
// to pending; anything else is a failure (declined, cancelled on phone, or
// insufficient funds).
func (g *gateway) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (models.PaymentStatus, error) {
	reqBody, _ := json.Marshal(map[string]string{
		"CheckoutRequestID": checkoutRequestID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/mpesa/stk-query", bytes.NewBuffer(reqBody))
	if err != nil {
		return models.PaymentPending, fmt.Errorf("failed to create STK query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.PaymentPending, fmt.Errorf("failed to contact payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PaymentPending, fmt.Errorf("failed to read STK query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The gateway answers with an error status while the transaction is
		// still being processed; keep polling.
		var queryResp stkQueryResponse
		if json.Unmarshal(body, &queryResp) == nil && queryResp.ErrorCode == stkPendingResultCode {
			return models.PaymentPending, nil
		}
		return models.PaymentPending, fmt.Errorf("payment status query failed with status %d", resp.StatusCode)
	}

	var queryResp stkQueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return models.PaymentPending, fmt.Errorf("failed to parse payment status response: %w", err)
	}

	switch {
	case queryResp.ResultCode == "0":
		return models.PaymentSuccess, nil
	case queryResp.ResultCode == "" || queryResp.ErrorCode == stkPendingResultCode:
		return models.PaymentPending, nil
	default:
		return models.PaymentFailed, nil
	}
}
