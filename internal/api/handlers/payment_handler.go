package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/payment"
)

// PaymentHandler handles REST requests for M-Pesa STK push sessions.
type PaymentHandler struct {
	paymentService payment.IService
	wizardService  booking.IWizardService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService payment.IService, wizardService booking.IWizardService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		wizardService:  wizardService,
	}
}

// initiateRequest starts an STK push for a wizard's total.
type initiateRequest struct {
	WizardID string `json:"wizard_id"`
	Phone    string `json:"phone"`
}

// Initiate handles POST /v1/payments/mpesa. The amount always comes from
// the wizard's computed total, never from the client.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.WizardID == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wizard_id and phone are required"})
		return
	}

	userID := currentUserID(c)
	w, err := h.wizardService.Get(c.Request.Context(), userID, req.WizardID)
	if err != nil {
		wizardError(c, err)
		return
	}

	session, err := h.paymentService.Initiate(c.Request.Context(), userID, w.ID, req.Phone, w.Draft.TotalAmount)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to initiate M-Pesa payment"})
		return
	}

	if _, err := h.wizardService.AttachPaymentSession(c.Request.Context(), userID, w.ID, session.ID); err != nil {
		log.Printf("Warning: failed to attach payment session %s to wizard %s: %v", session.ID, w.ID, err)
	}

	c.JSON(http.StatusAccepted, session)
}

// Status handles GET /v1/payments/mpesa/:id.
func (h *PaymentHandler) Status(c *gin.Context) {
	session, err := h.paymentService.GetSession(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment session not found or expired"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read payment session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Cancel handles DELETE /v1/payments/mpesa/:id. Cancelling stops the
// status poller; the push itself may still complete on the phone.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	if err := h.paymentService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment session not found or expired"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel payment session"})
		return
	}
	c.Status(http.StatusNoContent)
}
