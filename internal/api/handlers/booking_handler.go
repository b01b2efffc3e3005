package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DevMandate/LinknaMali-sub000/internal/api/middleware"
	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// BookingHandler handles REST requests for the booking wizard.
type BookingHandler struct {
	wizardService booking.IWizardService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(wizardService booking.IWizardService) *BookingHandler {
	return &BookingHandler{wizardService: wizardService}
}

// currentUserID reads the authenticated user from the Gin context. The auth
// middleware guarantees it is set on protected routes.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextKeyUserID)
}

// wizardError translates service errors into HTTP responses. Validation
// failures are field-level 422s so the client can surface them inline.
func wizardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrWizardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking session not found or expired"})
	case errors.Is(err, booking.ErrWrongStep):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrDatesRequired),
		errors.Is(err, booking.ErrDateOrder),
		errors.Is(err, booking.ErrPaymentRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, upstream.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Booking operation failed"})
	}
}

// Start handles POST /v1/bookings/wizard.
func (h *BookingHandler) Start(c *gin.Context) {
	var in booking.StartInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if in.PropertyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
		return
	}

	w, err := h.wizardService.Start(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// Get handles GET /v1/bookings/wizard/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	w, err := h.wizardService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ApplyDetails handles PUT /v1/bookings/wizard/:id/details.
func (h *BookingHandler) ApplyDetails(c *gin.Context) {
	var in booking.DetailsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	w, err := h.wizardService.ApplyDetails(c.Request.Context(), currentUserID(c), c.Param("id"), in)
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// SelectPayment handles PUT /v1/bookings/wizard/:id/payment.
func (h *BookingHandler) SelectPayment(c *gin.Context) {
	var in booking.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	w, err := h.wizardService.SelectPayment(c.Request.Context(), currentUserID(c), c.Param("id"), in)
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Advance handles POST /v1/bookings/wizard/:id/advance.
func (h *BookingHandler) Advance(c *gin.Context) {
	w, err := h.wizardService.Advance(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Back handles POST /v1/bookings/wizard/:id/back.
func (h *BookingHandler) Back(c *gin.Context) {
	w, err := h.wizardService.Back(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Submit handles POST /v1/bookings/wizard/:id/submit.
func (h *BookingHandler) Submit(c *gin.Context) {
	b, err := h.wizardService.Submit(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// Cancel handles DELETE /v1/bookings/wizard/:id.
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.wizardService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		wizardError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
