package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/DevMandate/LinknaMali-sub000/internal/api/handlers"
	"github.com/DevMandate/LinknaMali-sub000/internal/api/middleware"
	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

const testUserID = "user-42"

func setupBookingRouter(wizardSvc *MockWizardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Stand-in for the auth middleware.
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, testUserID)
		c.Next()
	})
	h := handlers.NewBookingHandler(wizardSvc)
	r.POST("/v1/bookings/wizard", h.Start)
	r.GET("/v1/bookings/wizard/:id", h.Get)
	r.PUT("/v1/bookings/wizard/:id/details", h.ApplyDetails)
	r.PUT("/v1/bookings/wizard/:id/payment", h.SelectPayment)
	r.POST("/v1/bookings/wizard/:id/advance", h.Advance)
	r.POST("/v1/bookings/wizard/:id/back", h.Back)
	r.POST("/v1/bookings/wizard/:id/submit", h.Submit)
	r.DELETE("/v1/bookings/wizard/:id", h.Cancel)
	return r
}

func TestBookingHandler_Start(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	wiz := &booking.Wizard{ID: "wiz-1", UserID: testUserID, Step: booking.StepDetails}
	mockWizard.On("Start", mock.Anything, testUserID, mock.MatchedBy(func(in booking.StartInput) bool {
		return in.PropertyID == "prop-1" && in.PropertyType == "Apartments"
	})).Return(wiz, nil)

	body, _ := json.Marshal(booking.StartInput{PropertyID: "prop-1", PropertyType: "Apartments"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/bookings/wizard", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockWizard.AssertExpectations(t)
}

func TestBookingHandler_Start_MissingPropertyID(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/bookings/wizard", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockWizard.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Get_NotFound(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	mockWizard.On("Get", mock.Anything, testUserID, "missing").Return(nil, booking.ErrWizardNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/bookings/wizard/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_ApplyDetails_ValidationError(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	mockWizard.On("ApplyDetails", mock.Anything, testUserID, "wiz-1", mock.Anything).
		Return(nil, booking.ErrDateOrder)

	body, _ := json.Marshal(booking.DetailsInput{CheckInDate: "2026-09-10", CheckOutDate: "2026-09-09"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/v1/bookings/wizard/wiz-1/details", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "check-out date must be after")
}

func TestBookingHandler_Advance_PaymentGate(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	mockWizard.On("Advance", mock.Anything, testUserID, "wiz-1").Return(nil, booking.ErrPaymentRequired)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/bookings/wizard/wiz-1/advance", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBookingHandler_Submit(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	b := &models.Booking{ID: "bk-1", Status: "pending"}
	mockWizard.On("Submit", mock.Anything, testUserID, "wiz-1").Return(b, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/bookings/wizard/wiz-1/submit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp models.Booking
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bk-1", resp.ID)
	mockWizard.AssertExpectations(t)
}

func TestBookingHandler_Submit_WrongStep(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	mockWizard.On("Submit", mock.Anything, testUserID, "wiz-1").Return(nil, booking.ErrWrongStep)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/bookings/wizard/wiz-1/submit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_Cancel(t *testing.T) {
	mockWizard := new(MockWizardService)
	router := setupBookingRouter(mockWizard)

	mockWizard.On("Cancel", mock.Anything, testUserID, "wiz-1").Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/bookings/wizard/wiz-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockWizard.AssertExpectations(t)
}
