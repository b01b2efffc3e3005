package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/DevMandate/LinknaMali-sub000/internal/api/handlers"
	"github.com/DevMandate/LinknaMali-sub000/internal/tasks"
)

func setupAdminRouter(taskClient *MockTaskClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewAdminHandler(taskClient)
	r.POST("/v1/admin/payments/reconcile", h.ReconcilePayments)
	return r
}

func TestAdminHandler_ReconcilePayments_Enqueues(t *testing.T) {
	mockClient := new(MockTaskClient)
	router := setupAdminRouter(mockClient)

	mockClient.On("Enqueue", mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypePaymentReconcile {
			return false
		}
		var p tasks.PaymentReconcilePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		return p.OlderThanSeconds == 600 && p.Limit == 25
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil)

	body := bytes.NewBufferString(`{"older_than_seconds": 600, "limit": 25}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/admin/payments/reconcile", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockClient.AssertExpectations(t)
}

func TestAdminHandler_ReconcilePayments_EmptyBodyUsesDefaults(t *testing.T) {
	mockClient := new(MockTaskClient)
	router := setupAdminRouter(mockClient)

	mockClient.On("Enqueue", mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.PaymentReconcilePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		// A zero cutoff lets the sweep derive it from the polling config.
		return p.OlderThanSeconds == 0
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/admin/payments/reconcile", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockClient.AssertExpectations(t)
}

func TestAdminHandler_ReconcilePayments_EnqueueFailure(t *testing.T) {
	mockClient := new(MockTaskClient)
	router := setupAdminRouter(mockClient)

	mockClient.On("Enqueue", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/admin/payments/reconcile", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
