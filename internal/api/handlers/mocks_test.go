package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
	"github.com/DevMandate/LinknaMali-sub000/internal/search"
)

// --- Mocks shared by the handler tests ---

// MockSearchService implements search.ISearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, sessionID string, f search.FilterState) (*search.Result, error) {
	args := m.Called(ctx, sessionID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Result), args.Error(1)
}

func (m *MockSearchService) Current(sessionID string) *search.Result {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*search.Result)
}

// MockWizardService implements booking.IWizardService
type MockWizardService struct {
	mock.Mock
}

func (m *MockWizardService) Start(ctx context.Context, userID string, in booking.StartInput) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) Get(ctx context.Context, userID, wizardID string) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) ApplyDetails(ctx context.Context, userID, wizardID string, in booking.DetailsInput) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) SelectPayment(ctx context.Context, userID, wizardID string, in booking.PaymentInput) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) Advance(ctx context.Context, userID, wizardID string) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) Back(ctx context.Context, userID, wizardID string) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) AttachPaymentSession(ctx context.Context, userID, wizardID, paymentSessionID string) (*booking.Wizard, error) {
	args := m.Called(ctx, userID, wizardID, paymentSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Wizard), args.Error(1)
}

func (m *MockWizardService) Submit(ctx context.Context, userID, wizardID string) (*models.Booking, error) {
	args := m.Called(ctx, userID, wizardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockWizardService) Cancel(ctx context.Context, userID, wizardID string) error {
	args := m.Called(ctx, userID, wizardID)
	return args.Error(0)
}

func (m *MockWizardService) BlockedDates(ctx context.Context, propertyID string) ([]string, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPaymentService implements payment.IService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID, wizardID, phone string, amount float64) (*models.PaymentSession, error) {
	args := m.Called(ctx, userID, wizardID, phone, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) Status(ctx context.Context, userID, sessionID string) (models.PaymentStatus, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(models.PaymentStatus), args.Error(1)
}

func (m *MockPaymentService) GetSession(ctx context.Context, userID, sessionID string) (*models.PaymentSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) Cancel(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *MockPaymentService) Shutdown() {
	m.Called()
}

// MockTaskClient implements tasks.IClient
type MockTaskClient struct {
	mock.Mock
}

func (m *MockTaskClient) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
