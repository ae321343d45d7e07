package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/core/domain"
)

// Mock implementations of the core ports, shared by the service tests.

type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) ListByApp(ctx context.Context, kind, appID string) ([]domain.Integration, error) {
	args := m.Called(ctx, kind, appID)
	if result := args.Get(0); result != nil {
		return result.([]domain.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIntegrationRepository) GetIntegration(ctx context.Context, id int64) (*domain.Integration, error) {
	args := m.Called(ctx, id)
	if result := args.Get(0); result != nil {
		return result.(*domain.Integration), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) FindOpenThread(ctx context.Context, integrationID int64, kind, pairKey string) (*domain.Conversation, error) {
	args := m.Called(ctx, integrationID, kind, pairKey)
	if result := args.Get(0); result != nil {
		return result.(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConversationRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) (int64, error) {
	args := m.Called(ctx, conv)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConversationRepository) ResetReadUsers(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockConversationRepository) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if result := args.Get(0); result != nil {
		return result.(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByFacebookID(ctx context.Context, integrationID int64, fbUserID string) (*domain.Customer, error) {
	args := m.Called(ctx, integrationID, fbUserID)
	if result := args.Get(0); result != nil {
		return result.(*domain.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) CreateCustomer(ctx context.Context, c *domain.Customer) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) (int64, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(int64), args.Error(1)
}

type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) SaveLog(ctx context.Context, log *domain.WebhookLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type MockDedupRepository struct {
	mock.Mock
}

func (m *MockDedupRepository) IsDuplicate(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupRepository) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	args := m.Called(ctx, eventID, ttl)
	return args.Error(0)
}

type MockGraphGateway struct {
	mock.Mock
}

func (m *MockGraphGateway) PageAccessToken(ctx context.Context, pageID, userToken string) (string, error) {
	args := m.Called(ctx, pageID, userToken)
	return args.String(0), args.Error(1)
}

func (m *MockGraphGateway) UserProfile(ctx context.Context, userID, pageToken string) (*dto.UserProfile, error) {
	args := m.Called(ctx, userID, pageToken)
	if result := args.Get(0); result != nil {
		return result.(*dto.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphGateway) SendMessage(ctx context.Context, pageToken, recipientID, text string) (*dto.SendResponse, error) {
	args := m.Called(ctx, pageToken, recipientID, text)
	if result := args.Get(0); result != nil {
		return result.(*dto.SendResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
