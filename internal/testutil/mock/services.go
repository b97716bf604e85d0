package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ultrazend/ultrazend/internal/dto"
	"github.com/ultrazend/ultrazend/internal/model"
)

// --- AuthService ---

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}
func (m *MockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

// --- EmailService ---

type MockEmailService struct{ mock.Mock }

func (m *MockEmailService) Send(ctx context.Context, teamID uuid.UUID, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SendEmailResponse), args.Error(1)
}
func (m *MockEmailService) BatchSend(ctx context.Context, teamID uuid.UUID, req *dto.BatchSendEmailRequest) (*dto.BatchSendEmailResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BatchSendEmailResponse), args.Error(1)
}
func (m *MockEmailService) List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailResponse], error) {
	args := m.Called(ctx, teamID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.EmailResponse]), args.Error(1)
}
func (m *MockEmailService) Get(ctx context.Context, teamID uuid.UUID, emailID uuid.UUID) (*dto.EmailResponse, error) {
	args := m.Called(ctx, teamID, emailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailResponse), args.Error(1)
}
func (m *MockEmailService) Update(ctx context.Context, teamID uuid.UUID, emailID uuid.UUID, req map[string]interface{}) (*dto.EmailResponse, error) {
	args := m.Called(ctx, teamID, emailID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailResponse), args.Error(1)
}
func (m *MockEmailService) Cancel(ctx context.Context, teamID uuid.UUID, emailID uuid.UUID) (*dto.EmailResponse, error) {
	args := m.Called(ctx, teamID, emailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailResponse), args.Error(1)
}

// --- DomainService ---

type MockDomainService struct{ mock.Mock }

func (m *MockDomainService) Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error) {
	args := m.Called(ctx, teamID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.DomainResponse]), args.Error(1)
}
func (m *MockDomainService) Get(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	args := m.Called(ctx, teamID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) Update(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error) {
	args := m.Called(ctx, teamID, domainID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) Delete(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) error {
	return m.Called(ctx, teamID, domainID).Error(0)
}
func (m *MockDomainService) Verify(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	args := m.Called(ctx, teamID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) RotateDKIMKey(ctx context.Context, teamID uuid.UUID, domainID uuid.UUID) (*dto.DomainResponse, error) {
	args := m.Called(ctx, teamID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}

// --- APIKeyService ---

type MockAPIKeyService struct{ mock.Mock }

func (m *MockAPIKeyService) Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.APIKeyResponse), args.Error(1)
}
func (m *MockAPIKeyService) List(ctx context.Context, teamID uuid.UUID) (*dto.ListResponse[dto.APIKeyResponse], error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListResponse[dto.APIKeyResponse]), args.Error(1)
}
func (m *MockAPIKeyService) Delete(ctx context.Context, teamID uuid.UUID, apiKeyID uuid.UUID) error {
	return m.Called(ctx, teamID, apiKeyID).Error(0)
}

// --- TemplateService ---

type MockTemplateService struct{ mock.Mock }

func (m *MockTemplateService) Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TemplateResponse), args.Error(1)
}
func (m *MockTemplateService) List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.TemplateResponse], error) {
	args := m.Called(ctx, teamID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.TemplateResponse]), args.Error(1)
}
func (m *MockTemplateService) Get(ctx context.Context, teamID uuid.UUID, templateID uuid.UUID) (*dto.TemplateDetailResponse, error) {
	args := m.Called(ctx, teamID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TemplateDetailResponse), args.Error(1)
}
func (m *MockTemplateService) Update(ctx context.Context, teamID uuid.UUID, templateID uuid.UUID, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	args := m.Called(ctx, teamID, templateID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TemplateResponse), args.Error(1)
}
func (m *MockTemplateService) Delete(ctx context.Context, teamID uuid.UUID, templateID uuid.UUID) error {
	return m.Called(ctx, teamID, templateID).Error(0)
}
func (m *MockTemplateService) Publish(ctx context.Context, teamID uuid.UUID, templateID uuid.UUID) (*dto.TemplateResponse, error) {
	args := m.Called(ctx, teamID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TemplateResponse), args.Error(1)
}

// --- WebhookService ---

type MockWebhookService struct{ mock.Mock }

func (m *MockWebhookService) Create(ctx context.Context, teamID uuid.UUID, req *dto.CreateWebhookRequest) (*dto.WebhookResponse, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WebhookResponse), args.Error(1)
}
func (m *MockWebhookService) List(ctx context.Context, teamID uuid.UUID) (*dto.ListResponse[dto.WebhookResponse], error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListResponse[dto.WebhookResponse]), args.Error(1)
}
func (m *MockWebhookService) Get(ctx context.Context, teamID uuid.UUID, webhookID uuid.UUID) (*dto.WebhookResponse, error) {
	args := m.Called(ctx, teamID, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WebhookResponse), args.Error(1)
}
func (m *MockWebhookService) Update(ctx context.Context, teamID uuid.UUID, webhookID uuid.UUID, req *dto.UpdateWebhookRequest) (*dto.WebhookResponse, error) {
	args := m.Called(ctx, teamID, webhookID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WebhookResponse), args.Error(1)
}
func (m *MockWebhookService) Delete(ctx context.Context, teamID uuid.UUID, webhookID uuid.UUID) error {
	return m.Called(ctx, teamID, webhookID).Error(0)
}

// --- InboundEmailService ---

type MockInboundEmailService struct{ mock.Mock }

func (m *MockInboundEmailService) List(ctx context.Context, teamID uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[model.InboundEmail], error) {
	args := m.Called(ctx, teamID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[model.InboundEmail]), args.Error(1)
}
func (m *MockInboundEmailService) Get(ctx context.Context, teamID uuid.UUID, emailID uuid.UUID) (*model.InboundEmail, error) {
	args := m.Called(ctx, teamID, emailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InboundEmail), args.Error(1)
}

// --- LogService ---

type MockLogService struct{ mock.Mock }

func (m *MockLogService) List(ctx context.Context, teamID uuid.UUID, level string, params *dto.PaginationParams) (*dto.PaginatedResponse[model.Log], error) {
	args := m.Called(ctx, teamID, level, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[model.Log]), args.Error(1)
}

// --- MetricsService ---

type MockMetricsService struct{ mock.Mock }

func (m *MockMetricsService) Get(ctx context.Context, teamID uuid.UUID, period string) (*dto.MetricsResponse, error) {
	args := m.Called(ctx, teamID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MetricsResponse), args.Error(1)
}
func (m *MockMetricsService) IncrementCounter(ctx context.Context, teamID uuid.UUID, eventType string) error {
	return m.Called(ctx, teamID, eventType).Error(0)
}

// --- SettingsService ---

type MockSettingsService struct{ mock.Mock }

func (m *MockSettingsService) GetUsage(ctx context.Context, teamID uuid.UUID) (*dto.UsageResponse, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UsageResponse), args.Error(1)
}
func (m *MockSettingsService) GetTeam(ctx context.Context, teamID uuid.UUID) (*dto.TeamResponse, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TeamResponse), args.Error(1)
}
func (m *MockSettingsService) UpdateTeam(ctx context.Context, teamID uuid.UUID, req *dto.UpdateTeamRequest) error {
	return m.Called(ctx, teamID, req).Error(0)
}
func (m *MockSettingsService) GetSMTPConfig() *dto.SMTPConfigResponse {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*dto.SMTPConfigResponse)
}
func (m *MockSettingsService) InviteMember(ctx context.Context, teamID uuid.UUID, req *dto.InviteMemberRequest) (*model.TeamInvitation, error) {
	args := m.Called(ctx, teamID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TeamInvitation), args.Error(1)
}
func (m *MockSettingsService) AcceptInvite(ctx context.Context, req *dto.AcceptInviteRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

