package handler

import "github.com/ultrazend/ultrazend/internal/service"

// Handlers aggregates all HTTP handlers.
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Email        *EmailHandler
	Domain       *DomainHandler
	APIKey       *APIKeyHandler
	Template     *TemplateHandler
	Webhook      *WebhookHandler
	InboundEmail *InboundEmailHandler
	Log          *LogHandler
	Metrics      *MetricsHandler
	Analytics    *MetricsHandler
	Settings     *SettingsHandler
}

func NewHandlers(svc *service.Services, health *HealthHandler) *Handlers {
	metrics := NewMetricsHandler(svc.Metrics)
	return &Handlers{
		Health:       health,
		Auth:         NewAuthHandler(svc.Auth),
		Email:        NewEmailHandler(svc.Email),
		Domain:       NewDomainHandler(svc.Domain),
		APIKey:       NewAPIKeyHandler(svc.APIKey),
		Template:     NewTemplateHandler(svc.Template),
		Webhook:      NewWebhookHandler(svc.Webhook),
		InboundEmail: NewInboundEmailHandler(svc.InboundEmail),
		Log:          NewLogHandler(svc.Log),
		Metrics:      metrics,
		Analytics:    metrics,
		Settings:     NewSettingsHandler(svc.Settings),
	}
}
