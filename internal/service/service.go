package service

// All service interfaces are defined in their respective implementation files:
//
//   AuthService            -> auth.go
//   EmailService           -> email.go
//   DomainService          -> domain.go
//   APIKeyService          -> apikey.go
//   TemplateService        -> template.go
//   WebhookService         -> webhook.go
//   InboundEmailService    -> inbound_email.go
//   LogService             -> log.go
//   MetricsService         -> metrics.go
//   SettingsService        -> settings.go
