package worker

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type constants for all background jobs.
const (
	TaskEmailSend        = "email:send"
	TaskEmailBatchSend   = "email:send_batch"
	TaskDomainVerify     = "domain:verify"
	TaskWebhookDeliver   = "webhook:deliver"
	TaskBounceProcess    = "bounce:process"
	TaskInboundProcess   = "inbound:process"
	TaskCleanupExpired   = "cleanup:expired"
	TaskMetricsAggregate = "metrics:aggregate"
)

// Queue names and their intended priority levels.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// EmailSendPayload is the payload for sending a single email.
type EmailSendPayload struct {
	EmailID uuid.UUID `json:"email_id"`
	TeamID  uuid.UUID `json:"team_id"`
}

// EmailBatchSendPayload is the payload for sending a batch of emails.
type EmailBatchSendPayload struct {
	EmailIDs []uuid.UUID `json:"email_ids"`
	TeamID   uuid.UUID   `json:"team_id"`
}

// DomainVerifyPayload is the payload for verifying a domain's DNS records.
type DomainVerifyPayload struct {
	DomainID uuid.UUID `json:"domain_id"`
	TeamID   uuid.UUID `json:"team_id"`
}

// WebhookDeliverPayload is the payload for delivering a webhook event.
type WebhookDeliverPayload struct {
	WebhookEventID uuid.UUID `json:"webhook_event_id"`
}

// BounceProcessPayload is the payload for processing a bounce. Classification
// and Suppress/SuppressReason are computed once by the sender that observed
// the SMTP response (engine.ClassifyBounce) and carried through as data.
type BounceProcessPayload struct {
	EmailID        uuid.UUID `json:"email_id"`
	Code           int       `json:"code"`
	Message        string    `json:"message"`
	Recipient      string    `json:"recipient"`
	Classification string    `json:"classification"`
	Suppress       bool      `json:"suppress"`
	SuppressReason string    `json:"suppress_reason"`
}

// InboundProcessPayload is the payload for processing an inbound email.
type InboundProcessPayload struct {
	InboundEmailID uuid.UUID `json:"inbound_email_id"`
}

// NewEmailSendTask creates an asynq task for sending a single email.
func NewEmailSendTask(emailID, teamID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailSendPayload{EmailID: emailID, TeamID: teamID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailSend, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(8)), nil
}

// NewEmailBatchSendTask creates an asynq task for sending a batch of emails.
func NewEmailBatchSendTask(emailIDs []uuid.UUID, teamID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailBatchSendPayload{EmailIDs: emailIDs, TeamID: teamID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailBatchSend, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(8)), nil
}

// NewDomainVerifyTask creates an asynq task for verifying a domain's DNS records.
// Extra opts (e.g. asynq.ProcessIn for the exponential poll schedule) are appended
// after the defaults, so callers can override ProcessAt/ProcessIn.
func NewDomainVerifyTask(domainID, teamID uuid.UUID, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	if err != nil {
		return nil, err
	}
	defaults := []asynq.Option{asynq.Queue(TenantQueue(QueueDefault, teamID)), asynq.MaxRetry(3)}
	return asynq.NewTask(TaskDomainVerify, payload, append(defaults, opts...)...), nil
}

// NewWebhookDeliverTask creates an asynq task for delivering a webhook event.
func NewWebhookDeliverTask(webhookEventID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(WebhookDeliverPayload{WebhookEventID: webhookEventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDeliver, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewBounceProcessTask creates an asynq task for processing a bounce notification.
func NewBounceProcessTask(emailID uuid.UUID, code int, message, recipient, classification string, suppress bool, suppressReason string) (*asynq.Task, error) {
	payload, err := json.Marshal(BounceProcessPayload{
		EmailID:        emailID,
		Code:           code,
		Message:        message,
		Recipient:      recipient,
		Classification: classification,
		Suppress:       suppress,
		SuppressReason: suppressReason,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBounceProcess, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewInboundProcessTask creates an asynq task for processing an inbound email.
func NewInboundProcessTask(inboundEmailID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(InboundProcessPayload{InboundEmailID: inboundEmailID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInboundProcess, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewCleanupExpiredTask creates an asynq task for cleaning up expired data.
func NewCleanupExpiredTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskCleanupExpired, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}

// NewMetricsAggregateTask creates an asynq task for aggregating email metrics.
func NewMetricsAggregateTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskMetricsAggregate, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}
