package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ultrazend/ultrazend/internal/model"
	"github.com/ultrazend/ultrazend/internal/pipeline"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
)

// Classification values mirror engine.Classification without importing the
// engine package, which itself depends on worker (see adapter.go).
const (
	ClassificationSuccess   = "success"
	ClassificationTransient = "transient"
	ClassificationPermanent = "permanent"
	ClassificationComplaint = "complaint"
)

// BounceHandler processes bounce:process tasks by finalizing the email's
// state and updating the suppression list from a classification the sender
// already computed (engine.ClassifyBounce) and carried through the payload.
type BounceHandler struct {
	emailRepo       postgres.EmailRepository
	eventRepo       postgres.EmailEventRepository
	suppressionRepo postgres.SuppressionRepository
	bus             *pipeline.Bus
	logger          *slog.Logger
}

// NewBounceHandler creates a new BounceHandler.
func NewBounceHandler(
	emailRepo postgres.EmailRepository,
	eventRepo postgres.EmailEventRepository,
	suppressionRepo postgres.SuppressionRepository,
	logger *slog.Logger,
) *BounceHandler {
	return &BounceHandler{
		emailRepo:       emailRepo,
		eventRepo:       eventRepo,
		suppressionRepo: suppressionRepo,
		logger:          logger,
	}
}

// WithBus attaches the pipeline event bus so bounce/complaint events
// observed via DSN (rather than at SMTP-time) also feed analytics roll-up.
func (h *BounceHandler) WithBus(bus *pipeline.Bus) *BounceHandler {
	h.bus = bus
	return h
}

// ProcessTask handles the bounce:process task.
func (h *BounceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p BounceProcessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshalling bounce:process payload: %w", err)
	}

	log := h.logger.With("email_id", p.EmailID, "recipient", p.Recipient, "code", p.Code)
	log.Info("processing bounce", "classification", p.Classification, "suppress", p.Suppress)

	email, err := h.emailRepo.GetByID(ctx, p.EmailID)
	if err != nil {
		return fmt.Errorf("fetching email %s: %w", p.EmailID, err)
	}

	now := time.Now().UTC()

	if p.Suppress {
		if err := h.addToSuppressionList(ctx, email.TeamID, p.Recipient, p.SuppressReason, p.Message); err != nil {
			log.Error("failed to add recipient to suppression list", "error", err)
		}
	}

	switch p.Classification {
	case ClassificationPermanent:
		email.Status = model.EmailStatusBounced
		email.LastError = &p.Message
		email.UpdatedAt = now
		if err := h.emailRepo.Update(ctx, email); err != nil {
			log.Error("failed to update email to bounced", "error", err)
		}
		h.createEvent(ctx, email, model.EventBounced, &p.Recipient, model.JSONMap{
			"type":    p.Classification,
			"code":    p.Code,
			"message": p.Message,
		})

	case ClassificationComplaint:
		h.createEvent(ctx, email, model.EventComplained, &p.Recipient, model.JSONMap{
			"code":    p.Code,
			"message": p.Message,
		})

	default:
		// Transient: the send handler's own retry/backoff owns this
		// recipient's next attempt. Record the event without suppressing
		// or finalizing the email.
		h.createEvent(ctx, email, model.EventBounced, &p.Recipient, model.JSONMap{
			"type":    ClassificationTransient,
			"code":    p.Code,
			"message": p.Message,
		})
		log.Info("transient bounce recorded, email will be retried by send handler")
	}

	return nil
}

// addToSuppressionList adds a recipient to the team's suppression list if not already present.
func (h *BounceHandler) addToSuppressionList(ctx context.Context, teamID uuid.UUID, email, reason, details string) error {
	existing, _ := h.suppressionRepo.GetByTeamAndEmail(ctx, teamID, email)
	if existing != nil && !existing.Expired(time.Now().UTC()) {
		h.logger.Debug("recipient already on suppression list", "email", email, "existing_reason", existing.Reason)
		return nil
	}

	entry := &model.SuppressionEntry{
		ID:        uuid.New(),
		TeamID:    teamID,
		Email:     email,
		Reason:    reason,
		Details:   &details,
		CreatedAt: time.Now().UTC(),
	}

	return h.suppressionRepo.Create(ctx, entry)
}

// createEvent is a helper to create an email event record and, if a bus is
// attached, publish it for analytics roll-up.
func (h *BounceHandler) createEvent(ctx context.Context, email *model.Email, eventType string, recipient *string, payload model.JSONMap) {
	event := &model.EmailEvent{
		ID:        uuid.New(),
		EmailID:   email.ID,
		Type:      eventType,
		Payload:   payload,
		Recipient: recipient,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.eventRepo.Create(ctx, event); err != nil {
		h.logger.Error("failed to create email event", "error", err, "email_id", email.ID, "event_type", eventType)
	}
	if h.bus != nil {
		h.bus.Publish(ctx, pipeline.Event{
			TeamID:   email.TeamID,
			DomainID: email.DomainID,
			EmailID:  &email.ID,
			Type:     eventType,
			Metadata: payload,
		})
	}
}
