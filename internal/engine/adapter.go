package engine

import (
	"context"
	"fmt"

	"github.com/ultrazend/ultrazend/internal/worker"
)

// WorkerAdapter adapts the engine.Sender to the worker.EmailSender interface.
type WorkerAdapter struct {
	sender    *Sender
	masterKey []byte // nil if DKIM private keys are stored unsealed
}

// NewWorkerAdapter creates a new WorkerAdapter wrapping the given Sender.
// masterKey unseals DKIM private keys that internal/service.domainService
// encrypted at rest with EncryptPrivateKey; pass nil when DKIM.MasterEncryptionKey
// isn't configured and keys are stored as plain PEM.
func NewWorkerAdapter(s *Sender, masterKey []byte) *WorkerAdapter {
	return &WorkerAdapter{sender: s, masterKey: masterKey}
}

// SendEmail converts a worker.OutboundMessage to an engine.OutgoingMessage,
// calls the engine sender, and converts the result back.
func (a *WorkerAdapter) SendEmail(ctx context.Context, msg *worker.OutboundMessage) ([]worker.RecipientResult, error) {
	dkimKey := string(msg.DKIMKey)
	if a.masterKey != nil && dkimKey != "" {
		plain, err := DecryptPrivateKey(dkimKey, a.masterKey)
		if err != nil {
			return nil, fmt.Errorf("unsealing DKIM private key for %s: %w", msg.DKIMDomain, err)
		}
		dkimKey = plain
	}

	outgoing := &OutgoingMessage{
		From:         msg.From,
		To:           msg.To,
		Cc:           msg.Cc,
		Bcc:          msg.Bcc,
		ReplyTo:      msg.ReplyTo,
		Subject:      msg.Subject,
		HTMLBody:     msg.HTMLBody,
		TextBody:     msg.TextBody,
		Headers:      msg.Headers,
		MessageID:    msg.MessageID,
		DKIMDomain:   msg.DKIMDomain,
		DKIMSelector: msg.DKIMSelector,
		DKIMKey:      dkimKey,
	}

	result, err := a.sender.SendEmail(ctx, outgoing)
	if err != nil {
		return nil, err
	}

	var results []worker.RecipientResult
	for recipient, r := range result.Recipients {
		results = append(results, worker.RecipientResult{
			Recipient:      recipient,
			Success:        r.Status == "sent",
			Code:           r.Code,
			Message:        r.Message,
			Permanent:      r.Permanent,
			Classification: string(r.Classification),
			Suppress:       r.Suppress,
			SuppressReason: r.SuppressReason,
		})
	}

	return results, nil
}
