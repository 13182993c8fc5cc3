package worker

// email_worker.go sends queued emails through the SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"

	"ewarranty/internal/infra"

	"github.com/rs/zerolog/log"
)

// Sender is satisfied by *infra.Mailer.
type Sender interface {
	Send(msg infra.Message) error
}

type EmailWorker struct {
	mailer Sender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer Sender, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process returns nil for payloads that can never succeed so they are not
// retried.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p EmailPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if p.To == "" {
		log.Warn().Str("subject", p.Subject).Msg("email_worker: empty recipient, skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(infra.Message{To: p.To, Subject: p.Subject, Body: p.Body, Attachment: p.Attachment})
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", p.To, err)
	}
	log.Info().Str("to", p.To).Str("subject", p.Subject).Msg("email_worker: sent")
	return nil
}
