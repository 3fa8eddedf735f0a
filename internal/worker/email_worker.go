package worker

// email_worker.go
// Processes email jobs from QueueEmail: close-of-session drawer summaries
// addressed to the supervisor inbox. Sends through the SMTP circuit breaker
// and dead-letters jobs that exhaust their retries.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
)

const emailMaxAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailWorker delivers queued mail via SMTP behind a circuit breaker.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends one email job, retrying transient SMTP failures.
// Jobs that exhaust their attempts (or hit an open circuit) go to the DLQ.
func (w *EmailWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= emailMaxAttempts; attempt++ {
		lastErr = w.cb.Execute(func() error {
			return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body)
		})
		if lastErr == nil {
			log.Info().Str("to", payload.ToEmail).Msg("email_worker: summary sent")
			return
		}
		if lastErr == infra.ErrCircuitOpen {
			// No point hammering a tripped breaker
			break
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Str("to", payload.ToEmail).
			Msg("email_worker: send failed")
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	SendToDLQ(ctx, rdb, QueueEmail, "email", raw, lastErr.Error(), emailMaxAttempts)
}
