package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ewarranty/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueCertificate = "jobs:certificate"
	QueueEmail       = "jobs:email"

	JobCertificate = "certificate"
	JobEmail       = "email"

	// MaxJobAttempts is how often a job runs before it is moved to the DLQ.
	MaxJobAttempts = 3

	popBackoff    = time.Second
	maxPopBackoff = 30 * time.Second
)

// ErrQueueUnavailable is returned by the Dispatcher when Redis is not configured.
var ErrQueueUnavailable = errors.New("job queue unavailable")

// Job is the envelope stored in the Redis lists.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	Redrives int             `json:"redrives,omitempty"`
}

// CertificatePayload asks for the certificate of an approved warranty.
type CertificatePayload struct {
	WarrantyID uint `json:"warrantyId"`
}

// EmailPayload is one outgoing email; Attachment is a local file path.
type EmailPayload struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Attachment string `json:"attachment,omitempty"`
}

// Dispatcher enqueues jobs with LPUSH; the pool consumes them with BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) EnqueueCertificate(ctx context.Context, p CertificatePayload) error {
	return d.enqueue(ctx, QueueCertificate, JobCertificate, p)
}

func (d *Dispatcher) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d == nil || d.rdb == nil {
		return ErrQueueUnavailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one job payload. A returned error makes the pool retry the
// job, up to MaxJobAttempts.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Pool is a fixed set of goroutines blocking on BRPOP over every queue.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	size     int
	backoff  time.Duration
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, size int, handlers map[string]Handler) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{rdb: rdb, handlers: handlers, size: size, backoff: popBackoff}
}

// Start launches the workers; they stop when ctx is cancelled. Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", p.size)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) runWorker(ctx context.Context, id int) {
	queues := []string{QueueCertificate, QueueEmail}
	delay := p.backoff
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("worker %d shutting down", id)
			return
		}
		// Blocking pop: waits up to 5s then loops to check ctx.
		result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		switch {
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			continue
		case err != nil:
			// Redis is down or unreachable: back off instead of spinning.
			log.Warn().Err(err).Int("worker", id).Dur("retry_in", delay).Msg("dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			delay = min(delay*2, maxPopBackoff)
			continue
		}
		delay = p.backoff
		if len(result) < 2 {
			continue
		}
		p.apply(ctx, result[0], p.process(ctx, result[0], result[1]))
	}
}

// outcome is what should happen to a job after one run.
type outcome struct {
	retry *Job
	dead  *DLQEntry
}

func (p *Pool) process(ctx context.Context, queue, raw string) outcome {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return outcome{dead: newDLQEntry(queue, Job{Type: "unknown", Payload: json.RawMessage(`null`)}, "malformed job: "+err.Error())}
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		return outcome{dead: newDLQEntry(queue, job, fmt.Sprintf("no handler for job type %q", job.Type))}
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts).Msg("job done")
		return outcome{}
	}

	// An open breaker fails every attempt; park the job for the redrive cron.
	if errors.Is(err, infra.ErrCircuitOpen) || job.Attempts >= MaxJobAttempts {
		return outcome{dead: newDLQEntry(queue, job, err.Error())}
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	return outcome{retry: &job}
}

func (p *Pool) apply(ctx context.Context, queue string, o outcome) {
	switch {
	case o.retry != nil:
		if err := push(ctx, p.rdb, queue, *o.retry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
		}
	case o.dead != nil:
		SendToDLQ(ctx, p.rdb, *o.dead)
	}
}
