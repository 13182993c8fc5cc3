package worker

// dlq.go: jobs that exhausted their attempts are parked in dlq:{queue} until
// the redrive cron moves them back, or an operator inspects them.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"

	// MaxRedrives bounds how often one job is moved back out of the DLQ.
	MaxRedrives = 3
)

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
	Redrives      int             `json:"redrives"`
}

func newDLQEntry(queue string, job Job, reason string) *DLQEntry {
	return &DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      job.Attempts,
		Redrives:      job.Redrives,
	}
}

// Job rebuilds the envelope for a redrive, with a fresh attempt budget.
func (e DLQEntry) Job() Job {
	return Job{Type: e.JobType, Payload: e.Payload, Redrives: e.Redrives + 1}
}

// Redrivable reports whether the entry may go back to its queue.
func (e DLQEntry) Redrivable() bool {
	return e.Redrives < MaxRedrives && e.JobType != "unknown"
}

func SendToDLQ(ctx context.Context, rdb *redis.Client, entry DLQEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", entry.OriginalQueue).Msg("dlq: failed to marshal entry")
		return
	}
	dlqKey := DLQPrefix + entry.OriginalQueue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push")
		return
	}
	log.Warn().
		Str("queue", entry.OriginalQueue).
		Str("job_type", entry.JobType).
		Str("reason", entry.Reason).
		Int("attempts", entry.Attempts).
		Int("redrives", entry.Redrives).
		Msg("dlq: job moved to dead letter queue")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
