package worker

// redrive_cron.go: periodically moves DLQ entries back to their queue while
// the SMTP circuit breaker is not open. Entries that reached MaxRedrives stay
// in the DLQ.

import (
	"context"
	"encoding/json"
	"time"

	"ewarranty/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultRedriveInterval = time.Minute

type RedriveCronConfig struct {
	RDB      *redis.Client
	CB       *infra.CircuitBreaker
	Interval time.Duration
	Queues   []string
}

// StartRedriveCron ticks until ctx is cancelled. The returned channel is
// closed when the goroutine has exited.
func StartRedriveCron(ctx context.Context, cfg RedriveCronConfig) <-chan struct{} {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultRedriveInterval
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []string{QueueCertificate, QueueEmail}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Msg("redrive_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("redrive_cron: shutting down")
				return
			case <-ticker.C:
				redriveOnce(ctx, cfg)
			}
		}
	}()
	return done
}

func redriveOnce(ctx context.Context, cfg RedriveCronConfig) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("redrive_cron: circuit breaker is open, skipping tick")
		return
	}
	for _, queue := range cfg.Queues {
		moved, err := redriveQueue(ctx, cfg.RDB, queue)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("redrive_cron: failed")
			continue
		}
		if moved > 0 {
			log.Info().Str("queue", queue).Int("moved", moved).Msg("redrive_cron: jobs redriven")
		}
	}
}

// redriveQueue looks at each DLQ entry present at the start of the call once.
func redriveQueue(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	dlqKey := DLQPrefix + queue
	n, err := rdb.LLen(ctx, dlqKey).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for i := int64(0); i < n; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			if err == redis.Nil {
				break
			}
			return moved, err
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || !entry.Redrivable() {
			// Keep it for inspection at the far end of the list.
			if err := rdb.LPush(ctx, dlqKey, raw).Err(); err != nil {
				return moved, err
			}
			continue
		}
		if err := push(ctx, rdb, queue, entry.Job()); err != nil {
			_ = rdb.RPush(ctx, dlqKey, raw).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}
