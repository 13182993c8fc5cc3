package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewarranty/internal/domain"
	"ewarranty/internal/worker"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// JobQueue is satisfied by *worker.Dispatcher.
type JobQueue interface {
	EnqueueCertificate(ctx context.Context, p worker.CertificatePayload) error
	EnqueueEmail(ctx context.Context, p worker.EmailPayload) error
}

// lookup translates gorm's missing-row error into a domain NotFoundError and
// wraps anything else.
func lookup(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	return fmt.Errorf("load %s %v: %w", entity, id, err)
}

func parseDate(field, value string, problems *domain.Problems) time.Time {
	if value == "" {
		problems.Addf("%s is required", field)
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		problems.Addf("%s must be a date in YYYY-MM-DD format", field)
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 20
	}
	return page, size
}
