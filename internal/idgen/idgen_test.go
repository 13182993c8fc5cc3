package idgen

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ewarranty/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestFormats(t *testing.T) {
	assert.Equal(t, "PJ04", BranchCode("pj", 4))
	assert.Equal(t, "PJ0420250601001", WarrantyNo("PJ04", june1, 1))
	assert.Equal(t, "C20250601-PJ0420250601001-01", ClaimNo("PJ0420250601001", june1, 1))
	assert.Equal(t, "SG100", BranchCode("SG", 100), "wider sequences are not truncated")
}

func TestNext_WarrantySameDay(t *testing.T) {
	prefix := WarrantyPrefix("PJ04", june1)

	first := Next(prefix, WarrantySeqWidth, nil)
	assert.Equal(t, "PJ0420250601001", first)

	second := Next(prefix, WarrantySeqWidth, []string{first})
	assert.Equal(t, "PJ0420250601002", second)
}

func TestMaxSequence_NumericNotLexical(t *testing.T) {
	existing := []string{"SG09", "SG10", "SG100", "SG99"}
	assert.Equal(t, 100, MaxSequence("SG", BranchSeqWidth, existing))
	assert.Equal(t, "SG101", Next("SG", BranchSeqWidth, existing))
}

func TestMaxSequence_IgnoresForeignValues(t *testing.T) {
	prefix := WarrantyPrefix("PJ04", june1)
	existing := []string{
		"PJ0420250601007",
		"PJ0420250602009", // other day
		"PJ0520250601050", // other shop
		"PJ0420250601ABC", // malformed
		"PJ042025060101",  // too short for the scope width
	}
	assert.Equal(t, 7, MaxSequence(prefix, WarrantySeqWidth, existing))
}

func TestBranchCodes_MonotonicWithinState(t *testing.T) {
	var issued []string
	for i := 0; i < 12; i++ {
		issued = append(issued, Next(BranchPrefix("PJ"), BranchSeqWidth, issued))
	}
	for i := 1; i < len(issued); i++ {
		prev, _ := Sequence("PJ", issued[i-1], BranchSeqWidth)
		cur, _ := Sequence("PJ", issued[i], BranchSeqWidth)
		assert.Equal(t, prev+1, cur)
	}
	assert.Equal(t, "PJ12", issued[11])
}

func TestRetry_SucceedsAfterTaken(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "PJ04/20250601", func(attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("insert: %w", ErrTaken)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedIsConflict(t *testing.T) {
	err := Retry(context.Background(), "PJ04/20250601", func(int) error { return ErrTaken })

	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, MaxAttempts, ce.Attempts)
	assert.Equal(t, "PJ04/20250601", ce.Scope)
}

func TestRetry_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), "x", func(int) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
