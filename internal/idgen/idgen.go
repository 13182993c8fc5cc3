// Package idgen formats the scoped sequence numbers used for shops, warranties
// and claims: scope prefix + zero-padded sequence, where the next sequence is
// one more than the highest already present in the scope.
//
//	branch code   PJ04                      {state}{seq:02d}
//	warranty no   PJ0420250601001           {branchCode}{YYYYMMDD}{seq:03d}
//	claim no      C20250610-PJ0420250601001-01   C{YYYYMMDD}-{warrantyNo}-{seq:02d}
//
// Computing the next value is only safe while the caller holds the scope lock;
// see IdentifierService.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ewarranty/internal/domain"
)

const (
	BranchSeqWidth   = 2
	WarrantySeqWidth = 3
	ClaimSeqWidth    = 2

	// MaxAttempts bounds how often an assignment is retried after losing a race.
	MaxAttempts = 3

	dateLayout = "20060102"
)

// ErrTaken signals that the assigned number was persisted by someone else in
// the meantime and the assignment should be retried.
var ErrTaken = errors.New("idgen: number already taken")

// BranchPrefix returns the scope of a state, e.g. "PJ".
func BranchPrefix(stateCode string) string {
	return strings.ToUpper(strings.TrimSpace(stateCode))
}

// WarrantyPrefix returns the (shop, day) scope, e.g. "PJ0420250601".
func WarrantyPrefix(branchCode string, installed time.Time) string {
	return branchCode + installed.Format(dateLayout)
}

// ClaimPrefix returns the (warranty, day) scope, e.g. "C20250610-PJ0420250601001-".
func ClaimPrefix(warrantyNo string, claimed time.Time) string {
	return "C" + claimed.Format(dateLayout) + "-" + warrantyNo + "-"
}

// Format renders prefix + seq padded to width digits. Sequences wider than
// width are printed in full.
func Format(prefix string, seq, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}

func BranchCode(stateCode string, seq int) string {
	return Format(BranchPrefix(stateCode), seq, BranchSeqWidth)
}

func WarrantyNo(branchCode string, installed time.Time, seq int) string {
	return Format(WarrantyPrefix(branchCode, installed), seq, WarrantySeqWidth)
}

func ClaimNo(warrantyNo string, claimed time.Time, seq int) string {
	return Format(ClaimPrefix(warrantyNo, claimed), seq, ClaimSeqWidth)
}

// Sequence extracts the numeric suffix of value within prefix. Values that do
// not start with the prefix, or whose remainder is not a number of at least
// width digits, are not part of the scope.
func Sequence(prefix, value string, width int) (int, bool) {
	if !strings.HasPrefix(value, prefix) {
		return 0, false
	}
	rest := value[len(prefix):]
	if len(rest) < width {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxSequence is the highest sequence among existing values of the scope, 0 if none.
func MaxSequence(prefix string, width int, existing []string) int {
	highest := 0
	for _, v := range existing {
		if n, ok := Sequence(prefix, v, width); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// Next returns the number following the highest existing one in the scope.
func Next(prefix string, width int, existing []string) string {
	return Format(prefix, MaxSequence(prefix, width, existing)+1, width)
}

// Retry runs fn until it succeeds, fails with anything other than ErrTaken, or
// MaxAttempts is reached. Exhaustion surfaces as a domain.ConflictError.
func Retry(ctx context.Context, scope string, fn func(attempt int) error) error {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTaken) {
			return err
		}
	}
	return &domain.ConflictError{Scope: scope, Attempts: MaxAttempts}
}
