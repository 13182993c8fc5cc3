// Package domain holds the error taxonomy, roles and status values shared by
// the lifecycle services. Handlers map these errors to HTTP responses; nothing
// in here knows about transport or storage.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a client-fixable failure carrying every violated rule.
// Operations that return it have not written anything.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// Problems collects validation reasons so that an operation can report all of
// them at once instead of failing on the first.
type Problems []string

func (p *Problems) Add(reason string) { *p = append(*p, reason) }

func (p *Problems) Addf(format string, args ...any) { *p = append(*p, fmt.Sprintf(format, args...)) }

// Err returns nil when nothing was collected.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Reasons: append([]string(nil), p...)}
}

// Invalid is a shorthand for a single-reason ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reasons: []string{fmt.Sprintf(format, args...)}}
}

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func NotFound(entity string, id any) error { return &NotFoundError{Entity: entity, ID: id} }

// InvalidHierarchyError reports a catalog selection whose ancestor chain does
// not line up, e.g. a series that does not belong to the chosen type.
type InvalidHierarchyError struct {
	Level    string
	ID       uint
	Parent   string
	ParentID uint
}

func (e *InvalidHierarchyError) Error() string {
	return fmt.Sprintf("%s %d does not belong to %s %d", e.Level, e.ID, e.Parent, e.ParentID)
}

// InsufficientQuantityError is returned when consuming or allocating would
// exceed the available film quantity.
type InsufficientQuantityError struct {
	Entity    string
	ID        uint
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("%s %d has %d unit(s) available, %d requested", e.Entity, e.ID, e.Available, e.Requested)
}

// EditLockedError is returned for mutations of a record that is frozen,
// an approved warranty or claim, or an allocation already in use.
type EditLockedError struct {
	Entity string
	ID     uint
	Reason string
}

func (e *EditLockedError) Error() string {
	return fmt.Sprintf("%s %d is locked: %s", e.Entity, e.ID, e.Reason)
}

type WarrantyNotApprovedError struct {
	WarrantyID uint
	Status     ApprovalStatus
}

func (e *WarrantyNotApprovedError) Error() string {
	return fmt.Sprintf("warranty %d is %s, claims require an approved warranty", e.WarrantyID, e.Status)
}

// ConflictError means a generated identifier kept colliding with concurrent
// writers after the bounded number of attempts.
type ConflictError struct {
	Scope    string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identifier conflict in scope %q after %d attempt(s)", e.Scope, e.Attempts)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }

func Forbidden(reason string) error { return &ForbiddenError{Reason: reason} }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
