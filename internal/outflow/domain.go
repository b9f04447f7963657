package outflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

// Status enumerates pending outflow lifecycle states. Stored as readable
// labels so audit queries stay human-legible.
type Status string

const (
	StatusPending Status = "pending"
	StatusStale30 Status = "stale_30"
	StatusStale60 Status = "stale_60"
	StatusStale90 Status = "stale_90"
	StatusCleared Status = "cleared"
	StatusVoided  Status = "voided"
)

// OpenStatuses lists the non-terminal states in promotion order.
var OpenStatuses = []Status{StatusPending, StatusStale30, StatusStale60, StatusStale90}

// IsOpen reports whether the outflow can still be promoted, matched or voided.
func (s Status) IsOpen() bool {
	switch s {
	case StatusPending, StatusStale30, StatusStale60, StatusStale90:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCleared || s == StatusVoided
}

// Rank orders open statuses for monotonic promotion. Terminal states rank
// above every open tier so a promotion can never overwrite them.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusStale30:
		return 1
	case StatusStale60:
		return 2
	case StatusStale90:
		return 3
	default:
		return 4
	}
}

// PaymentMethod enumerates how the outflow was issued.
type PaymentMethod string

const (
	MethodCheck PaymentMethod = "check"
	MethodACH   PaymentMethod = "ach"
	MethodOther PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCheck, MethodACH, MethodOther:
		return true
	}
	return false
}

// PendingOutflow is money committed (check written, ACH initiated) but not
// yet observed clearing the bank. Amounts are minor currency units.
type PendingOutflow struct {
	ID                  uuid.UUID     `json:"id"`
	RestaurantID        uuid.UUID     `json:"restaurant_id"`
	Payee               string        `json:"payee"`
	Method              PaymentMethod `json:"method"`
	Amount              int64         `json:"amount"`
	IssueDate           time.Time     `json:"issue_date"`
	DueDate             *time.Time    `json:"due_date,omitempty"`
	Reference           *string       `json:"reference,omitempty"`
	CategoryID          *uuid.UUID    `json:"category_id,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	Status              Status        `json:"status"`
	LinkedTransactionID *uuid.UUID    `json:"linked_transaction_id,omitempty"`
	ClearedAt           *time.Time    `json:"cleared_at,omitempty"`
	VoidedAt            *time.Time    `json:"voided_at,omitempty"`
	VoidedReason        *string       `json:"voided_reason,omitempty"`
	Version             int64         `json:"-"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// MatchDate returns the date the suggestion engine compares against the
// bank posting date: the due date when present, the issue date otherwise.
func (o PendingOutflow) MatchDate() time.Time {
	if o.DueDate != nil {
		return *o.DueDate
	}
	return o.IssueDate
}

// CreateInput carries the fields required to record a new outflow.
type CreateInput struct {
	RestaurantID uuid.UUID
	Payee        string
	Method       PaymentMethod
	Amount       int64
	IssueDate    time.Time
	DueDate      *time.Time
	Reference    *string
	CategoryID   *uuid.UUID
	Notes        string
}

// Validate enforces the creation invariants.
func (in CreateInput) Validate() error {
	if in.RestaurantID == uuid.Nil {
		return shared.NewValidationError("restaurant_id", "restaurant scope is required")
	}
	if strings.TrimSpace(in.Payee) == "" {
		return shared.NewValidationError("payee", "payee is required")
	}
	if !in.Method.Valid() {
		return shared.NewValidationError("method", "must be one of check, ach, other")
	}
	if in.Amount <= 0 {
		return shared.NewValidationError("amount", "must be positive")
	}
	if in.IssueDate.IsZero() {
		return shared.NewValidationError("issue_date", "issue date is required")
	}
	if in.DueDate != nil && in.DueDate.Before(in.IssueDate) {
		return shared.NewValidationError("due_date", "must be on or after issue date")
	}
	return nil
}
