/**
 * @description
 * Domain model for the settlement confirmation session: the ephemeral state
 * machine instance that tracks one pending settlement from creation to a
 * terminal outcome. Session state lives only in process memory; sessions that
 * are still pending when the process exits are simply lost.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionState is the confirmation workflow state. PENDING reaches exactly one
// of the three terminal states and then never moves again.
type SessionState string

const (
	SessionPending   SessionState = "pending"
	SessionConfirmed SessionState = "confirmed"
	SessionCancelled SessionState = "cancelled"
	SessionExpired   SessionState = "expired"
)

// Terminal reports whether the state permits no further transition.
func (s SessionState) Terminal() bool {
	return s == SessionConfirmed || s == SessionCancelled || s == SessionExpired
}

// SettlementSession is the immutable-identity snapshot of one confirmation
// session. Operator, SubjectUser, Amount and ExchangeType are fixed at
// creation; only State and ResolvedAt change, and only once.
type SettlementSession struct {
	ID           uuid.UUID       `json:"id"`
	Operator     string          `json:"operator"`
	SubjectUser  string          `json:"subject_user"`
	Amount       decimal.Decimal `json:"amount"`
	ExchangeType string          `json:"exchange_type"`
	State        SessionState    `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}
