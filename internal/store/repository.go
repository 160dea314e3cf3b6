/**
 * @description
 * This file defines the `Repository` interface: the contract for all durable
 * state the exchange service keeps — payment slot profiles and settlement
 * ledgers. Keeping the interface here decouples the core components from the
 * PostgreSQL implementation and lets tests and broker-less dev deployments run
 * against the in-memory implementation.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/shopspring/decimal: Exact external-currency amounts.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
)

// ErrStoreUnavailable reports a durable-write or read failure. A failed write
// leaves the previous record intact; the caller surfaces a generic rejection.
var ErrStoreUnavailable = errors.New("store unavailable")

// Repository defines the set of methods for interacting with durable state.
// All writes are atomic per user record: a concurrent reader never observes a
// half-written slot, and two settlements for the same user never lose an
// update. No ordering is guaranteed across different users.
type Repository interface {
	// Payment profile methods. Get returns an all-empty profile for unknown
	// users and never fails on absence. The slot-index guards here are a
	// second line of defense; the registry validates before calling.
	GetPaymentProfile(ctx context.Context, userID string) (*domain.PaymentProfile, error)
	SetCryptoSlot(ctx context.Context, userID string, slotIndex int, address, addrType string) error
	ClearCryptoSlot(ctx context.Context, userID string, slotIndex int) error
	SetUPISlot(ctx context.Context, userID string, slotIndex int, handle string) error
	ClearUPISlot(ctx context.Context, userID string, slotIndex int) error

	// Settlement ledger methods. GetLedger returns zero totals for unknown
	// users. ApplySettlement increments deal_count by one and total_amount by
	// amount in a single serialized read-modify-write; amount must be
	// non-negative. AdjustLedger applies signed deltas verbatim, creating the
	// record if needed, with no floor.
	GetLedger(ctx context.Context, userID string) (domain.LedgerTotals, error)
	ApplySettlement(ctx context.Context, userID string, amount decimal.Decimal) (domain.LedgerTotals, error)
	AdjustLedger(ctx context.Context, userID string, deltaAmount decimal.Decimal, deltaDeals int64) (domain.LedgerTotals, error)
}
