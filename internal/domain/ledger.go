/**
 * @description
 * Domain model for the per-user settlement ledger aggregate. Totals are only
 * moved by confirmed settlement sessions (exactly once per session) or by the
 * explicit administrative adjustment path.
 *
 * @notes
 * - Amounts use shopspring decimals to keep external currency units exact.
 * - The adjustment path applies signed deltas with no floor, so totals can go
 *   negative. That matches the behavior operators rely on for manual
 *   corrections; the store does not clamp.
 */

package domain

import "github.com/shopspring/decimal"

// LedgerTotals is the aggregate state of one user's settlement ledger.
type LedgerTotals struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	DealCount   int64           `json:"deal_count"`
}

// ZeroLedgerTotals is the read result for a user with no ledger record.
func ZeroLedgerTotals() LedgerTotals {
	return LedgerTotals{TotalAmount: decimal.Zero, DealCount: 0}
}
