/**
 * @description
 * In-memory implementation of the Repository interface. It backs local
 * development when DATABASE_URL is unset and every unit test that needs a
 * working store. Each user's profile and ledger live in their own record with
 * their own mutex, so mutations are record-scoped and never block unrelated
 * users; the outer lock only guards the record maps themselves.
 */

package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
)

type profileRecord struct {
	mu      sync.Mutex
	profile domain.PaymentProfile
}

type ledgerRecord struct {
	mu     sync.Mutex
	totals domain.LedgerTotals
}

// MemoryRepository is a process-local Repository. Safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*profileRecord
	ledgers  map[string]*ledgerRecord
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]*profileRecord),
		ledgers:  make(map[string]*ledgerRecord),
	}
}

func (r *MemoryRepository) profileRecordFor(userID string) *profileRecord {
	r.mu.RLock()
	rec, ok := r.profiles[userID]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.profiles[userID]; ok {
		return rec
	}
	rec = &profileRecord{profile: domain.PaymentProfile{UserID: userID}}
	r.profiles[userID] = rec
	return rec
}

func (r *MemoryRepository) ledgerRecordFor(userID string) *ledgerRecord {
	r.mu.RLock()
	rec, ok := r.ledgers[userID]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.ledgers[userID]; ok {
		return rec
	}
	rec = &ledgerRecord{totals: domain.ZeroLedgerTotals()}
	r.ledgers[userID] = rec
	return rec
}

// GetPaymentProfile returns a copy of the user's profile, all-empty when the
// user has never written a slot.
func (r *MemoryRepository) GetPaymentProfile(ctx context.Context, userID string) (*domain.PaymentProfile, error) {
	_ = ctx
	rec := r.profileRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	clone := rec.profile
	return &clone, nil
}

// SetCryptoSlot overwrites one crypto slot unconditionally.
func (r *MemoryRepository) SetCryptoSlot(ctx context.Context, userID string, slotIndex int, address, addrType string) error {
	_ = ctx
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	rec := r.profileRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.Crypto[slotIndex-1] = domain.CryptoSlot{Address: address, Type: addrType}
	return nil
}

// ClearCryptoSlot empties one crypto slot.
func (r *MemoryRepository) ClearCryptoSlot(ctx context.Context, userID string, slotIndex int) error {
	_ = ctx
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	rec := r.profileRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.Crypto[slotIndex-1] = domain.CryptoSlot{}
	return nil
}

// SetUPISlot overwrites one UPI slot unconditionally.
func (r *MemoryRepository) SetUPISlot(ctx context.Context, userID string, slotIndex int, handle string) error {
	_ = ctx
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	rec := r.profileRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.UPI[slotIndex-1] = domain.UPISlot{Handle: handle}
	return nil
}

// ClearUPISlot empties one UPI slot.
func (r *MemoryRepository) ClearUPISlot(ctx context.Context, userID string, slotIndex int) error {
	_ = ctx
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	rec := r.profileRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.UPI[slotIndex-1] = domain.UPISlot{}
	return nil
}

// GetLedger returns the user's ledger aggregate, zero-valued when absent.
func (r *MemoryRepository) GetLedger(ctx context.Context, userID string) (domain.LedgerTotals, error) {
	_ = ctx
	r.mu.RLock()
	rec, ok := r.ledgers[userID]
	r.mu.RUnlock()
	if !ok {
		return domain.ZeroLedgerTotals(), nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.totals, nil
}

// ApplySettlement adds one confirmed settlement under the record lock, so
// concurrent settlements for the same user never lose an update.
func (r *MemoryRepository) ApplySettlement(ctx context.Context, userID string, amount decimal.Decimal) (domain.LedgerTotals, error) {
	_ = ctx
	if amount.IsNegative() {
		return domain.LedgerTotals{}, domain.ErrInvalidAmount
	}
	rec := r.ledgerRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.totals.TotalAmount = rec.totals.TotalAmount.Add(amount)
	rec.totals.DealCount++
	return rec.totals, nil
}

// AdjustLedger applies signed deltas verbatim, creating the record if needed.
func (r *MemoryRepository) AdjustLedger(ctx context.Context, userID string, deltaAmount decimal.Decimal, deltaDeals int64) (domain.LedgerTotals, error) {
	_ = ctx
	rec := r.ledgerRecordFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.totals.TotalAmount = rec.totals.TotalAmount.Add(deltaAmount)
	rec.totals.DealCount += deltaDeals
	return rec.totals, nil
}
