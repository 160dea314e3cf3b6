/**
 * @description
 * PostgreSQL implementation of the Repository interface. Slot writes are
 * single-row upserts keyed on (user_id, slot_index), so per-record atomicity
 * comes straight from the database. Ledger settlement uses a single
 * INSERT ... ON CONFLICT DO UPDATE ... RETURNING statement, which serializes
 * concurrent read-modify-writes on the same row without any advisory locking.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pooling.
 * - github.com/shopspring/decimal: Amounts travel as text to and from NUMERIC.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
)

// PostgresRepository is the production Repository backed by a pgx pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new repository instance using the provided
// database connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the service's tables when they do not exist yet. The
// deployment has no separate migration step; the schema is small and additive.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS crypto_slots (
			user_id    TEXT        NOT NULL,
			slot_index SMALLINT    NOT NULL CHECK (slot_index BETWEEN 1 AND 5),
			address    TEXT        NOT NULL,
			addr_type  TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, slot_index)
		)`,
		`CREATE TABLE IF NOT EXISTS upi_slots (
			user_id    TEXT        NOT NULL,
			slot_index SMALLINT    NOT NULL CHECK (slot_index BETWEEN 1 AND 5),
			handle     TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, slot_index)
		)`,
		`CREATE TABLE IF NOT EXISTS settlement_ledgers (
			user_id      TEXT           PRIMARY KEY,
			total_amount NUMERIC(20, 8) NOT NULL DEFAULT 0,
			deal_count   BIGINT         NOT NULL DEFAULT 0,
			updated_at   TIMESTAMPTZ    NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: schema setup: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

// GetPaymentProfile assembles the full slot set for a user. Missing rows are
// empty slots; a user with no rows at all reads back as an all-empty profile.
func (r *PostgresRepository) GetPaymentProfile(ctx context.Context, userID string) (*domain.PaymentProfile, error) {
	profile := &domain.PaymentProfile{UserID: userID}

	rows, err := r.db.Query(ctx,
		`SELECT slot_index, address, addr_type FROM crypto_slots WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: crypto slot query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var index int
		var address, addrType string
		if err := rows.Scan(&index, &address, &addrType); err != nil {
			return nil, fmt.Errorf("%w: crypto slot scan: %v", ErrStoreUnavailable, err)
		}
		if domain.ValidSlotIndex(index) {
			profile.Crypto[index-1] = domain.CryptoSlot{Address: address, Type: addrType}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: crypto slot rows: %v", ErrStoreUnavailable, err)
	}

	upiRows, err := r.db.Query(ctx,
		`SELECT slot_index, handle FROM upi_slots WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: upi slot query: %v", ErrStoreUnavailable, err)
	}
	defer upiRows.Close()
	for upiRows.Next() {
		var index int
		var handle string
		if err := upiRows.Scan(&index, &handle); err != nil {
			return nil, fmt.Errorf("%w: upi slot scan: %v", ErrStoreUnavailable, err)
		}
		if domain.ValidSlotIndex(index) {
			profile.UPI[index-1] = domain.UPISlot{Handle: handle}
		}
	}
	if err := upiRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: upi slot rows: %v", ErrStoreUnavailable, err)
	}

	return profile, nil
}

// SetCryptoSlot overwrites one crypto slot unconditionally.
func (r *PostgresRepository) SetCryptoSlot(ctx context.Context, userID string, slotIndex int, address, addrType string) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO crypto_slots (user_id, slot_index, address, addr_type)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, slot_index)
		 DO UPDATE SET address = EXCLUDED.address, addr_type = EXCLUDED.addr_type, updated_at = now()`,
		userID, slotIndex, address, addrType)
	if err != nil {
		return fmt.Errorf("%w: crypto slot write: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ClearCryptoSlot empties one crypto slot. Clearing an already-empty slot is
// not an error.
func (r *PostgresRepository) ClearCryptoSlot(ctx context.Context, userID string, slotIndex int) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM crypto_slots WHERE user_id = $1 AND slot_index = $2`, userID, slotIndex)
	if err != nil {
		return fmt.Errorf("%w: crypto slot clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SetUPISlot overwrites one UPI slot unconditionally.
func (r *PostgresRepository) SetUPISlot(ctx context.Context, userID string, slotIndex int, handle string) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO upi_slots (user_id, slot_index, handle)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, slot_index)
		 DO UPDATE SET handle = EXCLUDED.handle, updated_at = now()`,
		userID, slotIndex, handle)
	if err != nil {
		return fmt.Errorf("%w: upi slot write: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ClearUPISlot empties one UPI slot.
func (r *PostgresRepository) ClearUPISlot(ctx context.Context, userID string, slotIndex int) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM upi_slots WHERE user_id = $1 AND slot_index = $2`, userID, slotIndex)
	if err != nil {
		return fmt.Errorf("%w: upi slot clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetLedger returns the ledger aggregate for a user, zero-valued when absent.
func (r *PostgresRepository) GetLedger(ctx context.Context, userID string) (domain.LedgerTotals, error) {
	var amountText string
	var dealCount int64
	err := r.db.QueryRow(ctx,
		`SELECT total_amount::text, deal_count FROM settlement_ledgers WHERE user_id = $1`,
		userID).Scan(&amountText, &dealCount)
	if err == pgx.ErrNoRows {
		return domain.ZeroLedgerTotals(), nil
	}
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("%w: ledger read: %v", ErrStoreUnavailable, err)
	}
	total, err := decimal.NewFromString(amountText)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("%w: ledger amount parse: %v", ErrStoreUnavailable, err)
	}
	return domain.LedgerTotals{TotalAmount: total, DealCount: dealCount}, nil
}

// ApplySettlement adds a confirmed settlement to the user's aggregate. The
// upsert runs as one statement, so concurrent settlements for the same user
// serialize on the row and no update is lost.
func (r *PostgresRepository) ApplySettlement(ctx context.Context, userID string, amount decimal.Decimal) (domain.LedgerTotals, error) {
	if amount.IsNegative() {
		return domain.LedgerTotals{}, domain.ErrInvalidAmount
	}
	return r.upsertLedger(ctx, userID, amount, 1)
}

// AdjustLedger applies signed deltas to the aggregate without the implicit
// deal-count increment. There is no floor; administrative corrections may
// drive either value negative.
func (r *PostgresRepository) AdjustLedger(ctx context.Context, userID string, deltaAmount decimal.Decimal, deltaDeals int64) (domain.LedgerTotals, error) {
	return r.upsertLedger(ctx, userID, deltaAmount, deltaDeals)
}

func (r *PostgresRepository) upsertLedger(ctx context.Context, userID string, deltaAmount decimal.Decimal, deltaDeals int64) (domain.LedgerTotals, error) {
	var amountText string
	var dealCount int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO settlement_ledgers (user_id, total_amount, deal_count)
		 VALUES ($1, $2::numeric, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET
			total_amount = settlement_ledgers.total_amount + EXCLUDED.total_amount,
			deal_count   = settlement_ledgers.deal_count + EXCLUDED.deal_count,
			updated_at   = now()
		 RETURNING total_amount::text, deal_count`,
		userID, deltaAmount.String(), deltaDeals).Scan(&amountText, &dealCount)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("%w: ledger write: %v", ErrStoreUnavailable, err)
	}
	total, err := decimal.NewFromString(amountText)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("%w: ledger amount parse: %v", ErrStoreUnavailable, err)
	}
	return domain.LedgerTotals{TotalAmount: total, DealCount: dealCount}, nil
}
