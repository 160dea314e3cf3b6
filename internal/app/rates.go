/**
 * @description
 * The RateTable owns the three mutable conversion rates and the fixed
 * threshold that selects between the two USD->INR multipliers. It replaces the
 * ambient package-level rate globals the old bot carried: the table is an
 * injected component and every mutation funnels through Set under the lock.
 *
 * @notes
 * - The table always reflects only the latest value. In-flight conversions use
 *   whatever rate is current at evaluation time; there is no snapshot
 *   isolation and no history.
 * - No rounding happens here. Presentation formatting is the gateway's job.
 */

package app

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/config"
	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
)

// RateTable is the process-wide conversion rate configuration. Safe for
// concurrent use; reads take the read lock, Set writes exactly one field.
type RateTable struct {
	mu           sync.RWMutex
	inrToUsd     decimal.Decimal
	usdToInrLow  decimal.Decimal
	usdToInrHigh decimal.Decimal
	threshold    decimal.Decimal
}

// NewRateTable seeds the table from configuration. Config has already coerced
// each value to be strictly positive.
func NewRateTable(cfg config.Config) *RateTable {
	return &RateTable{
		inrToUsd:     decimal.NewFromFloat(cfg.InrToUsdRate),
		usdToInrLow:  decimal.NewFromFloat(cfg.UsdToInrLowRate),
		usdToInrHigh: decimal.NewFromFloat(cfg.UsdToInrHighRate),
		threshold:    decimal.NewFromFloat(cfg.UsdToInrThreshold),
	}
}

// Convert dispatches one conversion in the given direction.
func (t *RateTable) Convert(direction domain.ConversionDirection, amount decimal.Decimal) (domain.Conversion, error) {
	switch direction {
	case domain.DirectionINRToUSD:
		return t.ConvertINRToUSD(amount)
	case domain.DirectionUSDToINR:
		return t.ConvertUSDToINR(amount)
	default:
		return domain.Conversion{}, domain.ErrUnknownDirection
	}
}

// ConvertINRToUSD divides the INR amount by the current INR->USD rate.
func (t *RateTable) ConvertINRToUSD(amount decimal.Decimal) (domain.Conversion, error) {
	if amount.IsNegative() {
		return domain.Conversion{}, domain.ErrInvalidAmount
	}
	t.mu.RLock()
	rate := t.inrToUsd
	t.mu.RUnlock()
	return domain.Conversion{
		Direction: domain.DirectionINRToUSD,
		Amount:    amount,
		Converted: amount.Div(rate),
		RateUsed:  rate,
	}, nil
}

// ConvertUSDToINR multiplies the USD amount by the low or high rate. Amounts
// strictly below the threshold use the low rate; the threshold itself already
// uses the high rate.
func (t *RateTable) ConvertUSDToINR(amount decimal.Decimal) (domain.Conversion, error) {
	if amount.IsNegative() {
		return domain.Conversion{}, domain.ErrInvalidAmount
	}
	t.mu.RLock()
	rate := t.usdToInrHigh
	if amount.LessThan(t.threshold) {
		rate = t.usdToInrLow
	}
	t.mu.RUnlock()
	return domain.Conversion{
		Direction: domain.DirectionUSDToINR,
		Amount:    amount,
		Converted: amount.Mul(rate),
		RateUsed:  rate,
	}, nil
}

// Set replaces one rate field. The caller has already been authorized by the
// command surface; the table only rejects non-positive values.
func (t *RateTable) Set(kind domain.RateKind, value decimal.Decimal) error {
	if !value.IsPositive() {
		return domain.ErrInvalidRate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch kind {
	case domain.RateKindI2C:
		t.inrToUsd = value
	case domain.RateKindC2ILow:
		t.usdToInrLow = value
	case domain.RateKindC2IHigh:
		t.usdToInrHigh = value
	default:
		return domain.ErrUnknownRateKind
	}
	return nil
}

// Snapshot returns a point-in-time copy of the table for display.
func (t *RateTable) Snapshot() domain.RateSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return domain.RateSnapshot{
		InrToUsd:       t.inrToUsd,
		UsdToInrLow:    t.usdToInrLow,
		UsdToInrHigh:   t.usdToInrHigh,
		UsdToInrCutoff: t.threshold,
	}
}
