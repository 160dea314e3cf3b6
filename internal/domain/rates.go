/**
 * @description
 * Domain types for the conversion rate table. Rate kinds and conversion
 * directions are closed variants parsed once at the API boundary instead of
 * free-form strings re-validated in every handler.
 */

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateKind identifies one mutable field of the rate table.
type RateKind string

const (
	// RateKindI2C is the INR->USD divisor.
	RateKindI2C RateKind = "i2c"
	// RateKindC2ILow is the USD->INR multiplier below the threshold.
	RateKindC2ILow RateKind = "c2i_low"
	// RateKindC2IHigh is the USD->INR multiplier at or above the threshold.
	RateKindC2IHigh RateKind = "c2i_high"
)

// ParseRateKind validates a gateway-supplied rate kind string.
func ParseRateKind(raw string) (RateKind, error) {
	switch RateKind(raw) {
	case RateKindI2C, RateKindC2ILow, RateKindC2IHigh:
		return RateKind(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRateKind, raw)
	}
}

// ConversionDirection identifies which way a conversion runs.
type ConversionDirection string

const (
	DirectionINRToUSD ConversionDirection = "i2c"
	DirectionUSDToINR ConversionDirection = "c2i"
)

// ParseConversionDirection validates a gateway-supplied direction string.
func ParseConversionDirection(raw string) (ConversionDirection, error) {
	switch ConversionDirection(raw) {
	case DirectionINRToUSD, DirectionUSDToINR:
		return ConversionDirection(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, raw)
	}
}

// Conversion is the result of one rates.convert evaluation. RateUsed is the
// rate that was current at evaluation time; there is no snapshot isolation
// across requests.
type Conversion struct {
	Direction ConversionDirection `json:"direction"`
	Amount    decimal.Decimal     `json:"amount"`
	Converted decimal.Decimal     `json:"converted"`
	RateUsed  decimal.Decimal     `json:"rate_used"`
}

// RateSnapshot is a point-in-time copy of the table for display (the gateway
// renders it in the setrate confirmation and the help embed).
type RateSnapshot struct {
	InrToUsd       decimal.Decimal `json:"inr_to_usd"`
	UsdToInrLow    decimal.Decimal `json:"usd_to_inr_low"`
	UsdToInrHigh   decimal.Decimal `json:"usd_to_inr_high"`
	UsdToInrCutoff decimal.Decimal `json:"usd_to_inr_threshold"`
}
