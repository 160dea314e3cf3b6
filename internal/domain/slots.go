/**
 * @description
 * This file defines the domain models for the payment slot registry. Every user
 * owns a fixed set of five crypto slots and five UPI slots, addressed by a
 * 1-based index. A slot either holds a complete value or is empty; a crypto
 * slot is never stored with a type but no address.
 *
 * @notes
 * - Slot indices 1-5 and the slot type names "crypto"/"upi" are stable external
 *   identifiers used by the chat gateway; do not change them.
 */

package domain

import "fmt"

const (
	// SlotCount is the fixed number of slots a user gets per slot type.
	SlotCount = 5

	MinSlotIndex = 1
	MaxSlotIndex = SlotCount
)

// SlotType identifies which of the two slot collections an operation targets.
type SlotType string

const (
	SlotTypeCrypto SlotType = "crypto"
	SlotTypeUPI    SlotType = "upi"
)

// ParseSlotType validates a gateway-supplied slot type string.
func ParseSlotType(raw string) (SlotType, error) {
	switch SlotType(raw) {
	case SlotTypeCrypto:
		return SlotTypeCrypto, nil
	case SlotTypeUPI:
		return SlotTypeUPI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSlotType, raw)
	}
}

// ValidSlotIndex reports whether the 1-based slot index is in range.
func ValidSlotIndex(index int) bool {
	return index >= MinSlotIndex && index <= MaxSlotIndex
}

// CryptoSlot holds one saved crypto receiving address. Type is the free-form
// network label the user supplied (e.g. "USDT TRX", "LTC").
type CryptoSlot struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// Empty reports whether the slot holds no value.
func (s CryptoSlot) Empty() bool {
	return s.Address == "" && s.Type == ""
}

// UPISlot holds one saved UPI handle (e.g. "example@bank").
type UPISlot struct {
	Handle string `json:"handle"`
}

// Empty reports whether the slot holds no value.
func (s UPISlot) Empty() bool {
	return s.Handle == ""
}

// PaymentProfile is the full slot set for one user. Profiles are created
// lazily: a user with no writes yet reads back as all-empty, and clearing the
// last slot does not delete the profile.
type PaymentProfile struct {
	UserID string                `json:"user_id"`
	Crypto [SlotCount]CryptoSlot `json:"crypto_slots"`
	UPI    [SlotCount]UPISlot    `json:"upi_slots"`
}

// CryptoSlotAt returns the crypto slot at the given 1-based index.
func (p *PaymentProfile) CryptoSlotAt(index int) CryptoSlot {
	return p.Crypto[index-1]
}

// UPISlotAt returns the UPI slot at the given 1-based index.
func (p *PaymentProfile) UPISlotAt(index int) UPISlot {
	return p.UPI[index-1]
}

// EmptySlotSentinel is the placeholder the gateway renders for a slot that has
// no saved value. The plain-text follow-up message carries it verbatim.
const EmptySlotSentinel = "Empty"

// SlotView is the read-path result for a single slot. For an empty slot the
// value fields are blank and Plain() returns the sentinel, so the read path
// never fails for a user who has saved nothing.
type SlotView struct {
	UserID    string   `json:"user_id"`
	SlotType  SlotType `json:"slot_type"`
	SlotIndex int      `json:"slot_index"`
	Empty     bool     `json:"empty"`
	Address   string   `json:"address,omitempty"`
	Type      string   `json:"type,omitempty"`
	Handle    string   `json:"handle,omitempty"`
}

// Plain returns the bare address or handle for the follow-up message the
// gateway sends after the rich embed, or the sentinel when the slot is empty.
func (v SlotView) Plain() string {
	if v.Empty {
		return EmptySlotSentinel
	}
	if v.SlotType == SlotTypeUPI {
		return v.Handle
	}
	return v.Address
}
