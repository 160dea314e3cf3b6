/**
 * @description
 * The SlotRegistry is the validating facade over the payment profile store.
 * It enforces slot-index bounds once at the boundary, translates "delete"
 * into the matching clear operation, and applies "update" as an unconditional
 * overwrite of the finished field tuple (collecting those fields through the
 * modal is the chat gateway's concern). The read path never fails for a user
 * who has saved nothing.
 *
 * @dependencies
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
)

// SlotFields carries the finished value tuple for one slot write. Address and
// Type are required for crypto slots, Handle for UPI slots.
type SlotFields struct {
	Address string
	Type    string
	Handle  string
}

// SlotRegistry validates and applies slot operations against the profile store.
type SlotRegistry struct {
	repo store.Repository
}

// NewSlotRegistry creates a new registry service instance.
func NewSlotRegistry(repo store.Repository) *SlotRegistry {
	return &SlotRegistry{repo: repo}
}

// WriteSlot creates or replaces one slot. The overwrite is unconditional;
// there is no slot history.
func (s *SlotRegistry) WriteSlot(ctx context.Context, userID string, slotType domain.SlotType, slotIndex int, fields SlotFields) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}

	switch slotType {
	case domain.SlotTypeCrypto:
		address := strings.TrimSpace(fields.Address)
		addrType := strings.TrimSpace(fields.Type)
		// A crypto slot is stored whole or not at all; a type with no
		// address never reaches the store.
		if address == "" || addrType == "" {
			return domain.ErrEmptySlotFields
		}
		if err := s.repo.SetCryptoSlot(ctx, userID, slotIndex, address, addrType); err != nil {
			return fmt.Errorf("crypto slot write: %w", err)
		}
		return nil
	case domain.SlotTypeUPI:
		handle := strings.TrimSpace(fields.Handle)
		if handle == "" {
			return domain.ErrEmptySlotFields
		}
		if err := s.repo.SetUPISlot(ctx, userID, slotIndex, handle); err != nil {
			return fmt.Errorf("upi slot write: %w", err)
		}
		return nil
	default:
		return domain.ErrUnknownSlotType
	}
}

// ClearSlot empties one slot. Clearing an already-empty slot succeeds; the
// profile itself persists.
func (s *SlotRegistry) ClearSlot(ctx context.Context, userID string, slotType domain.SlotType, slotIndex int) error {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.ErrInvalidSlotIndex
	}

	switch slotType {
	case domain.SlotTypeCrypto:
		if err := s.repo.ClearCryptoSlot(ctx, userID, slotIndex); err != nil {
			return fmt.Errorf("crypto slot clear: %w", err)
		}
		return nil
	case domain.SlotTypeUPI:
		if err := s.repo.ClearUPISlot(ctx, userID, slotIndex); err != nil {
			return fmt.Errorf("upi slot clear: %w", err)
		}
		return nil
	default:
		return domain.ErrUnknownSlotType
	}
}

// DescribeSlot returns the populated slot or the empty sentinel view. Any
// caller who knows the user identifier may read; there is no ownership check
// on the read path.
func (s *SlotRegistry) DescribeSlot(ctx context.Context, userID string, slotType domain.SlotType, slotIndex int) (domain.SlotView, error) {
	if !domain.ValidSlotIndex(slotIndex) {
		return domain.SlotView{}, domain.ErrInvalidSlotIndex
	}
	if slotType != domain.SlotTypeCrypto && slotType != domain.SlotTypeUPI {
		return domain.SlotView{}, domain.ErrUnknownSlotType
	}

	profile, err := s.repo.GetPaymentProfile(ctx, userID)
	if err != nil {
		return domain.SlotView{}, fmt.Errorf("profile read: %w", err)
	}

	view := domain.SlotView{
		UserID:    userID,
		SlotType:  slotType,
		SlotIndex: slotIndex,
	}
	if slotType == domain.SlotTypeCrypto {
		slot := profile.CryptoSlotAt(slotIndex)
		view.Empty = slot.Empty()
		view.Address = slot.Address
		view.Type = slot.Type
	} else {
		slot := profile.UPISlotAt(slotIndex)
		view.Empty = slot.Empty()
		view.Handle = slot.Handle
	}
	return view, nil
}
