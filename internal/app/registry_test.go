package app

import (
	"context"
	"errors"
	"testing"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
)

func TestWriteSlotRoundTrip(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())
	ctx := context.Background()

	err := registry.WriteSlot(ctx, "u1", domain.SlotTypeCrypto, 1, SlotFields{Address: "ltc1qxyz", Type: "LTC"})
	if err != nil {
		t.Fatalf("WriteSlot returned error: %v", err)
	}

	view, err := registry.DescribeSlot(ctx, "u1", domain.SlotTypeCrypto, 1)
	if err != nil {
		t.Fatalf("DescribeSlot returned error: %v", err)
	}
	if view.Empty || view.Address != "ltc1qxyz" || view.Type != "LTC" {
		t.Fatalf("expected written slot back, got %+v", view)
	}
	if view.Plain() != "ltc1qxyz" {
		t.Fatalf("expected plain address for copy-paste, got %q", view.Plain())
	}
}

func TestWriteSlotOverwritesUnconditionally(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())
	ctx := context.Background()

	if err := registry.WriteSlot(ctx, "u1", domain.SlotTypeUPI, 2, SlotFields{Handle: "old@bank"}); err != nil {
		t.Fatalf("WriteSlot returned error: %v", err)
	}
	if err := registry.WriteSlot(ctx, "u1", domain.SlotTypeUPI, 2, SlotFields{Handle: "new@bank"}); err != nil {
		t.Fatalf("WriteSlot returned error: %v", err)
	}

	view, err := registry.DescribeSlot(ctx, "u1", domain.SlotTypeUPI, 2)
	if err != nil {
		t.Fatalf("DescribeSlot returned error: %v", err)
	}
	if view.Handle != "new@bank" {
		t.Fatalf("expected overwrite to win, got %q", view.Handle)
	}
}

func TestWriteSlotRejectsOutOfRangeIndex(t *testing.T) {
	repo := store.NewMemoryRepository()
	registry := NewSlotRegistry(repo)
	ctx := context.Background()

	for _, index := range []int{0, 6, -2} {
		err := registry.WriteSlot(ctx, "u1", domain.SlotTypeCrypto, index, SlotFields{Address: "addr", Type: "BTC"})
		if !errors.Is(err, domain.ErrInvalidSlotIndex) {
			t.Fatalf("WriteSlot(%d): expected ErrInvalidSlotIndex, got %v", index, err)
		}
	}

	profile, err := repo.GetPaymentProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPaymentProfile returned error: %v", err)
	}
	for i := domain.MinSlotIndex; i <= domain.MaxSlotIndex; i++ {
		if !profile.CryptoSlotAt(i).Empty() {
			t.Fatalf("rejected write mutated slot %d", i)
		}
	}
}

func TestWriteSlotRejectsPartialCryptoFields(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name   string
		fields SlotFields
	}{
		{"missing type", SlotFields{Address: "addr"}},
		{"missing address", SlotFields{Type: "BTC"}},
		{"whitespace only", SlotFields{Address: "  ", Type: "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.WriteSlot(ctx, "u1", domain.SlotTypeCrypto, 1, tt.fields)
			if !errors.Is(err, domain.ErrEmptySlotFields) {
				t.Fatalf("expected ErrEmptySlotFields, got %v", err)
			}
		})
	}

	if err := registry.WriteSlot(ctx, "u1", domain.SlotTypeUPI, 1, SlotFields{Handle: " "}); !errors.Is(err, domain.ErrEmptySlotFields) {
		t.Fatalf("expected ErrEmptySlotFields for blank handle, got %v", err)
	}
}

func TestClearSlotLeavesEmptySentinel(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())
	ctx := context.Background()

	if err := registry.WriteSlot(ctx, "u1", domain.SlotTypeCrypto, 4, SlotFields{Address: "addr", Type: "USDT"}); err != nil {
		t.Fatalf("WriteSlot returned error: %v", err)
	}
	if err := registry.ClearSlot(ctx, "u1", domain.SlotTypeCrypto, 4); err != nil {
		t.Fatalf("ClearSlot returned error: %v", err)
	}

	view, err := registry.DescribeSlot(ctx, "u1", domain.SlotTypeCrypto, 4)
	if err != nil {
		t.Fatalf("DescribeSlot returned error: %v", err)
	}
	if !view.Empty {
		t.Fatalf("expected cleared slot to read empty, got %+v", view)
	}
	if view.Plain() != domain.EmptySlotSentinel {
		t.Fatalf("expected %q sentinel, got %q", domain.EmptySlotSentinel, view.Plain())
	}

	// Clearing an already-empty slot is still a success.
	if err := registry.ClearSlot(ctx, "u1", domain.SlotTypeCrypto, 4); err != nil {
		t.Fatalf("ClearSlot on empty slot returned error: %v", err)
	}
}

func TestDescribeSlotNeverFailsForUnknownUser(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())

	view, err := registry.DescribeSlot(context.Background(), "never-saved", domain.SlotTypeUPI, 5)
	if err != nil {
		t.Fatalf("DescribeSlot returned error: %v", err)
	}
	if !view.Empty || view.Plain() != domain.EmptySlotSentinel {
		t.Fatalf("expected empty sentinel view, got %+v", view)
	}
}

func TestSlotOperationsRejectUnknownType(t *testing.T) {
	registry := NewSlotRegistry(store.NewMemoryRepository())
	ctx := context.Background()

	if err := registry.WriteSlot(ctx, "u1", domain.SlotType("paypal"), 1, SlotFields{Handle: "x"}); !errors.Is(err, domain.ErrUnknownSlotType) {
		t.Fatalf("WriteSlot: expected ErrUnknownSlotType, got %v", err)
	}
	if err := registry.ClearSlot(ctx, "u1", domain.SlotType("paypal"), 1); !errors.Is(err, domain.ErrUnknownSlotType) {
		t.Fatalf("ClearSlot: expected ErrUnknownSlotType, got %v", err)
	}
	if _, err := registry.DescribeSlot(ctx, "u1", domain.SlotType("paypal"), 1); !errors.Is(err, domain.ErrUnknownSlotType) {
		t.Fatalf("DescribeSlot: expected ErrUnknownSlotType, got %v", err)
	}
}
