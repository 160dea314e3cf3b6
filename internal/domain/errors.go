/**
 * @description
 * Caller-error taxonomy shared by the core components. All of these represent
 * rejected requests that the chat gateway turns into a user-visible message;
 * none of them are fatal to the process. Store I/O failures are reported
 * separately as store.ErrStoreUnavailable.
 */

package domain

import "errors"

var (
	// ErrInvalidSlotIndex rejects slot indices outside [1,5] before any store
	// mutation is attempted.
	ErrInvalidSlotIndex = errors.New("slot index must be between 1 and 5")

	// ErrEmptySlotFields rejects a slot write whose required fields are blank.
	// The gateway's modal marks them required, so this only shows up for
	// callers bypassing the modal.
	ErrEmptySlotFields = errors.New("slot fields must not be empty")

	// ErrInvalidAmount rejects negative or non-finite amounts on conversions
	// and settlement creation.
	ErrInvalidAmount = errors.New("amount must be a non-negative number")

	// ErrInvalidRate rejects non-positive conversion rates on rates.set.
	ErrInvalidRate = errors.New("rate must be strictly positive")

	// ErrUnauthorized rejects confirm/cancel calls from anyone but the
	// operator who opened the session. The subject user never self-confirms.
	ErrUnauthorized = errors.New("actor is not the session operator")

	// ErrSessionAlreadyResolved rejects a transition on a session that has
	// already reached a terminal state.
	ErrSessionAlreadyResolved = errors.New("settlement session already resolved")

	// ErrSessionNotFound rejects operations on unknown session handles.
	ErrSessionNotFound = errors.New("settlement session not found")

	ErrUnknownSlotType  = errors.New("unknown slot type")
	ErrUnknownRateKind  = errors.New("unknown rate kind")
	ErrUnknownDirection = errors.New("unknown conversion direction")
)
