/**
 * @description
 * This file contains the HTTP handlers for the exchange service's API
 * endpoints. Handlers parse incoming requests, call the appropriate core
 * component (slot registry, rate table, settlement engine), and translate
 * domain errors into HTTP rejections the gateway renders as chat replies.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Core logic and errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/app"
	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
)

// ExchangeHandlers holds the core components the handlers dispatch into.
type ExchangeHandlers struct {
	registry *app.SlotRegistry
	rates    *app.RateTable
	engine   *app.Engine
}

// NewExchangeHandlers creates a new instance of ExchangeHandlers.
func NewExchangeHandlers(registry *app.SlotRegistry, rates *app.RateTable, engine *app.Engine) *ExchangeHandlers {
	return &ExchangeHandlers{registry: registry, rates: rates, engine: engine}
}

type writeSlotRequest struct {
	Address string `json:"address,omitempty"`
	Type    string `json:"type,omitempty"`
	Handle  string `json:"handle,omitempty"`
}

type convertRequest struct {
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

type setRateRequest struct {
	Value decimal.Decimal `json:"value"`
}

type beginSettlementRequest struct {
	SubjectUser  string          `json:"subject_user"`
	Amount       decimal.Decimal `json:"amount"`
	ExchangeType string          `json:"exchange_type"`
}

type beginSettlementResponse struct {
	Session domain.SettlementSession `json:"session"`
	Prompt  string                   `json:"prompt"`
}

type confirmSettlementResponse struct {
	Session domain.SettlementSession  `json:"session"`
	Totals  domain.LedgerTotals       `json:"totals"`
	Events  []settlementEventResponse `json:"events"`
}

type settlementEventResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type adjustLedgerRequest struct {
	DeltaAmount decimal.Decimal `json:"delta_amount"`
	DeltaDeals  int64           `json:"delta_deals"`
}

// slotTarget resolves which user's profile a slot mutation applies to. Users
// mutate their own slots; an admin may act on another user's behalf through
// the legacy manage-slot path by passing ?user_id=.
func (h *ExchangeHandlers) slotTarget(r *http.Request) (string, bool) {
	actor, ok := ActorID(r.Context())
	if !ok {
		return "", false
	}
	if target := strings.TrimSpace(r.URL.Query().Get("user_id")); target != "" && target != actor {
		if !IsAdmin(r.Context()) {
			return "", false
		}
		return target, true
	}
	return actor, true
}

func slotParams(r *http.Request) (domain.SlotType, int, error) {
	slotType, err := domain.ParseSlotType(chi.URLParam(r, "slotType"))
	if err != nil {
		return "", 0, err
	}
	slotIndex, err := strconv.Atoi(chi.URLParam(r, "slotIndex"))
	if err != nil {
		return "", 0, domain.ErrInvalidSlotIndex
	}
	return slotType, slotIndex, nil
}

// WriteSlotHandler handles registry.write for the actor's own profile.
func (h *ExchangeHandlers) WriteSlotHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := h.slotTarget(r)
	if !ok {
		h.writeError(w, http.StatusForbidden, "Only administrators may manage another user's slots")
		return
	}
	slotType, slotIndex, err := slotParams(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req writeSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.registry.WriteSlot(r.Context(), target, slotType, slotIndex, app.SlotFields{
		Address: req.Address,
		Type:    req.Type,
		Handle:  req.Handle,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    target,
		"slot_type":  slotType,
		"slot_index": slotIndex,
		"message":    "Slot updated.",
	})
}

// ClearSlotHandler handles registry.clear.
func (h *ExchangeHandlers) ClearSlotHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := h.slotTarget(r)
	if !ok {
		h.writeError(w, http.StatusForbidden, "Only administrators may manage another user's slots")
		return
	}
	slotType, slotIndex, err := slotParams(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.registry.ClearSlot(r.Context(), target, slotType, slotIndex); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    target,
		"slot_type":  slotType,
		"slot_index": slotIndex,
		"message":    "Slot deleted.",
	})
}

// ReadSlotHandler handles registry.read. Any authenticated caller may read any
// user's slot by identifier; the receiving-method command works this way.
func (h *ExchangeHandlers) ReadSlotHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	slotType, slotIndex, err := slotParams(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	view, err := h.registry.DescribeSlot(r.Context(), userID, slotType, slotIndex)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"slot":  view,
		"plain": view.Plain(),
	})
}

// RatesHandler returns the current rate snapshot.
func (h *ExchangeHandlers) RatesHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.rates.Snapshot())
}

// ConvertHandler handles rates.convert for both directions.
func (h *ExchangeHandlers) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	direction, err := domain.ParseConversionDirection(req.Direction)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	conversion, err := h.rates.Convert(direction, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, conversion)
}

// SetRateHandler handles rates.set. Admin capability required.
func (h *ExchangeHandlers) SetRateHandler(w http.ResponseWriter, r *http.Request) {
	if !IsAdmin(r.Context()) {
		h.writeError(w, http.StatusForbidden, "Only admins can change rates")
		return
	}
	kind, err := domain.ParseRateKind(chi.URLParam(r, "rateKind"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req setRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.rates.Set(kind, req.Value); err != nil {
		h.writeDomainError(w, err)
		return
	}

	actor, _ := ActorID(r.Context())
	log.Printf("level=info component=api msg=\"rate updated\" kind=%s value=%s actor=%s", kind, req.Value.String(), actor)
	h.writeJSON(w, http.StatusOK, h.rates.Snapshot())
}

// BeginSettlementHandler handles settlement.begin. The actor becomes the
// session operator; admin capability required.
func (h *ExchangeHandlers) BeginSettlementHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get actor ID from context")
		return
	}
	if !IsAdmin(r.Context()) {
		h.writeError(w, http.StatusForbidden, "Only operators can record settlements")
		return
	}

	var req beginSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.SubjectUser) == "" {
		h.writeError(w, http.StatusBadRequest, "subject_user is required")
		return
	}

	session, prompt, err := h.engine.Begin(r.Context(), actor, req.SubjectUser, req.Amount, req.ExchangeType)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, beginSettlementResponse{Session: session, Prompt: prompt})
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "sessionID"))
}

// ConfirmSettlementHandler handles settlement.confirm.
func (h *ExchangeHandlers) ConfirmSettlementHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get actor ID from context")
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	totals, events, err := h.engine.Confirm(r.Context(), sessionID, actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	session, _ := h.engine.Session(sessionID)

	eventViews := make([]settlementEventResponse, 0, len(events))
	for _, event := range events {
		eventViews = append(eventViews, settlementEventResponse{Kind: string(event.Kind), Message: event.Message})
	}
	h.writeJSON(w, http.StatusOK, confirmSettlementResponse{Session: session, Totals: totals, Events: eventViews})
}

// CancelSettlementHandler handles settlement.cancel.
func (h *ExchangeHandlers) CancelSettlementHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get actor ID from context")
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.engine.Cancel(r.Context(), sessionID, actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"message": "Settlement cancelled.",
	})
}

// LedgerHandler handles ledger.read for any known user identifier.
func (h *ExchangeHandlers) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	totals, err := h.engine.Totals(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// AdjustLedgerHandler handles ledger.adjust. Admin capability required; deltas
// are applied verbatim with no floor.
func (h *ExchangeHandlers) AdjustLedgerHandler(w http.ResponseWriter, r *http.Request) {
	if !IsAdmin(r.Context()) {
		h.writeError(w, http.StatusForbidden, "Only admins can adjust ledgers")
		return
	}

	var req adjustLedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	totals, err := h.engine.Adjust(r.Context(), chi.URLParam(r, "userID"), req.DeltaAmount, req.DeltaDeals)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

func (h *ExchangeHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *ExchangeHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the caller-error taxonomy onto HTTP statuses. Every
// one of these is recovered by the gateway into a user-visible rejection.
func (h *ExchangeHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSlotIndex),
		errors.Is(err, domain.ErrEmptySlotFields),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrUnknownSlotType),
		errors.Is(err, domain.ErrUnknownRateKind),
		errors.Is(err, domain.ErrUnknownDirection):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionAlreadyResolved):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		log.Printf("level=error component=api msg=\"store unavailable\" err=%v", err)
		h.writeError(w, http.StatusServiceUnavailable, "Storage is temporarily unavailable")
	default:
		log.Printf("level=error component=api msg=\"unhandled error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
