/**
 * @description
 * This file contains the settlement confirmation workflow engine. An operator
 * opens a session against a subject user's ledger; the session sits in PENDING
 * until the same operator confirms or cancels it, or the countdown timer
 * expires it. Exactly one terminal transition happens per session, and the
 * ledger is mutated at most once — on confirm, atomically with the transition.
 *
 * Key properties:
 * - The terminal transition and the effect it guards run under the session
 *   lock, so a timer fire can never race a confirm/cancel into a double
 *   resolution or a double ledger write.
 * - A failed ledger write leaves the session PENDING; the operator can retry
 *   until the window runs out.
 * - Notification delivery is best-effort: publish failures are logged and
 *   never roll back a settlement.
 *
 * @dependencies
 * - context, fmt, log, sync, time: Standard Go libraries.
 * - github.com/google/uuid: Session handles.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: The notification sink.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
	"github.com/TanishThakur77/Gameclub-Bot/pkg/rabbitmq"
)

const expiryPublishTimeout = 5 * time.Second

// EngineOptions carries the engine's fixed settings.
type EngineOptions struct {
	// ConfirmWindow is how long a session stays confirmable.
	ConfirmWindow time.Duration
	// VouchChannelRef, InviteURL and FeedbackChannelRef are rendered into the
	// post-confirmation notice sequence.
	VouchChannelRef    string
	InviteURL          string
	FeedbackChannelRef string
}

type session struct {
	mu    sync.Mutex
	data  domain.SettlementSession
	timer *time.Timer
}

// Engine orchestrates settlement confirmation sessions. Session state is held
// privately per session; only the terminal transition touches the shared
// ledger store. Pending sessions do not survive a process restart.
type Engine struct {
	repo     store.Repository
	producer rabbitmq.Publisher
	opts     EngineOptions

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewEngine creates a new workflow engine instance.
func NewEngine(repo store.Repository, producer rabbitmq.Publisher, opts EngineOptions) *Engine {
	if opts.ConfirmWindow <= 0 {
		opts.ConfirmWindow = 30 * time.Second
	}
	return &Engine{
		repo:     repo,
		producer: producer,
		opts:     opts,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Begin opens a PENDING session and starts its countdown. It returns the
// session snapshot and the confirmation prompt the gateway displays next to
// the confirm/cancel buttons.
func (e *Engine) Begin(ctx context.Context, operator, subjectUser string, amount decimal.Decimal, exchangeType string) (domain.SettlementSession, string, error) {
	_ = ctx
	if amount.IsNegative() {
		return domain.SettlementSession{}, "", domain.ErrInvalidAmount
	}

	now := time.Now()
	data := domain.SettlementSession{
		ID:           uuid.New(),
		Operator:     operator,
		SubjectUser:  subjectUser,
		Amount:       amount,
		ExchangeType: exchangeType,
		State:        domain.SessionPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(e.opts.ConfirmWindow),
	}
	s := &session{data: data}

	e.mu.Lock()
	e.sessions[data.ID] = s
	e.mu.Unlock()

	// The timer fire path takes the same session lock as confirm/cancel, so a
	// late resolution can never slip past an expiry.
	s.timer = time.AfterFunc(e.opts.ConfirmWindow, func() { e.expire(data.ID) })

	prompt := fmt.Sprintf(
		"Record %s settlement of %s for %s? Press Confirm within %d seconds to apply it to the ledger.",
		exchangeType, amount.String(), subjectUser, int(e.opts.ConfirmWindow.Seconds()),
	)
	log.Printf("level=info component=settlement msg=\"session opened\" session_id=%s operator=%s subject=%s amount=%s type=%s",
		data.ID, operator, subjectUser, amount.String(), exchangeType)
	return data, prompt, nil
}

// Confirm applies the settlement. Only the opening operator may confirm, and
// only while the session is PENDING; on success the ledger gains exactly one
// settlement and the notice sequence is published.
func (e *Engine) Confirm(ctx context.Context, sessionID uuid.UUID, actor string) (domain.LedgerTotals, []rabbitmq.SettlementEvent, error) {
	s := e.lookup(sessionID)
	if s == nil {
		return domain.LedgerTotals{}, nil, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if actor != s.data.Operator {
		s.mu.Unlock()
		return domain.LedgerTotals{}, nil, domain.ErrUnauthorized
	}
	if s.data.State != domain.SessionPending {
		s.mu.Unlock()
		return domain.LedgerTotals{}, nil, domain.ErrSessionAlreadyResolved
	}

	// The ledger write happens under the session lock: the CONFIRMED
	// transition and the mutation it guards are atomic with respect to the
	// timer and any concurrent confirm/cancel. On failure the session stays
	// PENDING and the previous ledger value is intact.
	totals, err := e.repo.ApplySettlement(ctx, s.data.SubjectUser, s.data.Amount)
	if err != nil {
		s.mu.Unlock()
		return domain.LedgerTotals{}, nil, fmt.Errorf("settlement apply: %w", err)
	}

	now := time.Now()
	s.data.State = domain.SessionConfirmed
	s.data.ResolvedAt = &now
	if s.timer != nil {
		s.timer.Stop()
	}
	snapshot := s.data
	s.mu.Unlock()

	events := e.confirmationEvents(snapshot, totals)
	e.emit(ctx, events)

	log.Printf("level=info component=settlement msg=\"session confirmed\" session_id=%s subject=%s total=%s deals=%d",
		snapshot.ID, snapshot.SubjectUser, totals.TotalAmount.String(), totals.DealCount)
	return totals, events, nil
}

// Cancel resolves the session without touching the ledger. Same authorization
// rule as Confirm.
func (e *Engine) Cancel(ctx context.Context, sessionID uuid.UUID, actor string) (domain.SettlementSession, error) {
	s := e.lookup(sessionID)
	if s == nil {
		return domain.SettlementSession{}, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if actor != s.data.Operator {
		s.mu.Unlock()
		return domain.SettlementSession{}, domain.ErrUnauthorized
	}
	if s.data.State != domain.SessionPending {
		s.mu.Unlock()
		return domain.SettlementSession{}, domain.ErrSessionAlreadyResolved
	}

	now := time.Now()
	s.data.State = domain.SessionCancelled
	s.data.ResolvedAt = &now
	if s.timer != nil {
		s.timer.Stop()
	}
	snapshot := s.data
	s.mu.Unlock()

	e.emit(ctx, []rabbitmq.SettlementEvent{e.event(rabbitmq.EventSettlementCancelled, snapshot,
		fmt.Sprintf("Settlement for %s was cancelled by the operator.", snapshot.SubjectUser))})

	log.Printf("level=info component=settlement msg=\"session cancelled\" session_id=%s operator=%s", snapshot.ID, actor)
	return snapshot, nil
}

// Session returns a snapshot of one session for display.
func (e *Engine) Session(sessionID uuid.UUID) (domain.SettlementSession, bool) {
	s := e.lookup(sessionID)
	if s == nil {
		return domain.SettlementSession{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, true
}

// Totals reads a user's ledger aggregate, zero-valued when absent.
func (e *Engine) Totals(ctx context.Context, userID string) (domain.LedgerTotals, error) {
	totals, err := e.repo.GetLedger(ctx, userID)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("ledger read: %w", err)
	}
	return totals, nil
}

// Adjust applies the administrative correction path: signed deltas, no
// implicit deal-count increment, no floor.
func (e *Engine) Adjust(ctx context.Context, userID string, deltaAmount decimal.Decimal, deltaDeals int64) (domain.LedgerTotals, error) {
	totals, err := e.repo.AdjustLedger(ctx, userID, deltaAmount, deltaDeals)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("ledger adjust: %w", err)
	}
	log.Printf("level=info component=settlement msg=\"ledger adjusted\" subject=%s delta_amount=%s delta_deals=%d total=%s deals=%d",
		userID, deltaAmount.String(), deltaDeals, totals.TotalAmount.String(), totals.DealCount)
	return totals, nil
}

// SweepResolved drops terminal sessions that resolved before the retention
// window. Pending sessions are never swept; their timers own their lifecycle.
// Returns the number of sessions removed.
func (e *Engine) SweepResolved(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for id, s := range e.sessions {
		s.mu.Lock()
		expired := s.data.State.Terminal() && s.data.ResolvedAt != nil && s.data.ResolvedAt.Before(cutoff)
		s.mu.Unlock()
		if expired {
			delete(e.sessions, id)
			removed++
		}
	}
	return removed
}

// Stop halts every pending session timer. Used on shutdown; sessions that were
// still pending are lost by design.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sessions {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}
}

func (e *Engine) lookup(sessionID uuid.UUID) *session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[sessionID]
}

// expire is the timer fire path. It needs no actor, mutates no ledger, and is
// a no-op when a confirm or cancel already won the race for the lock.
func (e *Engine) expire(sessionID uuid.UUID) {
	s := e.lookup(sessionID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.data.State != domain.SessionPending {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.data.State = domain.SessionExpired
	s.data.ResolvedAt = &now
	snapshot := s.data
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expiryPublishTimeout)
	defer cancel()
	e.emit(ctx, []rabbitmq.SettlementEvent{e.event(rabbitmq.EventSettlementExpired, snapshot,
		fmt.Sprintf("Settlement for %s timed out without confirmation.", snapshot.SubjectUser))})

	log.Printf("level=info component=settlement msg=\"session expired\" session_id=%s subject=%s", snapshot.ID, snapshot.SubjectUser)
}

// confirmationEvents builds the confirmation record followed by the notice
// sequence the gateway relays into chat.
func (e *Engine) confirmationEvents(sess domain.SettlementSession, totals domain.LedgerTotals) []rabbitmq.SettlementEvent {
	return []rabbitmq.SettlementEvent{
		e.event(rabbitmq.EventSettlementConfirmed, sess,
			fmt.Sprintf("Exchange confirmed: %s (%s) added to %s's ledger. Lifetime total %s across %d deals.",
				sess.Amount.String(), sess.ExchangeType, sess.SubjectUser, totals.TotalAmount.String(), totals.DealCount)),
		e.event(rabbitmq.EventThankYouNotice, sess,
			fmt.Sprintf("Thanks for exchanging with us, %s!", sess.SubjectUser)),
		e.event(rabbitmq.EventVouchCopyReminder, sess,
			fmt.Sprintf("Please drop a vouch copy in %s.", e.opts.VouchChannelRef)),
		e.event(rabbitmq.EventInviteReference, sess,
			fmt.Sprintf("Know someone who trades? Invite them: %s", e.opts.InviteURL)),
		e.event(rabbitmq.EventFeedbackRequest, sess,
			fmt.Sprintf("Tell us how it went in %s.", e.opts.FeedbackChannelRef)),
	}
}

func (e *Engine) event(kind rabbitmq.SettlementEventKind, sess domain.SettlementSession, message string) rabbitmq.SettlementEvent {
	return rabbitmq.SettlementEvent{
		Kind:         kind,
		SessionID:    sess.ID,
		SubjectUser:  sess.SubjectUser,
		Operator:     sess.Operator,
		Amount:       sess.Amount.String(),
		ExchangeType: sess.ExchangeType,
		Message:      message,
		Timestamp:    time.Now(),
	}
}

// emit publishes each event and logs failures. Delivery is not retried and
// never affects the state transition that produced the events.
func (e *Engine) emit(ctx context.Context, events []rabbitmq.SettlementEvent) {
	if e.producer == nil {
		return
	}
	for _, event := range events {
		if err := e.producer.PublishSettlementEvent(ctx, event); err != nil {
			log.Printf("level=error component=settlement msg=\"notification delivery failed\" kind=%s session_id=%s err=%v",
				event.Kind, event.SessionID, err)
		}
	}
}
