package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TanishThakur77/Gameclub-Bot/internal/domain"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
	"github.com/TanishThakur77/Gameclub-Bot/pkg/rabbitmq"
)

// recordingPublisher captures published events so tests can assert on the
// notice sequence without a broker.
type recordingPublisher struct {
	mu     sync.Mutex
	events []rabbitmq.SettlementEvent
}

func (p *recordingPublisher) PublishSettlementEvent(_ context.Context, event rabbitmq.SettlementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) kinds() []rabbitmq.SettlementEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]rabbitmq.SettlementEventKind, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

// flakyRepo fails ApplySettlement on demand, delegating everything else.
type flakyRepo struct {
	store.Repository
	mu   sync.Mutex
	fail bool
}

func (r *flakyRepo) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *flakyRepo) ApplySettlement(ctx context.Context, userID string, amount decimal.Decimal) (domain.LedgerTotals, error) {
	r.mu.Lock()
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return domain.LedgerTotals{}, store.ErrStoreUnavailable
	}
	return r.Repository.ApplySettlement(ctx, userID, amount)
}

func newTestEngine(repo store.Repository, window time.Duration) (*Engine, *recordingPublisher) {
	publisher := &recordingPublisher{}
	engine := NewEngine(repo, publisher, EngineOptions{
		ConfirmWindow:      window,
		VouchChannelRef:    "#vouches",
		InviteURL:          "https://chat.example/invite",
		FeedbackChannelRef: "#feedback",
	})
	return engine, publisher
}

func TestConfirmAppliesSettlementExactlyOnce(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, publisher := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	sess, prompt, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(50), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if sess.State != domain.SessionPending {
		t.Fatalf("expected pending session, got %s", sess.State)
	}
	if prompt == "" {
		t.Fatal("expected a confirmation prompt")
	}

	totals, events, err := engine.Confirm(ctx, sess.ID, "op")
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(50)) || totals.DealCount != 1 {
		t.Fatalf("expected totals 50/1, got %s/%d", totals.TotalAmount, totals.DealCount)
	}
	if len(events) != 5 {
		t.Fatalf("expected confirmation record plus four notices, got %d events", len(events))
	}

	// Second confirm resolves nothing and writes nothing.
	if _, _, err := engine.Confirm(ctx, sess.ID, "op"); !errors.Is(err, domain.ErrSessionAlreadyResolved) {
		t.Fatalf("expected ErrSessionAlreadyResolved, got %v", err)
	}
	totals, err = repo.GetLedger(ctx, "trader")
	if err != nil {
		t.Fatalf("GetLedger returned error: %v", err)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(50)) || totals.DealCount != 1 {
		t.Fatalf("duplicate confirm mutated ledger: %s/%d", totals.TotalAmount, totals.DealCount)
	}

	wantKinds := []rabbitmq.SettlementEventKind{
		rabbitmq.EventSettlementConfirmed,
		rabbitmq.EventThankYouNotice,
		rabbitmq.EventVouchCopyReminder,
		rabbitmq.EventInviteReference,
		rabbitmq.EventFeedbackRequest,
	}
	gotKinds := publisher.kinds()
	if len(gotKinds) != len(wantKinds) {
		t.Fatalf("expected %d published events, got %d", len(wantKinds), len(gotKinds))
	}
	for i, want := range wantKinds {
		if gotKinds[i] != want {
			t.Fatalf("event %d: expected kind %s, got %s", i, want, gotKinds[i])
		}
	}
}

func TestConfirmRequiresOpeningOperator(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, _ := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	sess, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(50), "c2i")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	// Neither a bystander nor the subject user can resolve the session.
	for _, actor := range []string{"bystander", "trader"} {
		if _, _, err := engine.Confirm(ctx, sess.ID, actor); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("Confirm as %q: expected ErrUnauthorized, got %v", actor, err)
		}
		if _, err := engine.Cancel(ctx, sess.ID, actor); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("Cancel as %q: expected ErrUnauthorized, got %v", actor, err)
		}
	}

	snapshot, ok := engine.Session(sess.ID)
	if !ok || snapshot.State != domain.SessionPending {
		t.Fatalf("unauthorized attempts changed session state: %+v", snapshot)
	}
	totals, err := repo.GetLedger(ctx, "trader")
	if err != nil {
		t.Fatalf("GetLedger returned error: %v", err)
	}
	if totals.DealCount != 0 {
		t.Fatalf("unauthorized attempts mutated ledger: %d deals", totals.DealCount)
	}
}

func TestCancelResolvesWithoutLedgerWrite(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, publisher := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	sess, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(50), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	cancelled, err := engine.Cancel(ctx, sess.ID, "op")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.State != domain.SessionCancelled || cancelled.ResolvedAt == nil {
		t.Fatalf("expected cancelled session, got %+v", cancelled)
	}

	totals, err := repo.GetLedger(ctx, "trader")
	if err != nil {
		t.Fatalf("GetLedger returned error: %v", err)
	}
	if !totals.TotalAmount.IsZero() || totals.DealCount != 0 {
		t.Fatalf("cancel mutated ledger: %s/%d", totals.TotalAmount, totals.DealCount)
	}

	// Confirm after cancel finds the session already resolved.
	if _, _, err := engine.Confirm(ctx, sess.ID, "op"); !errors.Is(err, domain.ErrSessionAlreadyResolved) {
		t.Fatalf("expected ErrSessionAlreadyResolved, got %v", err)
	}

	kinds := publisher.kinds()
	if len(kinds) != 1 || kinds[0] != rabbitmq.EventSettlementCancelled {
		t.Fatalf("expected a single cancellation event, got %v", kinds)
	}
}

func TestExpiryResolvesSessionWithoutLedgerWrite(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, publisher := newTestEngine(repo, 20*time.Millisecond)
	defer engine.Stop()
	ctx := context.Background()

	sess, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(50), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snapshot, ok := engine.Session(sess.ID)
		if !ok {
			t.Fatal("session disappeared before resolving")
		}
		if snapshot.State == domain.SessionExpired {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never expired, state %s", snapshot.State)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, _, err := engine.Confirm(ctx, sess.ID, "op"); !errors.Is(err, domain.ErrSessionAlreadyResolved) {
		t.Fatalf("expected ErrSessionAlreadyResolved after expiry, got %v", err)
	}

	totals, err := repo.GetLedger(ctx, "trader")
	if err != nil {
		t.Fatalf("GetLedger returned error: %v", err)
	}
	if totals.DealCount != 0 {
		t.Fatalf("expiry mutated ledger: %d deals", totals.DealCount)
	}

	kinds := publisher.kinds()
	if len(kinds) != 1 || kinds[0] != rabbitmq.EventSettlementExpired {
		t.Fatalf("expected a single expiry event, got %v", kinds)
	}
}

func TestConfirmStoreFailureLeavesSessionPending(t *testing.T) {
	repo := &flakyRepo{Repository: store.NewMemoryRepository()}
	engine, _ := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	sess, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(50), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	repo.setFail(true)
	if _, _, err := engine.Confirm(ctx, sess.ID, "op"); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	snapshot, ok := engine.Session(sess.ID)
	if !ok || snapshot.State != domain.SessionPending {
		t.Fatalf("failed ledger write resolved session: %+v", snapshot)
	}

	// The operator retries inside the window and it lands once.
	repo.setFail(false)
	totals, _, err := engine.Confirm(ctx, sess.ID, "op")
	if err != nil {
		t.Fatalf("retry Confirm returned error: %v", err)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(50)) || totals.DealCount != 1 {
		t.Fatalf("expected totals 50/1 after retry, got %s/%d", totals.TotalAmount, totals.DealCount)
	}
}

func TestBeginRejectsNegativeAmount(t *testing.T) {
	engine, _ := newTestEngine(store.NewMemoryRepository(), time.Minute)
	defer engine.Stop()

	if _, _, err := engine.Begin(context.Background(), "op", "trader", decimal.NewFromInt(-1), "i2c"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestConfirmUnknownSession(t *testing.T) {
	engine, _ := newTestEngine(store.NewMemoryRepository(), time.Minute)
	defer engine.Stop()

	if _, _, err := engine.Confirm(context.Background(), uuid.New(), "op"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAdjustAppliesSignedDeltas(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, _ := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	if _, err := repo.ApplySettlement(ctx, "trader", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("ApplySettlement returned error: %v", err)
	}

	totals, err := engine.Adjust(ctx, "trader", decimal.NewFromInt(-150), 0)
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected total -50 with no floor, got %s", totals.TotalAmount)
	}
	if totals.DealCount != 1 {
		t.Fatalf("adjust must not bump the deal count, got %d", totals.DealCount)
	}
}

func TestSweepResolvedDropsOnlyTerminalSessions(t *testing.T) {
	repo := store.NewMemoryRepository()
	engine, _ := newTestEngine(repo, time.Minute)
	defer engine.Stop()
	ctx := context.Background()

	resolved, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(10), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if _, err := engine.Cancel(ctx, resolved.ID, "op"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	pending, _, err := engine.Begin(ctx, "op", "trader", decimal.NewFromInt(20), "i2c")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if removed := engine.SweepResolved(0); removed != 1 {
		t.Fatalf("expected 1 session swept, got %d", removed)
	}

	if _, ok := engine.Session(resolved.ID); ok {
		t.Fatal("resolved session survived the sweep")
	}
	if _, ok := engine.Session(pending.ID); !ok {
		t.Fatal("pending session was swept")
	}
}
