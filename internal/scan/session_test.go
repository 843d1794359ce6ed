package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

type recordSink struct {
	mu      sync.Mutex
	history []models.ScanEvent
	events  []Event
}

func (s *recordSink) AppendScanHistory(e models.ScanEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
}

func (s *recordSink) PublishSessionEvent(_ string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := payload.(Event); ok {
		s.events = append(s.events, e)
	}
}

func (s *recordSink) historyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

type testEnv struct {
	clk       *fakeClock
	products  *repo.InMemoryProductRepository
	movements *repo.InMemoryMovementRepository
	carts     *repo.InMemoryCartRepository
	sink      *recordSink
	manager   *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clk:       newFakeClock(),
		products:  repo.NewInMemoryProductRepository(),
		movements: repo.NewInMemoryMovementRepository(),
		carts:     repo.NewInMemoryCartRepository(),
		sink:      &recordSink{},
	}
	env.manager = NewManager(env.products, env.movements, env.carts, env.sink,
		500*time.Millisecond, 1200*time.Millisecond)
	env.manager.clk = env.clk
	return env
}

func (env *testEnv) addProduct(t *testing.T, barcode string, quantity int) models.Product {
	t.Helper()
	p, err := env.products.Create(models.Product{
		SKU:      "SKU-" + barcode,
		Barcode:  &barcode,
		Name:     "Product " + barcode,
		Price:    9.90,
		Quantity: quantity,
	})
	if err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return p
}

func TestCountScanIncrementsOncePerBurst(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "X", 5)

	s, err := env.manager.Create(ModeCount, "")
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	snap, err := s.Decode("X")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != StateSuccess {
		t.Fatalf("expected success, got %s (%s)", snap.State, snap.Message)
	}
	if snap.Product == nil || snap.Product.Quantity != 6 {
		t.Fatalf("expected quantity 6, got %+v", snap.Product)
	}

	// Same code again inside the cooldown window: dropped, no second
	// increment.
	clk := env.clk
	clk.Advance(100 * time.Millisecond)
	snap, _ = s.Decode("X")
	if snap.State != StateSuccess {
		t.Fatalf("expected state unchanged, got %s", snap.State)
	}

	p, _ := env.products.GetByBarcode(context.Background(), "X")
	if p.Quantity != 6 {
		t.Errorf("expected exactly one increment, quantity is %d", p.Quantity)
	}
	if got := env.sink.historyLen(); got != 1 {
		t.Errorf("expected 1 history entry, got %d", got)
	}
}

func TestCountScanAutoReturnsToReady(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "X", 0)

	s, _ := env.manager.Create(ModeCount, "")
	snap, _ := s.Decode("X")
	if snap.State != StateSuccess {
		t.Fatalf("expected success, got %s", snap.State)
	}

	env.clk.Advance(1199 * time.Millisecond)
	if got := s.Snapshot().State; got != StateSuccess {
		t.Fatalf("returned to ready before the display delay, state %s", got)
	}

	env.clk.Advance(1 * time.Millisecond)
	if got := s.Snapshot().State; got != StateReady {
		t.Fatalf("expected ready after display delay, got %s", got)
	}

	// Debouncer is unlocked and lastCode cleared: the same item scans again.
	snap, _ = s.Decode("X")
	if snap.State != StateSuccess {
		t.Fatalf("expected second scan to commit, got %s", snap.State)
	}
	p, _ := env.products.GetByBarcode(context.Background(), "X")
	if p.Quantity != 2 {
		t.Errorf("expected quantity 2 after two scans, got %d", p.Quantity)
	}
}

func TestUnknownBarcodeSuspendsUntilResume(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.manager.Create(ModeCount, "")

	snap, _ := s.Decode("GHOST")
	if snap.State != StateNotFound {
		t.Fatalf("expected not_found, got %s", snap.State)
	}
	if !strings.Contains(snap.Message, "GHOST") {
		t.Errorf("message should carry the barcode for the creation form pre-fill, got %q", snap.Message)
	}

	// The session is suspended; further decodes do not commit.
	env.clk.Advance(time.Second)
	snap, _ = s.Decode("OTHER")
	if snap.State != StateNotFound {
		t.Fatalf("decode accepted while suspended, state %s", snap.State)
	}

	if _, err := s.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := s.Snapshot().State; got != StateReady {
		t.Fatalf("expected ready after resume, got %s", got)
	}

	// Resume re-initializes the scanner: no cooldown floor remains.
	env.addProduct(t, "OTHER", 1)
	snap, _ = s.Decode("OTHER")
	if snap.State != StateSuccess {
		t.Fatalf("expected commit right after resume, got %s (%s)", snap.State, snap.Message)
	}
}

// failingProductRepo simulates a transient store failure on barcode lookups.
type failingProductRepo struct {
	*repo.InMemoryProductRepository
	mu   sync.Mutex
	fail bool
}

func (f *failingProductRepo) GetByBarcode(ctx context.Context, code string) (models.Product, error) {
	f.mu.Lock()
	failing := f.fail
	f.mu.Unlock()
	if failing {
		return models.Product{}, fmt.Errorf("connection refused")
	}
	return f.InMemoryProductRepository.GetByBarcode(ctx, code)
}

func (f *failingProductRepo) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func TestTransientLookupFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	failing := &failingProductRepo{InMemoryProductRepository: env.products, fail: true}
	env.manager.products = failing

	env.addProduct(t, "X", 3)
	s, _ := env.manager.Create(ModeCount, "")

	snap, _ := s.Decode("X")
	if snap.State != StateError {
		t.Fatalf("expected error, got %s", snap.State)
	}

	// A transient failure must not be presented as not_found; the retry
	// action re-arms the debouncer immediately.
	failing.setFail(false)
	if _, err := s.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := s.Snapshot().State; got != StateReady {
		t.Fatalf("expected ready after retry, got %s", got)
	}

	env.clk.Advance(time.Second)
	snap, _ = s.Decode("X")
	if snap.State != StateSuccess {
		t.Fatalf("expected success after retry, got %s (%s)", snap.State, snap.Message)
	}
}

func TestRetryOnlyValidFromError(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.manager.Create(ModeCount, "")

	if _, err := s.Retry(); !errors.Is(err, ErrConflictingState) {
		t.Errorf("expected ErrConflictingState, got %v", err)
	}
}

func TestCameraFailureShortCircuitsToError(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.manager.Create(ModeCount, "")

	snap, err := s.Fail("camera permission denied")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if snap.State != StateError || snap.Message != "camera permission denied" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if _, err := s.Retry(); err != nil {
		t.Fatalf("retry after camera failure: %v", err)
	}
	if got := s.Snapshot().State; got != StateReady {
		t.Fatalf("expected ready, got %s", got)
	}
}

func TestSaleScanBoundsCartByStock(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "X", 2)

	cart := models.Cart{ID: "cart-1", CreatedAt: env.clk.Now()}
	if err := env.carts.Save(cart); err != nil {
		t.Fatalf("saving cart: %v", err)
	}

	s, err := env.manager.Create(ModeSale, "cart-1")
	if err != nil {
		t.Fatalf("creating sale session: %v", err)
	}

	scanOnce := func() Snapshot {
		snap, _ := s.Decode("X")
		env.clk.Advance(2 * time.Second) // let the presenter return to ready
		return snap
	}

	if snap := scanOnce(); snap.State != StateSuccess {
		t.Fatalf("first sale scan: %s (%s)", snap.State, snap.Message)
	}
	if snap := scanOnce(); snap.State != StateSuccess {
		t.Fatalf("second sale scan: %s (%s)", snap.State, snap.Message)
	}

	// Third unit exceeds the stock at scan time.
	snap := scanOnce()
	if snap.State != StateError {
		t.Fatalf("expected error beyond available stock, got %s", snap.State)
	}
	if !strings.Contains(snap.Message, "2 available") {
		t.Errorf("message should report available stock, got %q", snap.Message)
	}

	got, _ := env.carts.Get("cart-1")
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart contents %+v", got.Items)
	}

	// Sale scans never touch stock; the decrement happens at checkout.
	current, _ := env.products.GetByID(p.ID)
	if current.Quantity != 2 {
		t.Errorf("stock changed during sale scan: %d", current.Quantity)
	}
}

// blockingProductRepo parks barcode lookups until the context is cancelled,
// simulating an in-flight round trip at teardown time.
type blockingProductRepo struct {
	*repo.InMemoryProductRepository
	entered chan struct{}
}

func (b *blockingProductRepo) GetByBarcode(ctx context.Context, code string) (models.Product, error) {
	close(b.entered)
	<-ctx.Done()
	return models.Product{}, ctx.Err()
}

func TestCloseAbandonsInFlightScan(t *testing.T) {
	env := newTestEnv(t)
	blocking := &blockingProductRepo{
		InMemoryProductRepository: env.products,
		entered:                   make(chan struct{}),
	}
	env.manager.products = blocking

	s, _ := env.manager.Create(ModeCount, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Decode("X")
	}()

	<-blocking.entered
	s.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("decode did not return after close")
	}

	// The late settlement was discarded: no error transition was published
	// after teardown.
	env.sink.mu.Lock()
	for _, e := range env.sink.events {
		if e.State == StateError {
			t.Errorf("late settlement mutated a closed session: %+v", e)
		}
	}
	env.sink.mu.Unlock()

	if _, err := s.Decode("X"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestManagerSaleSessionRequiresCart(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.manager.Create(ModeSale, ""); err == nil {
		t.Error("expected error for sale session without cart")
	}
	if _, err := env.manager.Create(ModeSale, "missing"); err == nil {
		t.Error("expected error for sale session with unknown cart")
	}
	if _, err := env.manager.Create("bogus", ""); err == nil {
		t.Error("expected error for unknown mode")
	}
}
