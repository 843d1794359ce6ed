package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmarchetti/scanventory/internal/metrics"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// Presenter states. A session always starts at Ready and terminal states are
// never persisted; restarting the component restarts at Ready.
type State string

const (
	StateReady    State = "ready"
	StateScanning State = "scanning"
	StateSuccess  State = "success"
	StateNotFound State = "not_found"
	StateError    State = "error"
)

// Session modes. Count sessions apply +1 per scan (stocktaking); sale
// sessions add the scanned product to a cart and defer the decrement to
// checkout.
type Mode string

const (
	ModeCount Mode = "count"
	ModeSale  Mode = "sale"
)

var (
	ErrSessionClosed    = errors.New("scan session is closed")
	ErrConflictingState = errors.New("action not valid in current session state")
)

// Snapshot is a point-in-time copy of the presenter state, safe to hand to
// encoders after the session lock is released.
type Snapshot struct {
	ID        string          `json:"id"`
	Mode      Mode            `json:"mode"`
	CartID    string          `json:"cart_id,omitempty"`
	State     State           `json:"state"`
	Code      string          `json:"code,omitempty"`
	Product   *models.Product `json:"product,omitempty"`
	Message   string          `json:"message,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Session is one scanner lifecycle: debouncer, resolver/mutator round trip
// and presenter state, processed strictly one committed scan at a time.
//
// The debouncer lock is the only concurrency control: while a scan is in
// flight no second decode commits, so there is never an out-of-order
// completion to reconcile. The generation counter handles the other race:
// a settle or timer that arrives after Retry, Resume or Close finds a newer
// generation and is discarded instead of mutating a state it no longer owns.
type Session struct {
	id     string
	mode   Mode
	cartID string

	debouncer *Debouncer
	resolver  *Resolver
	mutator   *Mutator
	carts     repo.CartRepository
	sink      Sink
	clk       clock

	successDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	code      string
	product   *models.Product
	message   string
	updatedAt time.Time
	gen       uint64
	timer     stoppable
	closed    bool
}

// Decode is the single entry point for decoder callbacks. Non-committing
// decodes (locked, cooldown, repeated code) return the current snapshot
// untouched; a committing decode runs the full resolve/mutate round trip and
// returns the settled snapshot.
func (s *Session) Decode(code string) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.state != StateReady && s.state != StateScanning {
		// Terminal states never accept decodes; the debouncer is locked
		// anyway, but don't even consult it.
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if !s.debouncer.Offer(code) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	metrics.ScansCommitted.WithLabelValues(string(s.mode)).Inc()
	s.setStateLocked(StateScanning, code, nil, "")
	gen := s.gen
	ctx := s.ctx
	s.mu.Unlock()

	s.process(ctx, gen, code)
	return s.Snapshot(), nil
}

// Fail short-circuits the presenter to Error, e.g. when the client reports
// camera-permission-denied or camera-unavailable at decoder init.
func (s *Session) Fail(message string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	s.setStateLocked(StateError, s.code, nil, message)
	return s.snapshotLocked(), nil
}

// Retry re-arms the debouncer after an Error and returns to Ready. The
// camera handle is client-side state; nothing to re-initialize here.
func (s *Session) Retry() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	if s.state != StateError {
		return s.snapshotLocked(), ErrConflictingState
	}
	s.debouncer.Unlock()
	s.setStateLocked(StateReady, "", nil, "")
	return s.snapshotLocked(), nil
}

// Resume returns from NotFound to Ready once the product-creation flow has
// completed or been cancelled. The decoder is re-initialized client-side, so
// the cooldown floor is dropped as well.
func (s *Session) Resume() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	if s.state != StateNotFound {
		return s.snapshotLocked(), ErrConflictingState
	}
	s.debouncer.Reset()
	s.setStateLocked(StateReady, "", nil, "")
	return s.snapshotLocked(), nil
}

// Close tears the session down on every exit path. The in-flight round trip,
// if any, is cancelled and its eventual settlement discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.cancel()
}

// Snapshot returns a copy of the current presenter state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Mode:      s.mode,
		CartID:    s.cartID,
		State:     s.state,
		Code:      s.code,
		Message:   s.message,
		UpdatedAt: s.updatedAt,
	}
	if s.product != nil {
		p := *s.product
		snap.Product = &p
	}
	return snap
}

// setStateLocked is the only place presenter state changes. It bumps the
// generation, cancels any pending auto-return timer and publishes the
// transition.
func (s *Session) setStateLocked(state State, code string, product *models.Product, message string) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = state
	s.code = code
	s.product = product
	s.message = message
	s.updatedAt = s.clk.Now()
	s.gen++

	s.sink.PublishSessionEvent(s.id, Event{
		SessionID: s.id,
		State:     state,
		Code:      code,
		Product:   product,
		Message:   message,
		At:        s.updatedAt,
	})
}

func (s *Session) process(ctx context.Context, gen uint64, code string) {
	product, err := s.resolver.Resolve(ctx, code)
	if errors.Is(err, repo.ErrProductNotFound) {
		s.settle(gen, StateNotFound, code, nil, "no product for barcode "+code)
		return
	}
	if err != nil {
		s.settle(gen, StateError, code, nil, "barcode lookup failed")
		return
	}

	switch s.mode {
	case ModeSale:
		s.processSale(gen, code, product)
	default:
		s.processCount(ctx, gen, code, product)
	}
}

func (s *Session) processCount(ctx context.Context, gen uint64, code string, product models.Product) {
	updated, err := s.mutator.Increment(ctx, product.ID)
	if err != nil {
		s.settle(gen, StateError, code, nil, "could not update stock")
		return
	}

	s.sink.AppendScanHistory(models.ScanEvent{
		Barcode:     code,
		ProductID:   updated.ID,
		ProductName: updated.Name,
		StockBefore: updated.Quantity - 1,
		StockAfter:  updated.Quantity,
		ScannedAt:   s.clk.Now(),
	})
	s.settle(gen, StateSuccess, code, &updated, "")
}

// processSale adds one unit to the cart, bounded by the stock at scan time.
// The decrement itself happens at checkout.
func (s *Session) processSale(gen uint64, code string, product models.Product) {
	cart, err := s.carts.Get(s.cartID)
	if err != nil {
		s.settle(gen, StateError, code, nil, "could not load cart")
		return
	}

	idx := -1
	inCart := 0
	for i, item := range cart.Items {
		if item.ProductID == product.ID {
			idx = i
			inCart = item.Quantity
			break
		}
	}

	if inCart+1 > product.Quantity {
		s.settle(gen, StateError, code, nil,
			fmt.Sprintf("insufficient stock: %d available", product.Quantity))
		return
	}

	if idx >= 0 {
		cart.Items[idx].Quantity++
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}
	cart.UpdatedAt = s.clk.Now()

	if err := s.carts.Save(cart); err != nil {
		s.settle(gen, StateError, code, nil, "could not save cart")
		return
	}

	s.sink.AppendScanHistory(models.ScanEvent{
		Barcode:     code,
		ProductID:   product.ID,
		ProductName: product.Name,
		StockBefore: product.Quantity,
		StockAfter:  product.Quantity,
		ScannedAt:   s.clk.Now(),
	})
	s.settle(gen, StateSuccess, code, &product, "")
}

// settle applies a terminal outcome unless the session has moved on since
// the scan committed. Success schedules the auto-return to Ready; Error and
// NotFound keep the debouncer locked until Retry or Resume.
func (s *Session) settle(gen uint64, state State, code string, product *models.Product, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.gen != gen {
		return
	}

	metrics.ScanOutcomes.WithLabelValues(string(s.mode), string(state)).Inc()
	s.setStateLocked(state, code, product, message)

	if state == StateSuccess {
		g := s.gen
		s.timer = s.clk.AfterFunc(s.successDelay, func() { s.finishSuccess(g) })
	}
}

// finishSuccess is the timer path back to Ready after the success display
// delay; it also unlocks the debouncer.
func (s *Session) finishSuccess(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.gen != gen || s.state != StateSuccess {
		return
	}
	s.debouncer.Unlock()
	s.setStateLocked(StateReady, "", nil, "")
}
