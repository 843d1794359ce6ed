package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/scanventory/internal/repo"
)

// DefaultSuccessDelay is the canonical success display delay before the
// presenter auto-returns to Ready, applied uniformly to every session.
const DefaultSuccessDelay = 1200 * time.Millisecond

// Manager owns the live scan sessions. At most one scanner is active per
// camera client, but the manager itself allows any number of independent
// sessions.
type Manager struct {
	products  repo.ProductRepository
	movements repo.MovementRepository
	carts     repo.CartRepository
	sink      Sink

	cooldown     time.Duration
	successDelay time.Duration
	clk          clock

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(
	products repo.ProductRepository,
	movements repo.MovementRepository,
	carts repo.CartRepository,
	sink Sink,
	cooldown, successDelay time.Duration,
) *Manager {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if successDelay <= 0 {
		successDelay = DefaultSuccessDelay
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Manager{
		products:     products,
		movements:    movements,
		carts:        carts,
		sink:         sink,
		cooldown:     cooldown,
		successDelay: successDelay,
		clk:          realClock{},
		sessions:     make(map[string]*Session),
	}
}

// Create opens a new session in the given mode. Sale sessions must reference
// an existing cart.
func (m *Manager) Create(mode Mode, cartID string) (*Session, error) {
	switch mode {
	case ModeCount, ModeSale:
	default:
		return nil, fmt.Errorf("unknown scan mode %q", mode)
	}

	if mode == ModeSale {
		if cartID == "" {
			return nil, fmt.Errorf("sale session requires a cart id")
		}
		if _, err := m.carts.Get(cartID); err != nil {
			return nil, fmt.Errorf("cart lookup failed: %w", err)
		}
	} else {
		cartID = ""
	}

	deb := NewDebouncer(m.cooldown)
	deb.now = m.clk.Now

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:           uuid.NewString(),
		mode:         mode,
		cartID:       cartID,
		debouncer:    deb,
		resolver:     NewResolver(m.products),
		mutator:      NewMutator(m.products, m.movements),
		carts:        m.carts,
		sink:         m.sink,
		clk:          m.clk,
		successDelay: m.successDelay,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateReady,
		updatedAt:    m.clk.Now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down a session and forgets it.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll tears down every live session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
