package scan

import (
	"sync"
	"time"
)

// DefaultCooldown is the floor between two committed scans. A camera decoder
// fires many times per second while a code is in frame; the cooldown protects
// the resolver and mutator from that burst.
const DefaultCooldown = 500 * time.Millisecond

// Debouncer decides which decode callbacks become committed scans. A decode
// commits only when no prior scan is in flight, the cooldown since the last
// commit has elapsed, and the code differs from the last committed one.
//
// lastCode is compared but never reset by further decodes; only Unlock or
// Reset clears it. That is what keeps a code sitting in frame from
// re-committing dozens of times per second.
type Debouncer struct {
	cooldown time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastCode   string
	lastCommit time.Time
	locked     bool
}

func NewDebouncer(cooldown time.Duration) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{cooldown: cooldown, now: time.Now}
}

// Offer reports whether code becomes a committed scan. On commit the
// debouncer locks itself; no further decode commits until Unlock or Reset.
func (d *Debouncer) Offer(code string) bool {
	if code == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.locked {
		return false
	}
	now := d.now()
	if !d.lastCommit.IsZero() && now.Sub(d.lastCommit) < d.cooldown {
		// Hard floor: a different code inside the cooldown is dropped too.
		return false
	}
	if code == d.lastCode {
		return false
	}

	d.locked = true
	d.lastCommit = now
	d.lastCode = code
	return true
}

// Unlock re-arms the debouncer after a scan settles. It clears lastCode so
// the same item can be scanned again once the cooldown elapses.
func (d *Debouncer) Unlock() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
	d.lastCode = ""
}

// Reset returns the debouncer to its initial state, dropping the cooldown
// floor as well. Used when the scanner is re-initialized.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
	d.lastCode = ""
	d.lastCommit = time.Time{}
}

// Locked reports whether a committed scan is still in flight.
func (d *Debouncer) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}
