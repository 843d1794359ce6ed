package scan

import (
	"time"

	"github.com/dmarchetti/scanventory/internal/models"
)

// Sink receives the best-effort side effects of a scan: the history strip and
// per-session event publishing. Implementations must never block a scan
// outcome on their own failures.
type Sink interface {
	AppendScanHistory(event models.ScanEvent)
	PublishSessionEvent(sessionID string, payload any)
}

// Event is published on every presenter transition. It is what a client
// turns into haptic feedback and toasts.
type Event struct {
	SessionID string          `json:"session_id"`
	State     State           `json:"state"`
	Code      string          `json:"code,omitempty"`
	Product   *models.Product `json:"product,omitempty"`
	Message   string          `json:"message,omitempty"`
	At        time.Time       `json:"at"`
}

// NopSink discards everything. Used when Redis is not configured and in
// tests that do not assert on side effects.
type NopSink struct{}

func (NopSink) AppendScanHistory(models.ScanEvent) {}
func (NopSink) PublishSessionEvent(string, any)    {}
