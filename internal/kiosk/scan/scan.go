package scan

import (
	"strings"
	"sync"
	"time"
)

// DefaultWindow suppresses a repeated identical credential for 3 seconds:
// long enough to swallow a barcode held in front of the camera, short
// enough that a genuine re-scan still works.
const DefaultWindow = 3 * time.Second

// Normalizer cleans raw credential input and debounces repeats.  The
// "last accepted" slot is a single piece of shared state guarded by a
// mutex, so concurrent input sources (camera callbacks, manual submit)
// debounce against each other.
type Normalizer struct {
	mu       sync.Mutex
	window   time.Duration
	lastCode string
	lastAt   time.Time
}

func New(window time.Duration) *Normalizer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Normalizer{window: window}
}

// Accept trims raw input and reports whether it should trigger a decision.
// Empty input and repeats inside the debounce window are silently dropped.
// On acceptance the shared slot is updated to (code, at).
func (n *Normalizer) Accept(raw string, at time.Time) (string, bool) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if code == n.lastCode && at.Sub(n.lastAt) < n.window {
		return "", false
	}

	n.lastCode = code
	n.lastAt = at
	return code, true
}

// Reset clears the debounce slot, as if no credential had been accepted.
func (n *Normalizer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastCode = ""
	n.lastAt = time.Time{}
}
