// Package overlay drives the timed visual feedback shown at the door.
package overlay

import (
	"sync"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

// DefaultTTL is how long a granted/denied overlay stays up before
// auto-dismissing back to idle.
const DefaultTTL = 3 * time.Second

// Snapshot is the overlay state at one moment, for the UI and the status
// endpoint.
type Snapshot struct {
	State       types.OverlayState `json:"state"`
	Reason      types.DenialReason `json:"reason,omitempty"`
	WeeklyCount int                `json:"weekly_count"`
	ExpiresAt   time.Time          `json:"expires_at,omitzero"`
}

// Scheduler owns the single live OverlayState.  Each Show cancels the
// pending dismiss timer and arms a fresh one, so at most one timer is ever
// live and a new decision immediately replaces whatever is showing.
type Scheduler struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	state     types.OverlayState
	reason    types.DenialReason
	count     int
	expiresAt time.Time
	timer     *time.Timer
	gen       uint64
	onChange  func(Snapshot)
}

func New(ttl time.Duration) *Scheduler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Scheduler{
		ttl:   ttl,
		now:   time.Now,
		state: types.OverlayIdle,
	}
}

// OnChange registers a hook invoked (outside the lock) on every state
// change.  Set it before the first Show; the UI event loop subscribes here.
func (s *Scheduler) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Show replaces the overlay with the decision's feedback and restarts the
// auto-dismiss window from now.
func (s *Scheduler) Show(d types.Decision) {
	s.mu.Lock()

	if s.timer != nil {
		s.timer.Stop()
	}

	if d.IsGranted() {
		s.state = types.OverlayGranted
		s.reason = ""
	} else {
		s.state = types.OverlayDenied
		s.reason = d.Reason
	}
	s.count = d.WeeklyCount
	s.expiresAt = s.now().Add(s.ttl)

	// The generation guards against a stopped timer that had already
	// fired and is waiting on the lock.
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.ttl, func() { s.dismiss(gen) })

	snap := s.snapshotLocked()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Snapshot returns the current overlay state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Stop cancels any pending dismiss and resets the overlay to idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Scheduler) dismiss(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.resetLocked()

	snap := s.snapshotLocked()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

func (s *Scheduler) resetLocked() {
	s.state = types.OverlayIdle
	s.reason = ""
	s.count = 0
	s.expiresAt = time.Time{}
}

func (s *Scheduler) snapshotLocked() Snapshot {
	return Snapshot{
		State:       s.state,
		Reason:      s.reason,
		WeeklyCount: s.count,
		ExpiresAt:   s.expiresAt,
	}
}
