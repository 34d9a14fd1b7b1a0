package overlay_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitaccess/kiosk/internal/kiosk/overlay"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

func granted() types.Decision {
	return types.Decision{Outcome: types.Granted, WeeklyCount: 2}
}

func denied(reason types.DenialReason) types.Decision {
	return types.Decision{Outcome: types.Denied, Reason: reason}
}

func TestShow_Granted(t *testing.T) {
	s := overlay.New(50 * time.Millisecond)
	defer s.Stop()

	s.Show(granted())

	snap := s.Snapshot()
	assert.Equal(t, types.OverlayGranted, snap.State)
	assert.Empty(t, snap.Reason)
	assert.Equal(t, 2, snap.WeeklyCount)
	assert.False(t, snap.ExpiresAt.IsZero())
}

func TestShow_DeniedCarriesReason(t *testing.T) {
	s := overlay.New(50 * time.Millisecond)
	defer s.Stop()

	s.Show(denied(types.ReasonExpired))

	snap := s.Snapshot()
	assert.Equal(t, types.OverlayDenied, snap.State)
	assert.Equal(t, types.ReasonExpired, snap.Reason)
}

func TestAutoDismiss_ReturnsToIdle(t *testing.T) {
	s := overlay.New(30 * time.Millisecond)
	defer s.Stop()

	s.Show(granted())

	assert.Eventually(t, func() bool {
		return s.Snapshot().State == types.OverlayIdle
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Empty(t, snap.Reason)
	assert.True(t, snap.ExpiresAt.IsZero())
}

// A new decision mid-display replaces the overlay and restarts the dismiss
// window from that point.
func TestShow_NewDecisionRestartsWindow(t *testing.T) {
	s := overlay.New(60 * time.Millisecond)
	defer s.Stop()

	s.Show(granted())
	time.Sleep(40 * time.Millisecond)

	s.Show(denied(types.ReasonSuspended))

	// Past the first decision's deadline, but inside the second's window.
	time.Sleep(40 * time.Millisecond)
	snap := s.Snapshot()
	require.Equal(t, types.OverlayDenied, snap.State, "first timer must not dismiss the second overlay")

	assert.Eventually(t, func() bool {
		return s.Snapshot().State == types.OverlayIdle
	}, time.Second, 5*time.Millisecond)
}

func TestOnChange_SeesShowAndDismiss(t *testing.T) {
	s := overlay.New(30 * time.Millisecond)
	defer s.Stop()

	var mu sync.Mutex
	var states []types.OverlayState
	s.OnChange(func(snap overlay.Snapshot) {
		mu.Lock()
		states = append(states, snap.State)
		mu.Unlock()
	})

	s.Show(granted())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []types.OverlayState{types.OverlayGranted, types.OverlayIdle}, states)
}

func TestStop_CancelsPendingDismiss(t *testing.T) {
	s := overlay.New(20 * time.Millisecond)

	s.Show(granted())
	s.Stop()

	assert.Equal(t, types.OverlayIdle, s.Snapshot().State)

	// The scheduler still works after Stop.
	s.Show(denied(types.ReasonWeeklyLimit))
	assert.Equal(t, types.OverlayDenied, s.Snapshot().State)
	assert.Eventually(t, func() bool {
		return s.Snapshot().State == types.OverlayIdle
	}, time.Second, 5*time.Millisecond)
	s.Stop()
}
