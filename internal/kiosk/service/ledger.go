package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/store"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

// Ledger records granted admissions: at most one event per client per
// calendar day.  A second grant on the same day is a re-entry and returns
// the morning's event unchanged.
type Ledger struct {
	store store.AttendanceStore
	now   func() time.Time
}

func NewLedger(st store.AttendanceStore) *Ledger {
	return &Ledger{store: st, now: time.Now}
}

// TodayEntry returns the client's event for the current local day, or nil.
func (l *Ledger) TodayEntry(ctx context.Context, clientID string) (*types.AttendanceEvent, error) {
	ev, err := l.store.FindOnDay(ctx, clientID, types.DayOf(l.now()))
	if err != nil {
		return nil, fmt.Errorf("today entry for %s: %w", clientID, err)
	}
	return ev, nil
}

// Record writes the client's admission for today, or returns the existing
// event on re-entry.  The store's (client, day) uniqueness constraint makes
// this safe against a concurrent first write from another kiosk: the loser
// of that race gets the winner's event back.
func (l *Ledger) Record(ctx context.Context, clientID string, src types.ScanSource) (types.AttendanceEvent, bool, error) {
	now := l.now()
	ev, inserted, err := l.store.InsertDay(ctx, types.AttendanceEvent{
		ClientID:   clientID,
		RecordedAt: now,
		Day:        types.DayOf(now),
		Source:     src,
	})
	if err != nil {
		return types.AttendanceEvent{}, false, fmt.Errorf("record admission for %s: %w", clientID, err)
	}
	return ev, inserted, nil
}
