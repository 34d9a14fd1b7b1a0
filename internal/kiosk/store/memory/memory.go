// Package memory is an in-memory store implementation for tests, demos and
// dev kiosks that do not need persistence.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type Store struct {
	mu     sync.Mutex
	byCode map[string][]types.MembershipRecord
	events []types.AttendanceEvent
}

func New() *Store {
	return &Store{byCode: make(map[string][]types.MembershipRecord)}
}

// AddMembership registers a record under its credential code.  Adding a
// second record with the same code makes the code ambiguous, exactly as a
// duplicated credential in the real backend would.
func (s *Store) AddMembership(rec types.MembershipRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCode[rec.Code] = append(s.byCode[rec.Code], rec)
}

func (s *Store) FindByCode(_ context.Context, code string) ([]types.MembershipRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.byCode[code]
	out := make([]types.MembershipRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *Store) FindOnDay(_ context.Context, clientID, day string) (*types.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range s.events {
		if ev.ClientID == clientID && ev.Day == day {
			out := ev
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertDay(_ context.Context, ev types.AttendanceEvent) (types.AttendanceEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same (client, day) check the SQL stores get from their unique index.
	for _, existing := range s.events {
		if existing.ClientID == ev.ClientID && existing.Day == ev.Day {
			return existing, false, nil
		}
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.events = append(s.events, ev)
	return ev, true, nil
}

func (s *Store) CountDistinctDays(_ context.Context, clientID string, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := make(map[string]struct{})
	for _, ev := range s.events {
		if ev.ClientID == clientID && inRange(ev.RecordedAt, from, to) {
			days[ev.Day] = struct{}{}
		}
	}
	return len(days), nil
}

func (s *Store) ListDays(_ context.Context, clientID string, from, to time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, ev := range s.events {
		if ev.ClientID == clientID && inRange(ev.RecordedAt, from, to) {
			out = append(out, ev.Day)
		}
	}
	return out, nil
}

// Events returns a copy of all recorded events.  Test-only helper.
func (s *Store) Events() []types.AttendanceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AttendanceEvent, len(s.events))
	copy(out, s.events)
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
