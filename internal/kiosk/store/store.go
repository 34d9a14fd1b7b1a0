// Package store defines the persistence surface the controller needs from
// the membership-record backend.  Production kiosks point at the remote
// Postgres store shared with the management system; a single standalone
// kiosk can run against the embedded SQLite store instead.
package store

import (
	"context"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

// MembershipStore resolves a credential code to client records.
type MembershipStore interface {
	// FindByCode returns every record whose credential matches the code;
	// zero, one or many.  Callers must never be handed an arbitrary single
	// row for an ambiguous code; multiplicity is part of the result.
	FindByCode(ctx context.Context, code string) ([]types.MembershipRecord, error)
}

// AttendanceStore persists admission events.  The (client, day) pair is
// unique at the store level, so concurrent kiosks cannot double-insert a
// first entry for the same day.
type AttendanceStore interface {
	// FindOnDay returns the client's event for the given calendar day, or
	// (nil, nil) when there is none.
	FindOnDay(ctx context.Context, clientID, day string) (*types.AttendanceEvent, error)

	// InsertDay records ev, relying on the (client, day) uniqueness
	// constraint.  When another writer got there first, the pre-existing
	// event is returned with inserted=false.
	InsertDay(ctx context.Context, ev types.AttendanceEvent) (out types.AttendanceEvent, inserted bool, err error)

	// CountDistinctDays is the aggregate weekly-quota query: the number of
	// distinct calendar days with an event in [from, to).
	CountDistinctDays(ctx context.Context, clientID string, from, to time.Time) (int, error)

	// ListDays returns the day key of every event in [from, to), one entry
	// per event, for local distinct counting when the aggregate query is
	// unavailable.
	ListDays(ctx context.Context, clientID string, from, to time.Time) ([]string, error)
}
