// Package engine holds the admission decision rules.  Decide is a pure
// function over a resolved lookup result: it performs no I/O, so every
// precedence rule is directly table-testable.
package engine

import (
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

// DefaultWeeklyLimit is the distinct-day cap for alternate-day memberships.
const DefaultWeeklyLimit = 3

// Input is everything a decision depends on.  Records carries all matches
// for the scanned code (zero, one or many); multiplicity itself is part of
// the decision.  WeeklyCount and AttendedToday are only populated when
// exactly one record matched.
type Input struct {
	Records       []types.MembershipRecord
	WeeklyCount   int
	AttendedToday bool
}

type Engine struct {
	WeeklyLimit int
	Now         func() time.Time
}

func New(weeklyLimit int) *Engine {
	if weeklyLimit <= 0 {
		weeklyLimit = DefaultWeeklyLimit
	}
	return &Engine{WeeklyLimit: weeklyLimit, Now: time.Now}
}

// Decide classifies a lookup result.  Rules are evaluated in order, first
// match wins: security faults (duplicate code) and identity faults
// (unknown code) short-circuit before any business-state evaluation;
// expiry and suspension come before quota, which is meaningless on an
// invalid membership; the already-attended-today escape hatch is checked
// before the hard quota denial so a returning same-day visitor is never
// blocked mid-day.
func (e *Engine) Decide(in Input) types.Decision {
	now := e.Now()
	d := types.Decision{
		WeeklyCount:   in.WeeklyCount,
		AttendedToday: in.AttendedToday,
		DecidedAt:     now,
	}

	if len(in.Records) > 1 {
		return deny(d, types.ReasonDuplicateCredential)
	}
	if len(in.Records) == 0 {
		return deny(d, types.ReasonUnknownCredential)
	}

	rec := in.Records[0]
	d.Record = &rec

	if rec.PlanID == nil {
		return deny(d, types.ReasonNoMembership)
	}

	// A membership with no end date on file counts as expired; one ending
	// today stays valid through the whole day.
	if rec.EndDate == nil || rec.EndDate.Before(endOfDay(now)) {
		return deny(d, types.ReasonExpired)
	}

	if rec.State == types.StateSuspended {
		return deny(d, types.ReasonSuspended)
	}
	// Any other non-active state is reported under the suspended category
	// so the operator sees a single "membership on hold" bucket.
	if rec.State != types.StateActive {
		return deny(d, types.ReasonSuspended)
	}

	if rec.Modality == types.ModalityAlternate &&
		!in.AttendedToday &&
		in.WeeklyCount >= e.WeeklyLimit {
		return deny(d, types.ReasonWeeklyLimit)
	}

	d.Outcome = types.Granted
	return d
}

func deny(d types.Decision, reason types.DenialReason) types.Decision {
	d.Outcome = types.Denied
	d.Reason = reason
	return d
}

// endOfDay is 23:59:59 in now's location.
func endOfDay(now time.Time) time.Time {
	y, m, day := now.Date()
	return time.Date(y, m, day, 23, 59, 59, 0, now.Location())
}
