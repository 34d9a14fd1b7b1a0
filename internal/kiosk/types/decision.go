package types

import "time"

type Outcome string

const (
	Granted Outcome = "granted"
	Denied  Outcome = "denied"
)

// DenialReason classifies why entry was refused.  DuplicateCredential is a
// security fault (one code resolving to several clients), not a normal
// business denial.
type DenialReason string

const (
	ReasonExpired             DenialReason = "expired"
	ReasonSuspended           DenialReason = "suspended"
	ReasonNoMembership        DenialReason = "no_membership"
	ReasonWeeklyLimit         DenialReason = "weekly_limit"
	ReasonUnknownCredential   DenialReason = "unknown_credential"
	ReasonDuplicateCredential DenialReason = "duplicate_credential"
)

// Decision is the outcome of evaluating one scan.  It is consumed
// immediately by the ledger, actuator and overlay, then discarded.
type Decision struct {
	Outcome       Outcome           `json:"outcome"`
	Reason        DenialReason      `json:"reason,omitempty"`
	Record        *MembershipRecord `json:"record,omitempty"`
	WeeklyCount   int               `json:"weekly_count"`
	AttendedToday bool              `json:"attended_today"`
	DecidedAt     time.Time         `json:"decided_at"`
}

func (d Decision) IsGranted() bool { return d.Outcome == Granted }
