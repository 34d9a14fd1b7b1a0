package types

import (
	"strings"
	"time"
)

// MembershipState is the normalized client state.  The remote
// membership-record store reports Spanish values ("activa", "suspendida",
// "vencida"); anything unrecognized maps to StateOther.
type MembershipState string

const (
	StateActive    MembershipState = "active"
	StateSuspended MembershipState = "suspended"
	StateExpired   MembershipState = "expired"
	StateOther     MembershipState = "other"
)

func ParseMembershipState(raw string) MembershipState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "activa", "activo", "active":
		return StateActive
	case "suspendida", "suspendido", "suspended":
		return StateSuspended
	case "vencida", "vencido", "expired":
		return StateExpired
	default:
		return StateOther
	}
}

// Modality is the membership access pattern.  Only ModalityAlternate is
// quota-limited; the empty string means the plan carries no modality.
type Modality string

const (
	ModalityDaily        Modality = "daily"
	ModalityAlternate    Modality = "alternate-day"
	ModalityUnrestricted Modality = "unrestricted"
)

func ParseModality(raw string) Modality {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "diario", "daily":
		return ModalityDaily
	case "dia_alterno", "día_alterno", "alterno", "alternate-day":
		return ModalityAlternate
	case "libre", "ilimitado", "unrestricted":
		return ModalityUnrestricted
	default:
		return ""
	}
}

// MembershipRecord is one client row resolved from a credential code.
// PlanID is nil when the client has no membership plan at all; EndDate is
// nil when the store has no end date on file (treated as expired).
type MembershipRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	State    MembershipState `json:"state"`
	EndDate  *time.Time      `json:"end_date,omitempty"`
	PlanID   *string         `json:"plan_id,omitempty"`
	PlanName string          `json:"plan_name,omitempty"`
	Modality Modality        `json:"modality,omitempty"`
	Code     string          `json:"code"`
}
