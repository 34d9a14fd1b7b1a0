package types

import "time"

// ScanSource tags where a credential came from.
type ScanSource string

const (
	SourceCode   ScanSource = "code"      // camera/scanner decode
	SourceManual ScanSource = "manual-id" // typed at the kiosk
)

// AttendanceEvent is one recorded admission.  At most one event exists per
// (ClientID, Day); a second scan on the same day is a re-entry and reuses
// the existing event.
type AttendanceEvent struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"client_id"`
	RecordedAt time.Time  `json:"recorded_at"`
	Day        string     `json:"day"` // local calendar day, "2006-01-02"
	Source     ScanSource `json:"source"`
}

// DayOf formats a moment as the store's calendar-day key, in the moment's
// own location.
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
