package quota

import "time"

// Window is a half-open local time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the Monday-anchored calendar week containing now, in
// now's location: Monday 00:00 up to (not including) the next Monday.
func WeekOf(now time.Time) Window {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	// Go weeks start on Sunday; shift so Monday is offset 0.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
