// Package timeutil computes the wall-clock window boundaries and
// correlation identifiers the batch pipeline aligns its ticks to.
package timeutil

import (
	"fmt"
	"time"
)

// civilLayout is the format used for session ids: minute precision, no
// separators.
const civilLayout = "200601021504"

// Layout is the human-readable format used when persisting window boundaries
// as strings (the ledger guard keys off these, not the raw instant),
// suffixed with the zone abbreviation.
const Layout = "2006-01-02 15:04:05 MST"

// FloorToInterval returns t, converted into loc, with seconds and
// sub-second precision zeroed and the minute snapped down to the nearest
// multiple of intervalMinutes.
func FloorToInterval(t time.Time, intervalMinutes int, loc *time.Location) time.Time {
	t = t.In(loc)
	flooredMinute := (t.Minute() / intervalMinutes) * intervalMinutes
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), flooredMinute, 0, 0, loc)
}

// Window is a half-open civil-time interval [Start, End) whose length is
// the configured batch interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window containing t, aligned to intervalMinutes in loc.
func NewWindow(t time.Time, intervalMinutes int, loc *time.Location) Window {
	start := FloorToInterval(t, intervalMinutes, loc)
	return Window{
		Start: start,
		End:   start.Add(time.Duration(intervalMinutes) * time.Minute),
	}
}

// StartString formats Start for persistence (ledger guard key component).
func (w Window) StartString() string {
	return w.Start.Format(Layout)
}

// EndString formats End for persistence (ledger guard key component).
func (w Window) EndString() string {
	return w.End.Format(Layout)
}

// SessionID is a pure function of (window, prefix, user_id): identical
// inputs always produce a byte-identical id. It is the cross-record
// correlation key shared by the batch snapshot, incident, anomalies, RCA,
// and ledger entry of a single tick.
func SessionID(w Window, prefix, userID string) string {
	return fmt.Sprintf("%s:%s-%s_user_%s",
		prefix,
		w.Start.Format(civilLayout),
		w.End.Format(civilLayout),
		userID,
	)
}

// NextBucketStart returns the start of the first window strictly after the
// window containing now — the point a worker should wake at for its next
// tick, per §4.8's "sleeps until the next aligned bucket start" scheduling
// rule.
func NextBucketStart(now time.Time, intervalMinutes int, loc *time.Location) time.Time {
	current := NewWindow(now, intervalMinutes, loc)
	return current.End
}
