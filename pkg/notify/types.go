// Package notify dispatches incident notifications over the two channels
// §4.7 defines: a chat webhook and email. Both fail open — a delivery
// failure is logged and reported to the caller, never propagated as a
// reason to abort the tick, per §4.8 step 9.
package notify

// Incident is the subset of an analysed incident the notifier formats
// into chat and email payloads.
type Incident struct {
	Title       string
	Severity    string
	Confidence  float64
	Summary     string
	RootCause   string
	BlastRadius string
	WindowStart string
	WindowEnd   string
	UserID      string
}

// Result reports whether a channel's send succeeded, for the worker to
// log without aborting the run.
type Result struct {
	Channel string
	Err     error
}

// Ok reports whether the send succeeded.
func (r Result) Ok() bool { return r.Err == nil }
