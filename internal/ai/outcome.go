package ai

// Status is the terminal state of one feature call. Every call resolves
// to exactly one of these, which drives the usage record and metrics, so
// failure causes stay observable instead of disappearing into a catch-all.
type Status string

const (
	StatusSuccess  Status = "success"  // valid AI output returned
	StatusDegraded Status = "degraded" // heuristic substitute returned
	StatusDenied   Status = "denied"   // quota or preference stopped the call
	StatusFailed   Status = "failed"   // no output could be produced
)

// Outcome records how a call ended and why.
type Outcome struct {
	Status Status
	Reason string // empty for success
}

func Success() Outcome                 { return Outcome{Status: StatusSuccess} }
func Degraded(reason string) Outcome   { return Outcome{Status: StatusDegraded, Reason: reason} }
func Denied(reason string) Outcome     { return Outcome{Status: StatusDenied, Reason: reason} }
func FailedWith(reason string) Outcome { return Outcome{Status: StatusFailed, Reason: reason} }
