package vespa

// Mode is the deployment target.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

// ModeOf returns the target selected by cfg.
func ModeOf(cfg DeployConfig) Mode {
	if cfg.IsLocalMode() {
		return ModeLocal
	}
	return ModeCloud
}

// AttemptState is the state of one top-level deploy call.
//
//	Attempting ──ok──────────────────────────▶ Succeeded
//	     │ cluster removal, confirmed
//	     ▼
//	AttemptingWithOverride ──ok──────────────▶ Succeeded
//	     │ any error
//	     ▼
//	  Failed
//
// Attempting moves to Denied when the override is refused and to Failed on
// any other error.
type AttemptState int

const (
	Attempting AttemptState = iota
	AttemptingWithOverride
	Succeeded
	Denied
	Failed
)

func (s AttemptState) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case AttemptingWithOverride:
		return "attempting-with-override"
	case Succeeded:
		return "succeeded"
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt follows.
func (s AttemptState) Terminal() bool {
	return s == Succeeded || s == Denied || s == Failed
}

// CanOverride reports whether a cluster-removal refusal may still be
// answered with an override. Only the first attempt can.
func (s AttemptState) CanOverride() bool {
	return s == Attempting
}

// Outcome is the result of one deploy attempt as seen by the state machine.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeClusterRemoval
	OutcomeError
)

// ClassifyOutcome maps an attempt error to an Outcome.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case IsClusterRemoval(err.Error()):
		return OutcomeClusterRemoval
	default:
		return OutcomeError
	}
}

// Next returns the state following s given the attempt outcome and, for a
// cluster-removal refusal, whether the override was confirmed.
func (s AttemptState) Next(o Outcome, confirmed bool) AttemptState {
	if s.Terminal() {
		return s
	}
	switch o {
	case OutcomeOK:
		return Succeeded
	case OutcomeClusterRemoval:
		if !s.CanOverride() {
			return Failed
		}
		if confirmed {
			return AttemptingWithOverride
		}
		return Denied
	default:
		return Failed
	}
}
