package collector

import (
	"errors"
	"fmt"
)

// Tier decides whether a failed step ends the run.
type Tier int

const (
	TierFatal Tier = iota
	TierDegraded
)

func (t Tier) String() string {
	switch t {
	case TierFatal:
		return "fatal"
	case TierDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

type Step string

const (
	StepLaunch   Step = "launch"
	StepLogin    Step = "login"
	StepNavigate Step = "navigate"
	StepDiscover Step = "discover"
	StepCapture  Step = "capture"
	StepPersist  Step = "persist"
	StepSink     Step = "sink"
)

type StepError struct {
	Step Step
	Tier Tier
	URL  string
	Err  error
}

func (e *StepError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s step (%s) failed for %s: %v", e.Step, e.Tier, e.URL, e.Err)
	}
	return fmt.Sprintf("%s step (%s) failed: %v", e.Step, e.Tier, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func fatal(step Step, err error) *StepError {
	return &StepError{Step: step, Tier: TierFatal, Err: err}
}

func degraded(step Step, url string, err error) *StepError {
	return &StepError{Step: step, Tier: TierDegraded, URL: url, Err: err}
}

// IsFatal reports whether err carries a fatal StepError.
func IsFatal(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr) && stepErr.Tier == TierFatal
}
