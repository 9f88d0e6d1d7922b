package shared

import "fmt"

// OnboardingError is returned when a run stops before completing. Partial holds
// everything that had completed at the moment of failure, so a caller can tell
// whether to start over or resume from the failed step. RunID is the key to
// resume with.
type OnboardingError struct {
	RunID      string        `json:"runId,omitempty"`
	Step       string        `json:"step"`
	Message    string        `json:"message"`
	StatusCode int           `json:"statusCode,omitempty"`
	Partial    PartialResult `json:"partial"`

	cause error
}

// NewOnboardingError wraps cause with the failed step and a snapshot of partial.
func NewOnboardingError(step string, statusCode int, partial PartialResult, cause error) *OnboardingError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &OnboardingError{
		Step:       step,
		Message:    msg,
		StatusCode: statusCode,
		Partial:    partial.Snapshot(),
		cause:      cause,
	}
}

func (e *OnboardingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("onboarding failed at %s (status %d): %s", e.Step, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("onboarding failed at %s: %s", e.Step, e.Message)
}

func (e *OnboardingError) Unwrap() error {
	return e.cause
}

// AccountCreated reports whether the run got far enough to create an account.
// When false, a retry must start from scratch; otherwise it can resume.
func (e *OnboardingError) AccountCreated() bool {
	return e.Partial.CustomerID != ""
}
