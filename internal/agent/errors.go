// internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"
)

// Failure reasons reported back to the model inside an ActionOutcome. These
// are never surfaced to the caller as Go errors.
const (
	FailureUnsupportedAction = "UNSUPPORTED_ACTION"
	FailureGeneric           = "SOMETHING WENT WRONG"
	FailureNavigateNeedsURL  = "navigate requires url"
)

// Reason classifies an orchestration failure.
type Reason string

const (
	ReasonBudgetExceeded Reason = "budget_exceeded"
	ReasonInvalidVerdict Reason = "invalid_verdict"
	ReasonModelFailure   Reason = "model_failure"
	ReasonBrowserFailure Reason = "browser_failure"
	ReasonCanceled       Reason = "canceled"
	ReasonBadInstruction Reason = "bad_instruction"
)

// -- Sentinels --

var (
	// ErrOrchestration matches every *OrchestrationError.
	ErrOrchestration = errors.New("agent orchestration failed")

	ErrBudgetExceeded = errors.New("turn budget exhausted without a verdict")
	ErrInvalidVerdict = errors.New("finishTest payload is invalid")
	ErrModelFailure   = errors.New("model call failed")
	ErrBrowserFailure = errors.New("browser capability failed")
	ErrCanceled       = errors.New("session canceled")
	ErrBadInstruction = errors.New("instruction cannot be rendered")
)

var reasonSentinels = map[Reason]error{
	ReasonBudgetExceeded: ErrBudgetExceeded,
	ReasonInvalidVerdict: ErrInvalidVerdict,
	ReasonModelFailure:   ErrModelFailure,
	ReasonBrowserFailure: ErrBrowserFailure,
	ReasonCanceled:       ErrCanceled,
	ReasonBadInstruction: ErrBadInstruction,
}

// OrchestrationError is a fatal failure of the agent loop itself, as opposed
// to a failing test. It matches ErrOrchestration and the sentinel for its
// Reason via errors.Is, and unwraps to the underlying cause.
type OrchestrationError struct {
	Reason    Reason
	SessionID string
	Turns     int
	Err       error
}

func newOrchestrationError(reason Reason, sessionID string, turns int, err error) *OrchestrationError {
	return &OrchestrationError{Reason: reason, SessionID: sessionID, Turns: turns, Err: err}
}

func (e *OrchestrationError) Error() string {
	msg := fmt.Sprintf("agent session %s aborted after %d turn(s): %s", e.SessionID, e.Turns, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrOrchestration or the sentinel of e.Reason.
func (e *OrchestrationError) Is(target error) bool {
	if target == ErrOrchestration {
		return true
	}
	if sentinel, ok := reasonSentinels[e.Reason]; ok && sentinel == target {
		return true
	}
	return false
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}

// failureReason turns a browser error into the string fed back to the model.
func failureReason(err error) string {
	if err == nil || err.Error() == "" {
		return FailureGeneric
	}
	return err.Error()
}
