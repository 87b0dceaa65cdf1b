// File: internal/agent/interfaces.go
package agent

import (
	"context"

	"github.com/xkilldash9x/vistest/api/schemas"
)

// ActionDispatcher validates and executes a single action request. The loop
// depends on this interface rather than on *Dispatcher so tests can stub it.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome
}

// URLResolver turns a possibly relative navigate target into an absolute URL.
type URLResolver func(raw string) (string, error)

// Recorder receives counters about dispatches and sessions. The observability
// package provides the Prometheus-backed implementation.
type Recorder interface {
	ActionDispatched(action, status string)
	TurnCompleted()
	SessionEnded(state string, turns int)
}

type nopRecorder struct{}

func (nopRecorder) ActionDispatched(string, string) {}
func (nopRecorder) TurnCompleted()                  {}
func (nopRecorder) SessionEnded(string, int)        {}
