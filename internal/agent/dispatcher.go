// internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/vistest/api/schemas"
	"go.uber.org/zap"
)

// ParamShape describes which optional field of an ActionRequest an action needs.
type ParamShape int

const (
	NeedsNothing ParamShape = iota
	NeedsCoordinates
	NeedsText
	NeedsURL
)

func (s ParamShape) String() string {
	switch s {
	case NeedsCoordinates:
		return "coordinates"
	case NeedsText:
		return "text"
	case NeedsURL:
		return "url"
	default:
		return "nothing"
	}
}

// ActionHandler performs one validated action against the driver.
type ActionHandler func(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome

// actionDescriptor is one registry row.
type actionDescriptor struct {
	shape   ParamShape
	handler ActionHandler
}

// Dispatcher checks that an action is known and carries its required
// parameters, then hands it to the matching Executor method. A request that
// fails validation never touches the browser.
type Dispatcher struct {
	logger   *zap.Logger
	registry map[schemas.ActionName]actionDescriptor
	resolve  URLResolver
	recorder Recorder
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithURLResolver sets the function used to resolve navigate targets before execution.
func WithURLResolver(resolve URLResolver) DispatcherOption {
	return func(d *Dispatcher) { d.resolve = resolve }
}

// WithRecorder sets the metrics sink for dispatch outcomes.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// NewDispatcher builds the registry over exec.
func NewDispatcher(logger *zap.Logger, exec *Executor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger:   logger.Named("dispatcher"),
		registry: make(map[schemas.ActionName]actionDescriptor),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.register(schemas.ActionNavigate, NeedsURL, exec.Navigate)
	d.register(schemas.ActionKey, NeedsText, exec.Key)
	d.register(schemas.ActionType, NeedsText, exec.Type)
	d.register(schemas.ActionMouseMove, NeedsCoordinates, exec.MouseMove)
	d.register(schemas.ActionLeftClick, NeedsCoordinates, exec.LeftClick)
	d.register(schemas.ActionRightClick, NeedsCoordinates, exec.RightClick)
	d.register(schemas.ActionMiddleClick, NeedsCoordinates, exec.MiddleClick)
	d.register(schemas.ActionDoubleClick, NeedsCoordinates, exec.DoubleClick)
	d.register(schemas.ActionLeftClickDrag, NeedsCoordinates, exec.LeftClickDrag)
	d.register(schemas.ActionScreenshot, NeedsNothing, exec.Screenshot)

	return d
}

func (d *Dispatcher) register(name schemas.ActionName, shape ParamShape, handler ActionHandler) {
	d.registry[name] = actionDescriptor{shape: shape, handler: handler}
}

// Shape returns the parameter shape registered for name.
func (d *Dispatcher) Shape(name schemas.ActionName) (ParamShape, bool) {
	desc, ok := d.registry[name]
	return desc.shape, ok
}

// Actions lists every registered action name.
func (d *Dispatcher) Actions() []schemas.ActionName {
	names := make([]schemas.ActionName, 0, len(d.registry))
	for name := range d.registry {
		names = append(names, name)
	}
	return names
}

// Dispatch validates req and, if valid, executes it exactly once.
func (d *Dispatcher) Dispatch(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	outcome := d.dispatch(ctx, driver, req)

	status := "success"
	if outcome.IsFailure() {
		status = "failure"
	}
	d.recorder.ActionDispatched(string(req.Action), status)
	d.logger.Debug("Action dispatched",
		zap.String("action", string(req.Action)),
		zap.String("status", status),
		zap.String("failure", outcome.Failure))

	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	desc, ok := d.registry[req.Action]
	if !ok {
		return schemas.Rejected(req.Action, FailureUnsupportedAction)
	}

	switch desc.shape {
	case NeedsCoordinates:
		if !req.Coordinate.Valid() {
			return schemas.Rejected(req.Action, fmt.Sprintf("%s requires coordinates", req.Action))
		}
	case NeedsText:
		if req.Text == "" {
			return schemas.Rejected(req.Action, fmt.Sprintf("%s requires text", req.Action))
		}
	case NeedsURL:
		if req.URL == "" {
			return schemas.Rejected(req.Action, FailureNavigateNeedsURL)
		}
		if d.resolve != nil {
			resolved, err := d.resolve(req.URL)
			if err != nil {
				return schemas.Rejected(req.Action, failureReason(err))
			}
			req.URL = resolved
		}
	}

	return desc.handler(ctx, driver, req)
}
