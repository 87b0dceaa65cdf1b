// internal/agent/executors.go
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/xkilldash9x/vistest/api/schemas"
	"go.uber.org/zap"
)

// Executor maps one validated ActionRequest to exactly one BrowserDriver call.
// It keeps no per-session state, the driver is handed in on every call, so a
// single instance is shared by every concurrent session.
//
// Requests reaching the Executor have already been validated by the
// Dispatcher; the Executor trusts the shape of what it is given.
type Executor struct {
	logger *zap.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(logger *zap.Logger) *Executor {
	return &Executor{logger: logger.Named("executor")}
}

// -- Navigation --

// Navigate loads req.URL. The URL is expected to be absolute by now.
func (e *Executor) Navigate(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	if err := driver.Navigate(ctx, req.URL); err != nil {
		return e.fail(req.Action, err)
	}
	return schemas.Succeeded(req.Action, schemas.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Navigated to %s", req.URL),
	})
}

// -- Keyboard --

// Key presses the key combination in req.Text, e.g. "ctrl+a" or "Return".
func (e *Executor) Key(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.PressKey(ctx, req.Text))
}

// Type types req.Text into whatever currently has focus.
func (e *Executor) Type(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.TypeText(ctx, req.Text))
}

// -- Mouse --

func (e *Executor) MouseMove(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.Move(ctx, req.Coordinate.X, req.Coordinate.Y))
}

func (e *Executor) LeftClick(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.Click(ctx, req.Coordinate.X, req.Coordinate.Y, schemas.ButtonLeft))
}

func (e *Executor) RightClick(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.Click(ctx, req.Coordinate.X, req.Coordinate.Y, schemas.ButtonRight))
}

func (e *Executor) MiddleClick(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.Click(ctx, req.Coordinate.X, req.Coordinate.Y, schemas.ButtonMiddle))
}

func (e *Executor) DoubleClick(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.DoubleClick(ctx, req.Coordinate.X, req.Coordinate.Y))
}

// LeftClickDrag drags from the current cursor position to req.Coordinate.
func (e *Executor) LeftClickDrag(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	return e.complete(req.Action, driver.DragTo(ctx, req.Coordinate.X, req.Coordinate.Y))
}

// -- Observation --

// Screenshot captures the viewport and returns it base64 encoded in the result image.
func (e *Executor) Screenshot(ctx context.Context, driver schemas.BrowserDriver, req schemas.ActionRequest) schemas.ActionOutcome {
	data, err := driver.CaptureScreenshot(ctx)
	if err != nil {
		return e.fail(req.Action, err)
	}
	return schemas.Succeeded(req.Action, schemas.ActionResult{
		Success: true,
		Image:   base64.StdEncoding.EncodeToString(data),
	})
}

// complete converts the error of an input action into an outcome.
func (e *Executor) complete(action schemas.ActionName, err error) schemas.ActionOutcome {
	if err != nil {
		return e.fail(action, err)
	}
	return schemas.Succeeded(action, schemas.ActionResult{Success: true})
}

// fail builds the failure outcome. A closed driver is marked fatal so the loop
// stops instead of asking the model for actions that cannot run.
func (e *Executor) fail(action schemas.ActionName, err error) schemas.ActionOutcome {
	reason := failureReason(err)
	e.logger.Debug("Browser action failed", zap.String("action", string(action)), zap.String("reason", reason))
	out := schemas.Failed(action, reason)
	if errors.Is(err, schemas.ErrDriverClosed) {
		out.Fatal = err
	}
	return out
}
