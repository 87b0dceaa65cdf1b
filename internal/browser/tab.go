// internal/browser/tab.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/api/schemas"
)

// Tab is one page in its own browser. It implements schemas.BrowserDriver
// with raw CDP input events at viewport coordinates.
type Tab struct {
	id     string
	ctx    context.Context // carries the chromedp target
	cancel context.CancelFunc
	logger *zap.Logger

	quality       int
	actionTimeout time.Duration
	settle        time.Duration

	// cursor is the last position the mouse was sent to. DragTo starts here.
	mu      sync.Mutex
	cursorX float64
	cursorY float64

	onClose   func()
	closeOnce sync.Once
}

var _ schemas.BrowserDriver = (*Tab)(nil)

// ID returns the tab identifier used in logs.
func (t *Tab) ID() string { return t.id }

// run executes actions on the tab, canceled by whichever of the tab or ctx
// ends first and bounded by the per action timeout. Once the tab's own
// context is done every error wraps schemas.ErrDriverClosed.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := t.ctx.Err(); err != nil {
		return fmt.Errorf("tab %s: %w", t.id, schemas.ErrDriverClosed)
	}
	opCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()
	if t.actionTimeout > 0 {
		var timeoutCancel context.CancelFunc
		opCtx, timeoutCancel = context.WithTimeout(opCtx, t.actionTimeout)
		defer timeoutCancel()
	}
	err := chromedp.Run(opCtx, actions...)
	if err != nil && t.ctx.Err() != nil {
		return fmt.Errorf("tab %s: %w: %v", t.id, schemas.ErrDriverClosed, err)
	}
	return err
}

// -- Navigation --

func (t *Tab) Navigate(ctx context.Context, url string) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if t.settle > 0 {
		actions = append(actions, chromedp.Sleep(t.settle))
	}
	if err := t.run(ctx, actions...); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// -- Mouse --

func cdpButton(b schemas.MouseButton) (input.MouseButton, int64) {
	switch b {
	case schemas.ButtonRight:
		return input.Right, 2
	case schemas.ButtonMiddle:
		return input.Middle, 4
	default:
		return input.Left, 1
	}
}

func (t *Tab) Click(ctx context.Context, x, y float64, button schemas.MouseButton) error {
	btn, mask := cdpButton(button)
	err := t.run(ctx,
		input.DispatchMouseEvent(input.MouseMoved, x, y),
		input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(btn).WithButtons(mask).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(btn).WithClickCount(1),
	)
	if err != nil {
		return fmt.Errorf("%s click at (%.0f, %.0f) failed: %w", button, x, y, err)
	}
	t.setCursor(x, y)
	return nil
}

func (t *Tab) DoubleClick(ctx context.Context, x, y float64) error {
	err := t.run(ctx,
		input.DispatchMouseEvent(input.MouseMoved, x, y),
		input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(input.Left).WithClickCount(1),
		input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(input.Left).WithButtons(1).WithClickCount(2),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(input.Left).WithClickCount(2),
	)
	if err != nil {
		return fmt.Errorf("double click at (%.0f, %.0f) failed: %w", x, y, err)
	}
	t.setCursor(x, y)
	return nil
}

func (t *Tab) Move(ctx context.Context, x, y float64) error {
	if err := t.run(ctx, input.DispatchMouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("mouse move to (%.0f, %.0f) failed: %w", x, y, err)
	}
	t.setCursor(x, y)
	return nil
}

func (t *Tab) DragTo(ctx context.Context, x, y float64) error {
	fromX, fromY := t.cursor()
	err := t.run(ctx,
		input.DispatchMouseEvent(input.MousePressed, fromX, fromY).WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseMoved, x, y).WithButton(input.Left).WithButtons(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(input.Left).WithClickCount(1),
	)
	if err != nil {
		return fmt.Errorf("drag from (%.0f, %.0f) to (%.0f, %.0f) failed: %w", fromX, fromY, x, y, err)
	}
	t.setCursor(x, y)
	return nil
}

func (t *Tab) setCursor(x, y float64) {
	t.mu.Lock()
	t.cursorX, t.cursorY = x, y
	t.mu.Unlock()
}

func (t *Tab) cursor() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursorX, t.cursorY
}

// -- Keyboard --

func (t *Tab) TypeText(ctx context.Context, text string) error {
	if err := t.run(ctx, chromedp.KeyEvent(text)); err != nil {
		return fmt.Errorf("typing failed: %w", err)
	}
	return nil
}

// PressKey presses an xdotool style combination such as "ctrl+a".
func (t *Tab) PressKey(ctx context.Context, combo string) error {
	parsed, err := ParseKeyCombo(combo)
	if err != nil {
		return err
	}
	var opts []chromedp.KeyOption
	if len(parsed.Modifiers) > 0 {
		opts = append(opts, chromedp.KeyModifiers(parsed.Modifiers...))
	}
	if err := t.run(ctx, chromedp.KeyEvent(parsed.Key, opts...)); err != nil {
		return fmt.Errorf("key press %q failed: %w", combo, err)
	}
	return nil
}

// -- Observation --

// CaptureScreenshot captures the visible viewport as JPEG.
func (t *Tab) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(t.quality)).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Close shuts the tab's browser down. It is safe to call more than once.
func (t *Tab) Close() {
	t.closeOnce.Do(func() {
		// Cancel closes the browser gracefully and waits for it to exit.
		if err := chromedp.Cancel(t.ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.logger.Debug("Graceful tab close failed.", zap.Error(err))
		}
		t.cancel()
		if t.onClose != nil {
			t.onClose()
		}
		t.logger.Debug("Tab closed.")
	})
}
