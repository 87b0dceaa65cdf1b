package schemas

import (
	"context"
	"errors"
)

// -- Browser Capability --

// ErrDriverClosed reports that the page behind a BrowserDriver is gone for
// good (tab closed, browser crashed or disconnected). Drivers wrap it so that
// errors.Is matches; no later call on the same driver can succeed.
var ErrDriverClosed = errors.New("browser driver closed")

// BrowserDriver is the set of primitive operations the agent can perform on a
// single page. Implementations must be safe to call sequentially from one
// session; nothing here is expected to be called concurrently for the same page.
type BrowserDriver interface {
	// Navigate loads url in the page and waits for it to settle.
	Navigate(ctx context.Context, url string) error
	// Click performs a single click at a viewport position.
	Click(ctx context.Context, x, y float64, button MouseButton) error
	DoubleClick(ctx context.Context, x, y float64) error
	// Move moves the cursor without pressing any button.
	Move(ctx context.Context, x, y float64) error
	// DragTo presses the left button at the current cursor position, moves to
	// (x, y) and releases.
	DragTo(ctx context.Context, x, y float64) error
	TypeText(ctx context.Context, text string) error
	// PressKey presses a key combination such as "ctrl+a" or "Return".
	PressKey(ctx context.Context, combo string) error
	// CaptureScreenshot captures the current viewport as JPEG.
	CaptureScreenshot(ctx context.Context) ([]byte, error)
}

// -- Model Capability --

// ToolSpec describes one tool offered to the model. Parameters is a JSON schema
// object (type/properties/required).
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ConverseRequest is one blocking exchange with the model.
type ConverseRequest struct {
	Transcript []TranscriptEntry `json:"transcript"`
	Tools      []ToolSpec        `json:"tools"`
	// MaxSteps bounds the model's own internal steps for this request. The agent
	// loop's turn budget is the outer bound.
	MaxSteps int `json:"max_steps"`
}

// ModelTurn is what the model produced for one request.
type ModelTurn struct {
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// ModelClient abstracts the language model provider.
type ModelClient interface {
	// Converse sends the transcript and tool set and returns the next turn.
	Converse(ctx context.Context, req ConverseRequest) (*ModelTurn, error)
	// Close releases any resources held by the client.
	Close() error
}
