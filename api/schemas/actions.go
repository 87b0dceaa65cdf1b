package schemas

import "math"

// ActionName is the closed vocabulary of primitive browser operations the
// agent may request. Anything outside this set is rejected by the dispatcher.
type ActionName string

const (
	ActionNavigate      ActionName = "navigate"
	ActionKey           ActionName = "key"
	ActionType          ActionName = "type"
	ActionMouseMove     ActionName = "mouse_move"
	ActionLeftClick     ActionName = "left_click"
	ActionRightClick    ActionName = "right_click"
	ActionMiddleClick   ActionName = "middle_click"
	ActionLeftClickDrag ActionName = "left_click_drag"
	ActionDoubleClick   ActionName = "double_click"
	ActionScreenshot    ActionName = "screenshot"
)

// MouseButton identifies which button a click is performed with.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Coordinate is a viewport position in CSS pixels.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both components are finite numbers.
func (c *Coordinate) Valid() bool {
	if c == nil {
		return false
	}
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) && !math.IsNaN(c.Y) && !math.IsInf(c.Y, 0)
}

// ActionRequest is a single normalized action proposed by the model. Which of
// the optional fields are meaningful depends on Action; the dispatcher checks
// that the right one is present before anything reaches the browser.
type ActionRequest struct {
	Action     ActionName  `json:"action"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Text       string      `json:"text,omitempty"`
	URL        string      `json:"url,omitempty"`
}

// ActionResult is the success payload of an executed action.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Image holds a base64 encoded JPEG for screenshot actions.
	Image string `json:"image,omitempty"`
}

// ActionOutcome is the immutable result of one dispatch. Exactly one of
// Result or Failure is set; use Succeeded and Failed to build one.
type ActionOutcome struct {
	Action  ActionName    `json:"action"`
	Result  *ActionResult `json:"result,omitempty"`
	Failure string        `json:"failure,omitempty"`
	// Rejected marks a request refused before it reached the browser.
	Rejected bool `json:"-"`
	// Fatal holds the driver error when the browser can no longer act. It is
	// never shown to the model.
	Fatal error `json:"-"`
}

// Succeeded builds a success outcome.
func Succeeded(action ActionName, result ActionResult) ActionOutcome {
	return ActionOutcome{Action: action, Result: &result}
}

// Failed builds a failure outcome carrying reason.
func Failed(action ActionName, reason string) ActionOutcome {
	return ActionOutcome{Action: action, Failure: reason}
}

// Rejected builds a failure outcome for a request that was refused without
// touching the browser.
func Rejected(action ActionName, reason string) ActionOutcome {
	return ActionOutcome{Action: action, Failure: reason, Rejected: true}
}

// IsFailure reports whether the outcome carries a failure reason.
func (o ActionOutcome) IsFailure() bool {
	return o.Result == nil
}

// HasImage reports whether the outcome carries screenshot data.
func (o ActionOutcome) HasImage() bool {
	return o.Result != nil && o.Result.Image != ""
}
