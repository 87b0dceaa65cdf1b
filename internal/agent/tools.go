// internal/agent/tools.go
package agent

import (
	"fmt"
	"slices"

	"github.com/xkilldash9x/vistest/api/schemas"
)

// DisplaySize is the viewport advertised to the model through the computer tool.
type DisplaySize struct {
	Width  int
	Height int
}

// ToolSet builds the three tools offered on every turn. The computer tool's
// action enum is derived from the dispatcher registry so the two never drift.
func ToolSet(d *Dispatcher, display DisplaySize) []schemas.ToolSpec {
	actions := make([]any, 0, len(d.registry))
	names := d.Actions()
	slices.Sort(names)
	for _, name := range names {
		// navigate has its own tool.
		if name == schemas.ActionNavigate {
			continue
		}
		actions = append(actions, string(name))
	}

	return []schemas.ToolSpec{
		{
			Name: schemas.ToolComputer,
			Description: fmt.Sprintf(
				"Use a mouse and keyboard to interact with the browser and take screenshots. "+
					"The display is %dx%d pixels. Coordinates are [x, y] in pixels from the top left corner. "+
					"Use 'key' for key presses and combinations such as 'Return' or 'ctrl+a', and 'type' for entering text. "+
					"Always take a screenshot after an action to confirm its effect.",
				display.Width, display.Height),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The action to perform.",
						"enum":        actions,
					},
					"coordinate": map[string]any{
						"type":        "array",
						"description": "(x, y) pixel position. Required for mouse actions.",
						"items":       map[string]any{"type": "number"},
					},
					"text": map[string]any{
						"type":        "string",
						"description": "Text to type, or the key combination to press. Required for 'type' and 'key'.",
					},
				},
				"required": []any{"action"},
			},
		},
		{
			Name:        schemas.ToolNavigate,
			Description: "Navigate the browser to a URL. Relative URLs are resolved against the application's base URL.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL to load.",
					},
				},
				"required": []any{"url"},
			},
		},
		{
			Name:        schemas.ToolFinish,
			Description: "Call this exactly once when the test is complete, reporting whether it passed and why.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"success": map[string]any{
						"type":        "boolean",
						"description": "True if the test passed.",
					},
					"message": map[string]any{
						"type":        "string",
						"description": "A short explanation of the result.",
					},
				},
				"required": []any{"success", "message"},
			},
		},
	}
}
