package agent

import (
	"math"

	"github.com/xkilldash9x/vistest/api/schemas"
)

// DecodeToolCall turns a computer or navigate tool call into an ActionRequest.
// Decoding is lenient on purpose: it never fails, it only drops what it cannot
// read, and the Dispatcher then reports the missing parameter to the model.
func DecodeToolCall(call schemas.ToolCall) (schemas.ActionRequest, bool) {
	switch call.Name {
	case schemas.ToolNavigate:
		return schemas.ActionRequest{
			Action: schemas.ActionNavigate,
			URL:    stringArg(call.Args, "url"),
		}, true
	case schemas.ToolComputer:
		return schemas.ActionRequest{
			Action:     schemas.ActionName(stringArg(call.Args, "action")),
			Coordinate: coordinateArg(call.Args["coordinate"]),
			Text:       stringArg(call.Args, "text"),
			URL:        stringArg(call.Args, "url"),
		}, true
	default:
		return schemas.ActionRequest{Action: schemas.ActionName(call.Name)}, false
	}
}

func stringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

// coordinateArg accepts [x, y] or {"x": x, "y": y}.
func coordinateArg(raw any) *schemas.Coordinate {
	var x, y float64
	var okX, okY bool

	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return nil
		}
		x, okX = number(v[0])
		y, okY = number(v[1])
	case []float64:
		if len(v) != 2 {
			return nil
		}
		x, y, okX, okY = v[0], v[1], true, true
	case map[string]any:
		x, okX = number(v["x"])
		y, okY = number(v["y"])
	default:
		return nil
	}

	if !okX || !okY {
		return nil
	}
	return &schemas.Coordinate{X: x, Y: y}
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
