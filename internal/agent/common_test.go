package agent

import (
	"math"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/vistest/api/schemas"
	"go.uber.org/zap"
)

var fakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

// newTestDispatcher builds a dispatcher over a fresh executor with no-op logging.
func newTestDispatcher(opts ...DispatcherOption) *Dispatcher {
	return NewDispatcher(zap.NewNop(), NewExecutor(zap.NewNop()), opts...)
}

func coord(x, y float64) *schemas.Coordinate {
	return &schemas.Coordinate{X: x, Y: y}
}

// coordinateActions and textActions list the two validated parameter families.
var (
	coordinateActions = []schemas.ActionName{
		schemas.ActionMouseMove,
		schemas.ActionLeftClick,
		schemas.ActionRightClick,
		schemas.ActionMiddleClick,
		schemas.ActionLeftClickDrag,
		schemas.ActionDoubleClick,
	}
	textActions = []schemas.ActionName{
		schemas.ActionKey,
		schemas.ActionType,
	}
	invalidCoordinates = []*schemas.Coordinate{
		nil,
		coord(math.NaN(), 10),
		coord(10, math.Inf(1)),
		coord(math.Inf(-1), math.NaN()),
	}
)

// computerCall builds a computer tool call.
func computerCall(args map[string]any) schemas.ToolCall {
	return schemas.ToolCall{Name: schemas.ToolComputer, Args: args}
}

func navigateCall(url string) schemas.ToolCall {
	return schemas.ToolCall{Name: schemas.ToolNavigate, Args: map[string]any{"url": url}}
}

func finishCall(success bool, message string) schemas.ToolCall {
	return schemas.ToolCall{Name: schemas.ToolFinish, Args: map[string]any{"success": success, "message": message}}
}

func turnOf(calls ...schemas.ToolCall) *schemas.ModelTurn {
	return &schemas.ModelTurn{ToolCalls: calls}
}

var anyCtx = mock.Anything
