package runner

import (
	"context"
	"sync"

	"github.com/xkilldash9x/vistest/api/schemas"
)

var fakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0}

// fakeDriver records navigations and accepts every other action.
type fakeDriver struct {
	mu          sync.Mutex
	navigations []string
	navErr      error
	closed      bool
	onClose     func()
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.navErr != nil {
		return d.navErr
	}
	d.navigations = append(d.navigations, url)
	return nil
}

func (d *fakeDriver) Click(context.Context, float64, float64, schemas.MouseButton) error { return nil }
func (d *fakeDriver) DoubleClick(context.Context, float64, float64) error               { return nil }
func (d *fakeDriver) Move(context.Context, float64, float64) error                      { return nil }
func (d *fakeDriver) DragTo(context.Context, float64, float64) error                    { return nil }
func (d *fakeDriver) TypeText(context.Context, string) error                            { return nil }
func (d *fakeDriver) PressKey(context.Context, string) error                            { return nil }

func (d *fakeDriver) CaptureScreenshot(context.Context) ([]byte, error) {
	return fakeJPEG, nil
}

func (d *fakeDriver) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	if d.onClose != nil {
		d.onClose()
	}
}

func (d *fakeDriver) visited() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// scriptedModel answers every Converse call through fn.
type scriptedModel struct {
	mu       sync.Mutex
	fn       func(ctx context.Context, req schemas.ConverseRequest) (*schemas.ModelTurn, error)
	requests []schemas.ConverseRequest
}

func (m *scriptedModel) Converse(ctx context.Context, req schemas.ConverseRequest) (*schemas.ModelTurn, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.fn(ctx, req)
}

func (m *scriptedModel) Close() error { return nil }

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *scriptedModel) lastRequest() schemas.ConverseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func finish(success bool, message string) *schemas.ModelTurn {
	return &schemas.ModelTurn{ToolCalls: []schemas.ToolCall{{
		Name: schemas.ToolFinish,
		Args: map[string]any{"success": success, "message": message},
	}}}
}

func navigate(url string) *schemas.ModelTurn {
	return &schemas.ModelTurn{ToolCalls: []schemas.ToolCall{{
		Name: schemas.ToolNavigate,
		Args: map[string]any{"url": url},
	}}}
}

// finishing always reports the given verdict on the first turn.
func finishing(success bool, message string) *scriptedModel {
	return &scriptedModel{fn: func(context.Context, schemas.ConverseRequest) (*schemas.ModelTurn, error) {
		return finish(success, message), nil
	}}
}

// promptOf returns the rendered instruction the session was seeded with.
func promptOf(req schemas.ConverseRequest) string {
	if len(req.Transcript) == 0 {
		return ""
	}
	return req.Transcript[0].Text
}

// turnsSoFar counts the model turns already recorded in the transcript.
func turnsSoFar(req schemas.ConverseRequest) int {
	n := 0
	for _, e := range req.Transcript {
		if e.Turn > n {
			n = e.Turn
		}
	}
	return n
}
