package agent

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/vistest/api/schemas"
)

// -- Browser Driver Mock --

// MockBrowserDriver mocks schemas.BrowserDriver.
type MockBrowserDriver struct {
	mock.Mock
}

func (m *MockBrowserDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBrowserDriver) Click(ctx context.Context, x, y float64, button schemas.MouseButton) error {
	return m.Called(ctx, x, y, button).Error(0)
}

func (m *MockBrowserDriver) DoubleClick(ctx context.Context, x, y float64) error {
	return m.Called(ctx, x, y).Error(0)
}

func (m *MockBrowserDriver) Move(ctx context.Context, x, y float64) error {
	return m.Called(ctx, x, y).Error(0)
}

func (m *MockBrowserDriver) DragTo(ctx context.Context, x, y float64) error {
	return m.Called(ctx, x, y).Error(0)
}

func (m *MockBrowserDriver) TypeText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockBrowserDriver) PressKey(ctx context.Context, combo string) error {
	return m.Called(ctx, combo).Error(0)
}

func (m *MockBrowserDriver) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// -- Model Client Mock --

// MockModelClient mocks schemas.ModelClient. Every request is also kept in
// Requests so tests can inspect the transcript the model was shown.
type MockModelClient struct {
	mock.Mock

	mu       sync.Mutex
	Requests []schemas.ConverseRequest
}

func (m *MockModelClient) Converse(ctx context.Context, req schemas.ConverseRequest) (*schemas.ModelTurn, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.ModelTurn), args.Error(1)
}

func (m *MockModelClient) Close() error {
	return m.Called().Error(0)
}

// -- Recorder Stub --

type recordedAction struct {
	action, status string
}

// fakeRecorder captures Recorder calls.
type fakeRecorder struct {
	mu       sync.Mutex
	actions  []recordedAction
	turns    int
	sessions map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{sessions: make(map[string]int)}
}

func (r *fakeRecorder) ActionDispatched(action, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, recordedAction{action, status})
}

func (r *fakeRecorder) TurnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns++
}

func (r *fakeRecorder) SessionEnded(state string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[state]++
}
