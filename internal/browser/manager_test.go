package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/browser"
	"github.com/xkilldash9x/vistest/internal/config"
)

const fixturePage = `<!DOCTYPE html>
<html><head><style>
  body { margin: 0; }
  #btn { position: absolute; left: 0; top: 0; width: 200px; height: 100px; }
  #field { position: absolute; left: 0; top: 200px; width: 300px; height: 40px; }
</style></head>
<body>
  <button id="btn">press</button>
  <input id="field" type="text">
  <script>
    window.clicks = 0; window.dblclicks = 0; window.contextmenus = 0;
    const btn = document.getElementById('btn');
    btn.addEventListener('click', () => window.clicks++);
    btn.addEventListener('dblclick', () => window.dblclicks++);
    btn.addEventListener('contextmenu', (e) => { e.preventDefault(); window.contextmenus++; });
  </script>
</body></html>`

func browserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:          true,
		IgnoreTLSErrors:   true,
		Viewport:          config.ViewportConfig{Width: 1024, Height: 768},
		ScreenshotQuality: 60,
		ActionTimeout:     20 * time.Second,
		NavigationSettle:  50 * time.Millisecond,
	}
}

// requireChrome skips the test when no Chrome binary is available.
func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found on PATH")
}

func newFixture(t *testing.T, maxTabs int) (*browser.Manager, *httptest.Server) {
	t.Helper()
	requireChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixturePage))
	}))
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	mgr := browser.NewManager(context.Background(), browserConfig(), maxTabs, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		assert.NoError(t, mgr.Shutdown(ctx))
	})
	return mgr, srv
}

func TestExecAllocatorOptions_ExtraArgs(t *testing.T) {
	base := browser.ExecAllocatorOptions(config.BrowserConfig{Headless: true})
	assert.NotEmpty(t, base)

	withTLS := browser.ExecAllocatorOptions(config.BrowserConfig{Headless: true, IgnoreTLSErrors: true})
	assert.Len(t, withTLS, len(base)+1)

	withArgs := browser.ExecAllocatorOptions(config.BrowserConfig{
		Headless: true,
		Args:     []string{"--lang=en-US", "mute-audio", "--", ""},
	})
	assert.Len(t, withArgs, len(base)+2, "empty flags are skipped")

	headed := browser.ExecAllocatorOptions(config.BrowserConfig{Headless: false})
	assert.Len(t, headed, len(base)-1)
}

func TestManager_ShutdownRejectsNewTabs(t *testing.T) {
	mgr := browser.NewManager(context.Background(), browserConfig(), 1, zap.NewNop())
	require.NoError(t, mgr.Shutdown(context.Background()))
	require.NoError(t, mgr.Shutdown(context.Background()), "second shutdown is a no-op")

	_, err := mgr.NewTab(context.Background())
	assert.ErrorIs(t, err, browser.ErrManagerClosed)
}

func TestTab_DriverActions(t *testing.T) {
	mgr, srv := newFixture(t, 1)
	ctx := context.Background()

	tab, err := mgr.NewTab(ctx)
	require.NoError(t, err)
	defer tab.Close()
	assert.Equal(t, 1, mgr.OpenTabs())

	require.NoError(t, tab.Navigate(ctx, srv.URL))

	t.Run("Clicks", func(t *testing.T) {
		require.NoError(t, tab.Click(ctx, 100, 50, schemas.ButtonLeft))
		require.NoError(t, tab.Click(ctx, 100, 50, schemas.ButtonRight))
		require.NoError(t, tab.DoubleClick(ctx, 100, 50))

		var clicks, dblclicks, menus int
		require.NoError(t, tab.Evaluate(ctx, `window.clicks`, &clicks))
		require.NoError(t, tab.Evaluate(ctx, `window.dblclicks`, &dblclicks))
		require.NoError(t, tab.Evaluate(ctx, `window.contextmenus`, &menus))
		assert.Equal(t, 3, clicks, "one single click plus two from the double click")
		assert.Equal(t, 1, dblclicks)
		assert.Equal(t, 1, menus)
	})

	t.Run("TypeAndKeys", func(t *testing.T) {
		require.NoError(t, tab.Click(ctx, 150, 220, schemas.ButtonLeft))
		require.NoError(t, tab.TypeText(ctx, "hello world"))
		require.NoError(t, tab.PressKey(ctx, "BackSpace"))

		var value string
		require.NoError(t, tab.Evaluate(ctx, `document.getElementById('field').value`, &value))
		assert.Equal(t, "hello worl", value)

		assert.Error(t, tab.PressKey(ctx, "hyper+x"))
	})

	t.Run("Screenshot", func(t *testing.T) {
		img, err := tab.CaptureScreenshot(ctx)
		require.NoError(t, err)
		require.Greater(t, len(img), 2)
		assert.Equal(t, []byte{0xFF, 0xD8}, img[:2], "JPEG magic")
	})

	t.Run("MoveAndDrag", func(t *testing.T) {
		require.NoError(t, tab.Move(ctx, 10, 10))
		require.NoError(t, tab.DragTo(ctx, 60, 60))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := tab.Move(canceled, 5, 5)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, schemas.ErrDriverClosed, "a canceled caller does not close the tab")
	})
}

func TestTab_ClosedDriver(t *testing.T) {
	mgr, _ := newFixture(t, 1)
	tab, err := mgr.NewTab(context.Background())
	require.NoError(t, err)
	tab.Close()

	ctx := context.Background()
	assert.ErrorIs(t, tab.Click(ctx, 1, 1, schemas.ButtonLeft), schemas.ErrDriverClosed)
	assert.ErrorIs(t, tab.TypeText(ctx, "x"), schemas.ErrDriverClosed)
	_, err = tab.CaptureScreenshot(ctx)
	assert.ErrorIs(t, err, schemas.ErrDriverClosed)
}

func TestManager_TabLimit(t *testing.T) {
	mgr, _ := newFixture(t, 1)

	first, err := mgr.NewTab(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = mgr.NewTab(ctx)
	require.Error(t, err, "second tab must wait for a free slot")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	first.Close()
	first.Close()
	assert.Equal(t, 0, mgr.OpenTabs())

	second, err := mgr.NewTab(context.Background())
	require.NoError(t, err)
	second.Close()
}
