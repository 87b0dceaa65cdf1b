// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/vistest/internal/config"
)

// ErrManagerClosed is returned by NewTab after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

const shutdownGracePeriod = 15 * time.Second

// Manager owns the chromedp exec allocator and hands out isolated tabs. Every
// tab is a separate browser instance from the shared allocator, so sessions
// never see each other's cookies or storage.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc

	// sem bounds the number of live browsers.
	sem *semaphore.Weighted

	mu     sync.Mutex
	tabs   map[string]*Tab
	closed bool
}

// ExecAllocatorOptions translates the browser config into chromedp allocator options.
func ExecAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.IgnoreCertErrors)
	}

	for _, arg := range cfg.Args {
		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if !hasValue {
			opts = append(opts, chromedp.Flag(key, true))
			continue
		}
		opts = append(opts, chromedp.Flag(key, value))
	}
	return opts
}

// NewManager creates a manager whose browsers are children of ctx. maxTabs
// bounds how many tabs may be open at once; values below one mean one.
func NewManager(ctx context.Context, cfg config.BrowserConfig, maxTabs int, logger *zap.Logger) *Manager {
	if maxTabs < 1 {
		maxTabs = 1
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(cfg)...)
	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sem:         semaphore.NewWeighted(int64(maxTabs)),
		tabs:        make(map[string]*Tab),
	}
	m.logger.Info("Browser manager created.", zap.Bool("headless", cfg.Headless), zap.Int("max_tabs", maxTabs))
	return m
}

// NewTab launches a browser, sizes its viewport and returns the page as a
// Tab. It blocks while the tab limit is reached.
func (m *Manager) NewTab(ctx context.Context) (*Tab, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrManagerClosed
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a free browser slot: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)
	// The first Run starts the browser. It must run on tabCtx itself; a
	// derived context with a deadline would tear the browser down with it.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(m.cfg.Viewport.Width), int64(m.cfg.Viewport.Height))); err != nil {
		tabCancel()
		m.sem.Release(1)
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	id := uuid.New().String()
	tab := &Tab{
		id:            id,
		ctx:           tabCtx,
		cancel:        tabCancel,
		logger:        m.logger.Named("tab").With(zap.String("tab_id", id)),
		quality:       m.cfg.ScreenshotQuality,
		actionTimeout: m.cfg.ActionTimeout,
		settle:        m.cfg.NavigationSettle,
	}
	tab.onClose = func() {
		m.mu.Lock()
		delete(m.tabs, id)
		m.mu.Unlock()
		m.sem.Release(1)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		tab.Close()
		return nil, ErrManagerClosed
	}
	m.tabs[id] = tab
	m.mu.Unlock()

	m.logger.Debug("Tab opened.", zap.String("tab_id", id))
	return tab, nil
}

// OpenTabs reports how many tabs are currently open.
func (m *Manager) OpenTabs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs)
}

// Shutdown closes every open tab and then the allocator. It waits for the
// browser processes to exit or for ctx to be done, whichever comes first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	tabs := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		tabs = append(tabs, t)
	}
	m.mu.Unlock()

	m.logger.Info("Shutting down browser manager.", zap.Int("open_tabs", len(tabs)))
	for _, t := range tabs {
		t.Close()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGracePeriod)
		defer cancel()
	}

	// allocCancel blocks until every browser process has exited.
	done := make(chan struct{})
	go func() {
		m.allocCancel()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser allocator shutdown: %w", ctx.Err())
	}
	return err
}
