// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/agent"
)

// ErrTestFailed matches every *TestFailureError.
var ErrTestFailed = errors.New("test failed")

// TestFailureError reports that the agent finished the session and judged the
// test as failed. It is a normal outcome of a test, not an orchestration
// problem.
type TestFailureError struct {
	Instruction string
	SessionID   string
	Message     string
}

func (e *TestFailureError) Error() string {
	if e.Message == "" {
		return ErrTestFailed.Error()
	}
	return e.Message
}

func (e *TestFailureError) Is(target error) bool {
	return target == ErrTestFailed
}

// Options configures a Runner.
type Options struct {
	// BaseURL is loaded before the first session and is the base for
	// relative navigate URLs.
	BaseURL string
}

// Params are the collaborators a Runner needs.
type Params struct {
	Model  schemas.ModelClient
	Driver schemas.BrowserDriver
	Agent  agent.Config
	// SessionTimeout bounds each AI call. Zero means no bound beyond the caller's context.
	SessionTimeout time.Duration
	// Recorder receives action, turn and session metrics. Optional.
	Recorder agent.Recorder
}

// Runner is the test facing API bound to one browser tab. Calls to AI are
// serialized because they share the tab.
type Runner struct {
	logger         *zap.Logger
	driver         schemas.BrowserDriver
	agent          *agent.Agent
	sessionTimeout time.Duration

	// session serializes AI calls.
	session sync.Mutex

	mu        sync.RWMutex
	baseURL   *url.URL
	navigated bool
}

// New creates a Runner. Each Runner has its own dispatcher so relative URLs
// resolve against its own base URL.
func New(logger *zap.Logger, p Params) *Runner {
	r := &Runner{
		logger:         logger.Named("runner"),
		driver:         p.Driver,
		sessionTimeout: p.SessionTimeout,
	}

	dispatcherOpts := []agent.DispatcherOption{agent.WithURLResolver(r.resolveURL)}
	var agentOpts []agent.Option
	if p.Recorder != nil {
		dispatcherOpts = append(dispatcherOpts, agent.WithRecorder(p.Recorder))
		agentOpts = append(agentOpts, agent.WithSessionRecorder(p.Recorder))
	}
	dispatcher := agent.NewDispatcher(logger, agent.NewExecutor(logger), dispatcherOpts...)
	r.agent = agent.New(logger, p.Model, dispatcher, p.Agent, agentOpts...)
	return r
}

// Config applies opts. Changing the base URL makes the next AI call load it
// again.
func (r *Runner) Config(opts Options) error {
	var base *url.URL
	if raw := strings.TrimSpace(opts.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", raw, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("base URL %q must be absolute", raw)
		}
		base = u
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sameURL(r.baseURL, base) {
		return nil
	}
	r.baseURL = base
	r.navigated = false
	return nil
}

func sameURL(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// AI runs one natural language test step. It returns the agent's verdict
// when the session finished. A verdict with success=false comes back together
// with a *TestFailureError; any other error is an *agent.OrchestrationError
// or a failure to prepare the browser.
func (r *Runner) AI(ctx context.Context, instruction string, extra map[string]any) (schemas.Verdict, error) {
	r.session.Lock()
	defer r.session.Unlock()

	if r.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.sessionTimeout)
		defer cancel()
	}

	if err := r.ensureBaseURL(ctx); err != nil {
		return schemas.Verdict{}, err
	}

	res, err := r.agent.Run(ctx, r.driver, schemas.Instruction{Text: instruction, Context: extra})
	if err != nil {
		return schemas.Verdict{}, err
	}

	verdict := *res.Verdict
	if !verdict.Success {
		r.logger.Info("Test step reported failure",
			zap.String("session_id", res.SessionID),
			zap.String("message", verdict.Message))
		return verdict, &TestFailureError{
			Instruction: instruction,
			SessionID:   res.SessionID,
			Message:     verdict.Message,
		}
	}
	return verdict, nil
}

// ensureBaseURL loads the base URL once per configured value.
func (r *Runner) ensureBaseURL(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.baseURL == nil || r.navigated {
		return nil
	}
	target := r.baseURL.String()
	r.logger.Debug("Loading base URL", zap.String("url", target))
	if err := r.driver.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to load base URL %s: %w", target, err)
	}
	r.navigated = true
	return nil
}

// resolveURL resolves navigate targets. Absolute URLs pass through; relative
// ones need a base URL.
func (r *Runner) resolveURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	r.mu.RLock()
	base := r.baseURL
	r.mu.RUnlock()
	if base == nil {
		return "", fmt.Errorf("relative url %q needs a base URL", raw)
	}
	return base.ResolveReference(u).String(), nil
}
