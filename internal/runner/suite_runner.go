// internal/runner/suite_runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/agent"
	"github.com/xkilldash9x/vistest/internal/reporting"
)

const (
	runStartedTitle   = "Test Run Started"
	runCompletedTitle = "Test Run Completed"
)

// Driver is a browser tab owned by one test for its whole run.
type Driver interface {
	schemas.BrowserDriver
	Close()
}

// DriverFactory opens a fresh, isolated tab.
type DriverFactory func(ctx context.Context) (Driver, error)

// SuiteParams wires a SuiteRunner.
type SuiteParams struct {
	Model     schemas.ModelClient
	NewDriver DriverFactory
	Reporter  reporting.Reporter
	Recorder  agent.Recorder

	Agent          agent.Config
	SessionTimeout time.Duration
	// Concurrency is the number of tests run at once. Values below one mean one.
	Concurrency int
	// BaseURL, when set, takes precedence over the suite file's base_url.
	BaseURL string
}

// TestResult is the outcome of one test case.
type TestResult struct {
	Name    string
	Status  string
	Message string
	// Steps counts the steps that passed.
	Steps    int
	Duration time.Duration
}

// SuiteResult aggregates a suite run.
type SuiteResult struct {
	Name    string
	Results []TestResult
	Passed  int
	Failed  int
	Errored int
}

// Status is "passed" when every test passed and "failed" otherwise.
func (r *SuiteResult) Status() string {
	if r.Failed+r.Errored == 0 {
		return reporting.StatusPassed
	}
	return reporting.StatusFailed
}

// SuiteRunner executes suite tests concurrently, each in its own tab.
type SuiteRunner struct {
	logger *zap.Logger
	params SuiteParams
}

func NewSuiteRunner(logger *zap.Logger, params SuiteParams) *SuiteRunner {
	if params.Concurrency < 1 {
		params.Concurrency = 1
	}
	return &SuiteRunner{logger: logger.Named("suite_runner"), params: params}
}

// Run executes every test of suite and returns the aggregated result. Test
// failures are part of the result, not errors; the error is non-nil only
// when ctx ended before the run completed.
func (s *SuiteRunner) Run(ctx context.Context, suite *Suite) (*SuiteResult, error) {
	baseURL := s.params.BaseURL
	if baseURL == "" {
		baseURL = suite.BaseURL
	}

	s.params.Reporter.Add(runStartedTitle, reporting.StatusInfo, fmt.Sprintf("Running %d tests", len(suite.Tests)))
	s.logger.Info("Starting suite",
		zap.String("suite", suite.Name),
		zap.Int("tests", len(suite.Tests)),
		zap.Int("concurrency", s.params.Concurrency))

	results := make([]TestResult, len(suite.Tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.Concurrency)
	for i, tc := range suite.Tests {
		g.Go(func() error {
			results[i] = s.runTest(gctx, tc, baseURL)
			return nil
		})
	}
	_ = g.Wait()

	out := &SuiteResult{Name: suite.Name, Results: results}
	for _, r := range results {
		switch r.Status {
		case reporting.StatusPassed:
			out.Passed++
		case reporting.StatusFailed:
			out.Failed++
		default:
			out.Errored++
		}
	}

	status := out.Status()
	s.params.Reporter.Add(runCompletedTitle, status, "Status: "+status)
	s.logger.Info("Suite completed",
		zap.String("suite", suite.Name),
		zap.Int("passed", out.Passed),
		zap.Int("failed", out.Failed),
		zap.Int("errored", out.Errored))

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("suite run interrupted: %w", err)
	}
	return out, nil
}

func (s *SuiteRunner) runTest(ctx context.Context, tc TestCase, baseURL string) TestResult {
	logger := s.logger.With(zap.String("test", tc.Name))
	s.params.Reporter.Add(tc.Name, reporting.StatusRunning, "")
	start := time.Now()

	res := s.execute(ctx, logger, tc, baseURL)
	res.Duration = time.Since(start)

	s.params.Reporter.Add(tc.Name, res.Status, res.Message)
	logger.Info("Test finished",
		zap.String("status", res.Status),
		zap.Int("steps", res.Steps),
		zap.Duration("duration", res.Duration))
	return res
}

func (s *SuiteRunner) execute(ctx context.Context, logger *zap.Logger, tc TestCase, baseURL string) TestResult {
	res := TestResult{Name: tc.Name}
	if err := ctx.Err(); err != nil {
		res.Status, res.Message = reporting.StatusError, err.Error()
		return res
	}

	driver, err := s.params.NewDriver(ctx)
	if err != nil {
		res.Status, res.Message = reporting.StatusError, fmt.Sprintf("failed to open browser: %v", err)
		return res
	}
	defer driver.Close()

	r := New(logger, Params{
		Model:          s.params.Model,
		Driver:         driver,
		Agent:          s.params.Agent,
		SessionTimeout: s.params.SessionTimeout,
		Recorder:       s.params.Recorder,
	})
	if err := r.Config(Options{BaseURL: baseURL}); err != nil {
		res.Status, res.Message = reporting.StatusError, err.Error()
		return res
	}

	var messages []string
	for _, step := range tc.Steps {
		verdict, err := r.AI(ctx, step.AI, step.Context)
		switch {
		case errors.Is(err, ErrTestFailed):
			res.Status, res.Message = reporting.StatusFailed, err.Error()
			return res
		case err != nil:
			res.Status, res.Message = reporting.StatusError, err.Error()
			return res
		}
		res.Steps++
		if verdict.Message != "" {
			messages = append(messages, verdict.Message)
		}
	}
	res.Status, res.Message = reporting.StatusPassed, strings.Join(messages, "; ")
	return res
}
