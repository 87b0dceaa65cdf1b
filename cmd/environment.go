// File: cmd/environment.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/agent"
	"github.com/xkilldash9x/vistest/internal/browser"
	"github.com/xkilldash9x/vistest/internal/config"
	"github.com/xkilldash9x/vistest/internal/llmclient"
	"github.com/xkilldash9x/vistest/internal/observability"
	"github.com/xkilldash9x/vistest/internal/runner"
)

const metricsNamespace = "vistest"

// environment holds the long lived services a command needs: the model
// client, the browser manager and, when enabled, the metrics endpoint.
type environment struct {
	logger  *zap.Logger
	model   schemas.ModelClient
	browser *browser.Manager

	metrics       *observability.Metrics
	metricsServer *http.Server
}

// newEnvironment starts every service. maxTabs bounds the number of tabs
// open at once. On error, whatever was started is torn down.
func newEnvironment(ctx context.Context, cfg config.Interface, logger *zap.Logger, maxTabs int) (*environment, error) {
	env := &environment{logger: logger.Named("environment")}

	var clientOpts []llmclient.Option
	if cfg.Metrics().Enabled {
		env.metrics = observability.NewMetrics(metricsNamespace)
		env.startMetricsServer(cfg.Metrics().Addr)
		clientOpts = append(clientOpts, llmclient.WithRequestRecorder(env.metrics))
	}

	model, err := llmclient.NewClient(ctx, cfg.Agent().LLM, logger, clientOpts...)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	env.model = model

	env.browser = browser.NewManager(ctx, cfg.Browser(), maxTabs, logger)
	return env, nil
}

func (e *environment) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.metrics.Handler())
	e.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		e.logger.Info("Serving metrics", zap.String("addr", addr))
		if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// recorder returns the session metrics sink, or nil when metrics are off.
func (e *environment) recorder() agent.Recorder {
	if e.metrics == nil {
		return nil
	}
	return e.metrics
}

// newDriver opens a tab for one test.
func (e *environment) newDriver(ctx context.Context) (runner.Driver, error) {
	tab, err := e.browser.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// agentConfig maps the configuration onto the agent's settings.
func agentConfig(cfg config.AgentConfig) agent.Config {
	return agent.Config{
		MaxTurns:      cfg.MaxTurns,
		ModelMaxSteps: cfg.ModelMaxSteps,
		Display:       agent.DisplaySize{Width: cfg.Display.Width, Height: cfg.Display.Height},
	}
}

// Close shuts everything down. It uses a fresh context so that teardown
// still runs after the command's context was canceled.
func (e *environment) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if e.browser != nil {
		if err := e.browser.Shutdown(ctx); err != nil {
			e.logger.Warn("Browser shutdown incomplete", zap.Error(err))
		}
	}
	if e.model != nil {
		if err := e.model.Close(); err != nil {
			e.logger.Warn("Failed to close LLM client", zap.Error(err))
		}
	}
	if e.metricsServer != nil {
		if err := e.metricsServer.Shutdown(ctx); err != nil {
			e.logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}
}
