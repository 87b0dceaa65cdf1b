// File: cmd/ai.go
package cmd

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/vistest/internal/observability"
	"github.com/xkilldash9x/vistest/internal/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type aiOptions struct {
	baseURL  string
	context  []string
	headless bool
}

func newAICmd() *cobra.Command {
	opts := &aiOptions{}

	aiCmd := &cobra.Command{
		Use:   "ai <instruction>",
		Short: "Run a single natural language test step",
		Example: `  vistest ai "Add the blue mug to the cart and check the badge shows 1" \
    --base-url http://localhost:3000
  vistest ai "Log in" --context email=alice@example.com --context password=hunter2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			extra, err := parseContext(opts.context)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("base-url") {
				cfg.SetRunnerBaseURL(opts.baseURL)
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(opts.headless)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()
			env, err := newEnvironment(ctx, cfg, logger, 1)
			if err != nil {
				return err
			}
			defer env.Close()

			tab, err := env.newDriver(ctx)
			if err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			defer tab.Close()

			r := runner.New(logger, runner.Params{
				Model:          env.model,
				Driver:         tab,
				Agent:          agentConfig(cfg.Agent()),
				SessionTimeout: cfg.Runner().SessionTimeout,
				Recorder:       env.recorder(),
			})
			if err := r.Config(runner.Options{BaseURL: cfg.Runner().BaseURL}); err != nil {
				return err
			}

			verdict, err := r.AI(ctx, args[0], extra)
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, runner.ErrTestFailed):
				fmt.Fprintf(out, "FAIL: %s\n", verdict.Message)
				return err
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "PASS: %s\n", verdict.Message)
			return nil
		},
	}

	aiCmd.Flags().StringVar(&opts.baseURL, "base-url", "", "URL to load before the step (overrides config)")
	aiCmd.Flags().StringArrayVar(&opts.context, "context", nil, "Additional information as key=value; values are parsed as JSON when possible")
	aiCmd.Flags().BoolVar(&opts.headless, "headless", true, "Run the browser headless (overrides config)")
	return aiCmd
}

// parseContext turns key=value pairs into the step's additional information.
// A value that is valid JSON keeps its type; anything else is a string.
func parseContext(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --context %q: expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
