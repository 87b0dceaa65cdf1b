// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/internal/config"
	"github.com/xkilldash9x/vistest/internal/observability"
	"github.com/xkilldash9x/vistest/internal/reporting"
	"github.com/xkilldash9x/vistest/internal/runner"
)

type runOptions struct {
	baseURL     string
	concurrency int
	reportFile  string
	format      string
	headless    bool
}

func newRunCmd() *cobra.Command {
	return newRunCmdWithOptions(&runOptions{})
}

func newRunCmdWithOptions(opts *runOptions) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run every test of a suite file",
		Long: `Runs the natural language tests of a suite file. Each test gets its own
browser tab; tests run concurrently up to --concurrency. The command exits
non-zero when any test fails or errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if err := applyRunOverrides(cmd, cfg, opts); err != nil {
				return err
			}
			return runSuite(cmd, cfg, args[0], opts.format)
		},
	}

	runCmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL for the suite (overrides the suite file and config)")
	runCmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Number of tests to run at once (overrides config)")
	runCmd.Flags().StringVarP(&opts.reportFile, "report", "o", "", "Write the report to this file instead of stdout")
	runCmd.Flags().StringVarP(&opts.format, "format", "f", reporting.FormatText, "Report format (text, json)")
	runCmd.Flags().BoolVar(&opts.headless, "headless", true, "Run the browser headless (overrides config)")
	return runCmd
}

// applyRunOverrides copies explicitly set flags onto cfg and revalidates it.
func applyRunOverrides(cmd *cobra.Command, cfg config.Interface, opts *runOptions) error {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.SetRunnerBaseURL(opts.baseURL)
	}
	if flags.Changed("concurrency") {
		cfg.SetRunnerConcurrency(opts.concurrency)
	}
	if flags.Changed("report") {
		cfg.SetRunnerReportFile(opts.reportFile)
	}
	if flags.Changed("headless") {
		cfg.SetBrowserHeadless(opts.headless)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func runSuite(cmd *cobra.Command, cfg config.Interface, path, format string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	// Parse before starting a browser so a bad file fails fast.
	suite, err := runner.LoadSuite(path)
	if err != nil {
		return err
	}

	reporter, err := reporting.New(format, cfg.Runner().ReportFile)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}
	defer func() {
		if cerr := reporter.Close(); cerr != nil {
			logger.Error("Failed to write report", zap.Error(cerr))
		}
	}()

	concurrency := cfg.Runner().Concurrency
	env, err := newEnvironment(ctx, cfg, logger, concurrency)
	if err != nil {
		return err
	}
	defer env.Close()

	sr := runner.NewSuiteRunner(logger, runner.SuiteParams{
		Model:          env.model,
		NewDriver:      env.newDriver,
		Reporter:       reporter,
		Recorder:       env.recorder(),
		Agent:          agentConfig(cfg.Agent()),
		SessionTimeout: cfg.Runner().SessionTimeout,
		Concurrency:    concurrency,
		BaseURL:        cfg.Runner().BaseURL,
	})

	result, err := sr.Run(ctx, suite)
	if err != nil {
		return err
	}
	if result.Status() != reporting.StatusPassed {
		return fmt.Errorf("suite %q: %d passed, %d failed, %d errored",
			result.Name, result.Passed, result.Failed, result.Errored)
	}
	return nil
}
