package main

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/pagecheck/pkg/logging"
	"github.com/entrhq/pagecheck/pkg/runner"
	"github.com/spf13/cobra"
)

// runFlags holds the command-line overrides for one run invocation
type runFlags struct {
	configFile string
	baseURL    string
	outputDir  string
	headed     bool
	timeout    time.Duration
	verbosity  string
}

func newRunCmd(launch runner.LaunchFunc) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run built-in scenarios (all of them when none are named)",
		Example: `  # Run every scenario against the local dev server
  pagecheck run

  # Only the modal probes, with a visible browser
  pagecheck run modals --headed

  # Another deployment, settings from a file
  pagecheck run --config pagecheck.yaml --base-url http://127.0.0.1:4000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, launch, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "Path to configuration file (YAML)")
	f.StringVar(&flags.baseURL, "base-url", runner.DefaultBaseURL, "Origin of the application under test")
	f.StringVarP(&flags.outputDir, "output-dir", "o", runner.DefaultOutputDir, "Directory screenshots are written to")
	f.BoolVar(&flags.headed, "headed", false, "Show the browser window")
	f.DurationVar(&flags.timeout, "timeout", 0, "Deadline for the whole run (0 for none)")
	f.StringVarP(&flags.verbosity, "verbosity", "v", "normal", "Console verbosity: quiet, normal, verbose or debug")

	return cmd
}

func runScenarios(cmd *cobra.Command, launch runner.LaunchFunc, flags *runFlags, args []string) error {
	config, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	scenarios, err := resolveScenarios(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	logger, err := logging.Open(config.Logging.Dir)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	defer logger.Close()

	level, err := runner.ParseVerbosity(config.Logging.Verbosity)
	if err != nil {
		return err
	}
	console := runner.NewConsole(cmd.OutOrStdout(), level)

	r, err := runner.New(config,
		runner.WithLauncher(launch),
		runner.WithConsole(console),
		runner.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	failed := 0
	for _, scenario := range scenarios {
		result, err := r.Run(ctx, scenario)
		if err != nil {
			return err
		}
		if !result.Succeeded() {
			failed++
		}
	}

	if failed > 0 {
		console.Warningf("%d of %d scenario(s) failed; see the diagnostic screenshot", failed, len(scenarios))
	}
	if path := logger.Path(); path != "" {
		console.Verbosef("debug log: %s", path)
	}
	return nil
}

// loadConfig builds the run configuration: defaults, then the config file,
// then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, flags *runFlags) (*runner.Config, error) {
	config := runner.DefaultConfig()
	if flags.configFile != "" {
		loaded, err := runner.LoadConfig(flags.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		config = loaded
	}

	applyOverrides(config, flags, cmd.Flags().Changed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyOverrides copies flags onto config, but only the ones that were set on
// the command line so file values are not clobbered by flag defaults.
func applyOverrides(config *runner.Config, flags *runFlags, changed func(name string) bool) {
	if changed("base-url") {
		config.BaseURL = flags.baseURL
	}
	if changed("output-dir") {
		config.OutputDir = flags.outputDir
	}
	if changed("headed") {
		config.Headless = !flags.headed
	}
	if changed("verbosity") {
		config.Logging.Verbosity = flags.verbosity
	}
}

func resolveScenarios(names []string) ([]*runner.Scenario, error) {
	if len(names) == 0 {
		names = runner.Names()
	}

	scenarios := make([]*runner.Scenario, 0, len(names))
	for _, name := range names {
		scenario, err := runner.Builtin(name)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}
