// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tabmirror/tabmirror/lib/clock"
	"github.com/tabmirror/tabmirror/lib/config"
	"github.com/tabmirror/tabmirror/lib/journal"
	"github.com/tabmirror/tabmirror/lib/scenario"
	"github.com/tabmirror/tabmirror/lib/version"
	"github.com/tabmirror/tabmirror/lib/workbench"
	"github.com/tabmirror/tabmirror/mirror"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var scenarioFlag string
	var journalPath string
	var logLevel string
	var jsonOutput bool

	flagSet := pflag.NewFlagSet("tabmirror-sim", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file path (overrides TABMIRROR_CONFIG)")
	flagSet.StringVar(&scenarioFlag, "scenario", "", "scenario file to run (same as the positional argument)")
	flagSet.StringVar(&journalPath, "journal", "", "journal snapshots to this file (enables journaling, overrides the config)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config)")
	flagSet.BoolVar(&jsonOutput, "json", false, "print the final model as JSON instead of text")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other
	// tabmirror binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("tabmirror-sim %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = journalPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}

	scenarioPath, err := resolveScenarioPath(flagSet.Args(), scenarioFlag, cfg)
	if err != nil {
		return err
	}
	script, err := scenario.ReadFile(scenarioPath)
	if err != nil {
		return err
	}
	if script.Name == "" {
		script.Name = scenario.NameFromPath(scenarioPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bench := workbench.New(logger)
	runner, err := scenario.NewRunner(scenario.RunnerConfig{
		Workbench: bench,
		Clock:     clock.Real(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// The runner is always a consumer; the journal recorder joins it
	// when journaling is enabled.
	consumer := mirror.Consumer(runner)
	var writer *journal.Writer
	var recorder *journal.Recorder
	if cfg.Journal.Enabled {
		if err := cfg.EnsureJournalDir(); err != nil {
			return err
		}
		compression, err := cfg.JournalCompression()
		if err != nil {
			return err
		}
		writer, err = journal.Create(cfg.Journal.Path, compression)
		if err != nil {
			return err
		}
		defer writer.Close()
		recorder = journal.NewRecorder(writer, clock.Real(), logger)
		consumer = mirror.MultiConsumer(runner, recorder)
		logger.Info("journaling snapshots",
			"path", cfg.Journal.Path, "compression", compression.String())
	}

	engine, err := mirror.New(mirror.EngineConfig{
		Authority: bench,
		Consumer:  consumer,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// The engine loop owns the mirrored model; it must be stopped and
	// drained before the journal writer is closed.
	engineCtx, engineCancel := context.WithCancel(ctx)
	defer engineCancel()
	engineDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(engineCtx) }()
	bench.SignalReady()

	runErr := runner.Run(ctx, engine, script)

	engineCancel()
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine stopped", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("scenario %q: %w", script.Name, runErr)
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return fmt.Errorf("journal recording failed: %w", err)
		}
		if err := writer.Close(); err != nil {
			return err
		}
	}

	model := runner.LatestModel()
	if jsonOutput {
		encoded, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding final model: %w", err)
		}
		fmt.Println(string(encoded))
	} else {
		fmt.Print(renderModel(model))
	}

	stats := engine.Stats()
	fmt.Printf("scenario %q: %d steps, %d snapshots (%d incremental, %d rebuilds), %d commands\n",
		script.Name, len(script.Steps), stats.Revision, stats.Incremental, stats.Rebuilds, stats.Commands)
	if recorder != nil {
		fmt.Printf("journaled %d snapshots to %s\n", recorder.Recorded(), cfg.Journal.Path)
	}
	return nil
}

// loadConfig loads the configuration: an explicit --config path wins,
// then TABMIRROR_CONFIG, then the built-in defaults. There is no file
// discovery beyond these two sources.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if os.Getenv("TABMIRROR_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// resolveScenarioPath picks the scenario file from the positional
// argument, the --scenario flag, or the config's scenario.path, in
// that order. Naming one both positionally and by flag is an error.
func resolveScenarioPath(args []string, scenarioFlag string, cfg *config.Config) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected argument: %s", args[1])
	}
	if len(args) == 1 {
		if scenarioFlag != "" {
			return "", fmt.Errorf("scenario named twice: positional %q and --scenario %q", args[0], scenarioFlag)
		}
		return args[0], nil
	}
	if scenarioFlag != "" {
		return scenarioFlag, nil
	}
	if cfg.Scenario.Path != "" {
		return cfg.Scenario.Path, nil
	}
	return "", fmt.Errorf("no scenario: name a scenario file on the command line or set scenario.path in the config")
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Tabmirror scenario simulator - runs a scripted editing session
through the mirror engine and prints the final mirrored model.

The scenario file is JSONC: an ordered list of steps, each one
workbench mutation (open, close, activate, activate_group, rename,
move), one mirror-side command (move_tab, close_tab), or a wait.

Usage:
  tabmirror-sim [flags] [scenario.jsonc]

Examples:
  # Run a scenario with default configuration
  tabmirror-sim review.jsonc

  # Journal every snapshot for later inspection
  tabmirror-sim --journal /tmp/review.journal review.jsonc

  # Use a config file and its scenario.path
  tabmirror-sim --config tabmirror.yaml

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
