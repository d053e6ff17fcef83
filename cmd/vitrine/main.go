package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/browser"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/models"
	"github.com/ternarybob/vitrine/internal/report"
	"github.com/ternarybob/vitrine/internal/runner"
	"github.com/ternarybob/vitrine/internal/scenarios"
	"github.com/ternarybob/vitrine/internal/services/scheduler"
)

// multiFlag is a custom flag type that allows a flag to be repeated
type multiFlag []string

func (m *multiFlag) String() string {
	return fmt.Sprintf("%v", *m)
}

func (m *multiFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*m = append(*m, v)
		}
	}
	return nil
}

var (
	// Command-line flags
	configFiles   multiFlag // Multiple -config flags supported
	scenarioNames multiFlag // Multiple -scenario flags supported
	query         = flag.String("query", "", "Search query (overrides config)")
	engine        = flag.String("engine", "", "Browser engine: chromedp or playwright (overrides config)")
	headed        = flag.Bool("headed", false, "Show the browser window")
	schedule      = flag.String("schedule", "", "Cron schedule for monitoring mode, e.g. \"@every 15m\" (overrides config)")
	resultsDir    = flag.String("results", "", "Results directory (overrides config)")
	listOnly      = flag.Bool("list", false, "List available scenarios and exit")
	showVersion   = flag.Bool("version", false, "Print version information")
	showVersionV  = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(&scenarioNames, "scenario", "Run only the named scenario (repeatable)")
	flag.Var(&scenarioNames, "s", "Run only the named scenario (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Vitrine version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	os.Exit(run())
}

// Process exit codes
const (
	exitPassed = 0
	exitFailed = 1 // A scenario failed or the run was interrupted
	exitSetup  = 2 // Configuration, logger or browser setup failed
)

// exitCode maps a finished one-shot run onto the process exit code.
// An interrupted run never counts as a pass, even when nothing failed.
func exitCode(rep *models.RunReport, runErr error) int {
	if runErr != nil || !rep.Success() {
		return exitFailed
	}
	return exitPassed
}

// run returns the process exit code
func run() int {

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("vitrine.toml"); err == nil {
			configFiles = append(configFiles, "vitrine.toml")
		} else if _, err := os.Stat("deployments/local/vitrine.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/vitrine.toml")
		}
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> .env -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Validate
	// 4. Initialize logger
	// 5. Print banner
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return exitSetup
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		Engine:     *engine,
		Query:      *query,
		ResultsDir: *resultsDir,
		Schedule:   *schedule,
		Headed:     *headed,
	})

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitSetup
	}
	if config.Schedule.Cron != "" {
		if err := scheduler.ValidateSchedule(config.Schedule.Cron); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			return exitSetup
		}
	}

	common.InstallCrashHandler(filepath.Join(config.Output.ResultsDir, "logs"))
	defer common.RecoverWithCrashFile()

	logger := common.SetupLogger(config)

	suite, err := scenarios.Select(scenarios.FromConfig(config), scenarioNames)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid scenario selection")
		return exitSetup
	}

	if *listOnly {
		for _, s := range suite {
			fmt.Printf("%-14s %s\n", s.Name(), s.Description())
		}
		return exitPassed
	}

	common.PrintBanner(config, logger)

	common.SetCrashContext("config_files", strings.Join(configFiles, ","))
	common.SetCrashContext("engine", config.Browser.Engine)
	common.SetCrashContext("schedule", config.Schedule.Cron)

	logger.Debug().
		Strs("config_files", configFiles).
		Strs("scenarios", scenarios.Names(suite)).
		Str("default_wait", config.Browser.DefaultWait).
		Str("page_load_timeout", config.Browser.PageLoadTimeout).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	launcher, err := browser.NewLauncher(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create browser launcher")
		return exitSetup
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Browser launcher close returned")
		}
	}()

	suiteRunner := runner.New(launcher, runner.OptionsFromConfig(config), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() *models.RunReport {
		rep := suiteRunner.Run(ctx, suite)
		report.PrintSummary(os.Stdout, rep)
		return rep
	}

	if config.Schedule.Cron == "" {
		rep := runOnce()
		if ctx.Err() != nil {
			logger.Warn().Msg("Run interrupted before completion")
		}
		return exitCode(rep, ctx.Err())
	}

	// Monitoring mode: run now, then on schedule until interrupted
	runOnce()

	sched := scheduler.NewService(logger)
	err = sched.Start(config.Schedule.Cron, func() error {
		rep := runOnce()
		if !rep.Success() {
			_, failed, _ := rep.Counts()
			return fmt.Errorf("%d of %d scenarios failed", failed, len(rep.Results))
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return exitSetup
	}

	<-ctx.Done()
	logger.Info().Msg("Interrupt received, stopping scheduler")

	status := sched.Status()
	logger.Info().
		Int("runs", status.RunCount).
		Str("last_error", status.LastError).
		Msg("Monitoring summary")

	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			logger.Warn().Err(err).Msg("Scheduler stop returned")
		}
	}
	return exitPassed
}
