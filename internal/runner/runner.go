package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
	"github.com/ternarybob/vitrine/internal/report"
	"github.com/ternarybob/vitrine/internal/scenarios"
)

// Options configures a Runner
type Options struct {
	Environment     string
	ResultsDir      string        // Base dir; each run writes to {ResultsDir}/{run-timestamp}
	ScenarioTimeout time.Duration // Upper bound for one scenario including browser startup
	Screenshots     bool
	HTMLSnapshots   bool
	JSONReport      bool
}

// OptionsFromConfig maps configuration onto runner options
func OptionsFromConfig(config *common.Config) Options {
	return Options{
		Environment:     config.Environment,
		ResultsDir:      config.Output.ResultsDir,
		ScenarioTimeout: config.ScenarioTimeout(),
		Screenshots:     config.Output.Screenshots,
		HTMLSnapshots:   config.Output.HTMLSnapshots,
		JSONReport:      config.Output.JSONReport,
	}
}

// Runner executes scenarios one after another, each in a fresh browser session
type Runner struct {
	launcher interfaces.Launcher
	opts     Options
	logger   arbor.ILogger
}

// New creates a runner
func New(launcher interfaces.Launcher, opts Options, logger arbor.ILogger) *Runner {
	if opts.ScenarioTimeout <= 0 {
		opts.ScenarioTimeout = 2 * time.Minute
	}
	return &Runner{
		launcher: launcher,
		opts:     opts,
		logger:   logger,
	}
}

// Run executes every scenario and returns the report. A failing scenario never
// stops the ones after it; a cancelled ctx marks the remaining ones skipped.
func (r *Runner) Run(ctx context.Context, suite []scenarios.Scenario) *models.RunReport {
	runID := common.NewRunID()
	logger := r.logger.WithCorrelationId(runID)
	common.SetCrashContext("run_id", runID)

	rep := &models.RunReport{
		RunID:       runID,
		Environment: r.opts.Environment,
		Engine:      r.launcher.Engine(),
		StartedAt:   time.Now(),
		Results:     make([]models.ScenarioResult, 0, len(suite)),
	}

	if r.opts.ResultsDir != "" {
		rep.ResultsDir = filepath.Join(r.opts.ResultsDir, rep.StartedAt.Format("run-2006-01-02-15-04-05"))
	}

	logger.Info().
		Int("scenarios", len(suite)).
		Str("engine", rep.Engine).
		Msg("Starting storefront run")

	for _, scenario := range suite {
		if err := ctx.Err(); err != nil {
			rep.Results = append(rep.Results, models.ScenarioResult{
				Name:        scenario.Name(),
				Description: scenario.Description(),
				Status:      models.StatusSkipped,
				StartedAt:   time.Now(),
				Error:       fmt.Sprintf("run cancelled: %v", err),
			})
			continue
		}

		rep.Results = append(rep.Results, r.runScenario(ctx, logger, rep.ResultsDir, scenario))
	}

	rep.CompletedAt = time.Now()

	if r.opts.JSONReport && rep.ResultsDir != "" {
		if path, err := report.WriteJSON(rep.ResultsDir, rep); err != nil {
			logger.Warn().Err(err).Msg("Failed to write JSON report")
		} else {
			logger.Debug().Str("path", path).Msg("JSON report written")
		}
	}

	passed, failed, skipped := rep.Counts()
	logger.Info().
		Int("passed", passed).
		Int("failed", failed).
		Int("skipped", skipped).
		Dur("duration", rep.Duration()).
		Msg("Storefront run complete")

	return rep
}

// runScenario owns the session lifecycle for one scenario
func (r *Runner) runScenario(ctx context.Context, logger arbor.ILogger, runDir string, scenario scenarios.Scenario) models.ScenarioResult {
	result := models.ScenarioResult{
		Name:        scenario.Name(),
		Description: scenario.Description(),
		StartedAt:   time.Now(),
	}

	scenarioCtx, cancel := context.WithTimeout(ctx, r.opts.ScenarioTimeout)
	defer cancel()

	common.SetCrashContext("scenario", scenario.Name())
	defer common.SetCrashContext("scenario", "")

	logger.Info().Str("scenario", scenario.Name()).Msg(scenario.Description())

	session, err := r.launcher.NewSession(scenarioCtx)
	if err != nil {
		result.Status = models.StatusFailed
		result.Error = fmt.Sprintf("failed to start browser session: %v", err)
		result.Duration = time.Since(result.StartedAt)
		logger.Error().Err(err).Str("scenario", scenario.Name()).Msg("Browser session failed to start")
		return result
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn().Err(err).Str("scenario", scenario.Name()).Msg("Browser session close returned")
		}
	}()

	err = common.SafeRun(logger, scenario.Name(), func() error {
		return scenario.Run(scenarioCtx, session)
	})
	result.Duration = time.Since(result.StartedAt)
	result.Events = session.Events()

	if err == nil {
		result.Status = models.StatusPassed
		logger.Info().
			Str("scenario", scenario.Name()).
			Dur("duration", result.Duration).
			Msg("✓ PASS")
		return result
	}

	result.Status = models.StatusFailed
	result.Error = err.Error()

	logger.Error().
		Str("scenario", scenario.Name()).
		Dur("duration", result.Duration).
		Bool("assertion", scenarios.IsAssertion(err)).
		Err(err).
		Msg("✗ FAIL")

	// Snapshot with a fresh context so a timed out scenario still gets its artifacts
	snapshotCtx, cancelSnapshot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSnapshot()
	r.snapshot(snapshotCtx, logger, runDir, scenario, session, &result)

	return result
}

// snapshot stores the failure screenshot and HTML and diagnoses the selectors
func (r *Runner) snapshot(ctx context.Context, logger arbor.ILogger, runDir string, scenario scenarios.Scenario, session interfaces.Session, result *models.ScenarioResult) {
	if runDir == "" || (!r.opts.Screenshots && !r.opts.HTMLSnapshots) {
		return
	}

	dir := filepath.Join(runDir, sanitizeName(scenario.Name()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Failed to create snapshot directory")
		return
	}

	if r.opts.Screenshots {
		if png, err := session.Screenshot(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to capture failure screenshot")
		} else {
			path := filepath.Join(dir, "failure.png")
			if err := os.WriteFile(path, png, 0644); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("Failed to save screenshot")
			} else {
				result.Screenshot = path
			}
		}
	}

	if r.opts.HTMLSnapshots {
		html, err := session.HTML(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to capture failure HTML")
			return
		}

		path := filepath.Join(dir, "failure.html")
		if err := os.WriteFile(path, []byte(html), 0644); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to save HTML snapshot")
		} else {
			result.HTML = path
		}

		if provider, ok := scenario.(scenarios.SelectorProvider); ok {
			matches, err := report.Diagnose(html, provider.Selectors())
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to diagnose selectors")
				return
			}
			result.Selectors = matches
			for _, m := range matches {
				logger.Info().
					Str("role", m.Role).
					Str("selector", m.Selector).
					Int("count", m.Count).
					Msg("Selector diagnostic")
			}
		}
	}
}

// sanitizeName converts a name to a safe directory name
func sanitizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
