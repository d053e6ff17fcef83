package runner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
	"github.com/ternarybob/vitrine/internal/scenarios"
	"github.com/ternarybob/vitrine/internal/testutil"
)

const (
	landingURL = "https://www.mercadolivre.com.br"
	searchURL  = "https://www.mercadolivre.com"
)

func defaultSuite(t *testing.T) []scenarios.Scenario {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Browser.DefaultWait = "100ms"
	return scenarios.FromConfig(config)
}

func healthySession() *testutil.FakeSession {
	return testutil.NewFakeSession(map[string]string{
		landingURL: "Mercado Livre - Compre online",
		searchURL:  "Mercado Livre",
	}, testutil.InputSelector, testutil.TriggerSelector, testutil.ResultsSelector)
}

func newRunner(launcher interfaces.Launcher, resultsDir string) *Runner {
	return New(launcher, Options{
		ResultsDir:      resultsDir,
		ScenarioTimeout: 5 * time.Second,
		Screenshots:     true,
		HTMLSnapshots:   true,
		JSONReport:      true,
	}, arbor.NewLogger())
}

func TestRun_AllPass(t *testing.T) {
	launcher := &testutil.FakeLauncher{New: healthySession}
	dir := t.TempDir()

	rep := newRunner(launcher, dir).Run(context.Background(), defaultSuite(t))

	require.Len(t, rep.Results, 2)
	assert.True(t, rep.Success())
	assert.Equal(t, "fake", rep.Engine)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, models.StatusPassed, rep.Results[0].Status)
	assert.Equal(t, models.StatusPassed, rep.Results[1].Status)

	// One session per scenario, each closed afterwards
	require.Len(t, launcher.Sessions, 2)
	for _, s := range launcher.Sessions {
		assert.True(t, s.Closed)
	}

	// Passing scenarios leave no snapshots
	assert.Empty(t, rep.Results[0].Screenshot)

	data, err := os.ReadFile(filepath.Join(rep.ResultsDir, "report.json"))
	require.NoError(t, err)
	var saved models.RunReport
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, rep.RunID, saved.RunID)
}

func TestRun_FailureDoesNotStopLaterScenarios(t *testing.T) {
	calls := 0
	launcher := &testutil.FakeLauncher{New: func() *testutil.FakeSession {
		calls++
		s := healthySession()
		if calls == 1 {
			s.Pages[landingURL] = "Site em manutenção"
		}
		return s
	}}

	rep := newRunner(launcher, t.TempDir()).Run(context.Background(), defaultSuite(t))

	require.Len(t, rep.Results, 2)
	assert.Equal(t, models.StatusFailed, rep.Results[0].Status)
	assert.Contains(t, rep.Results[0].Error, "Mercado Livre")
	assert.Equal(t, models.StatusPassed, rep.Results[1].Status)
	assert.False(t, rep.Success())
}

func TestRun_ChangedMarkupFailsWithSnapshots(t *testing.T) {
	launcher := &testutil.FakeLauncher{New: func() *testutil.FakeSession {
		s := testutil.NewFakeSession(map[string]string{searchURL: ""}) // no selectors present
		s.PageHTML = `<html><body><input class="hdr-search-input"></body></html>`
		s.EventsOut = []models.BrowserEvent{{Kind: models.EventConsole, Message: "Uncaught TypeError"}}
		return s
	}}
	suite, err := scenarios.Select(defaultSuite(t), []string{"search"})
	require.NoError(t, err)

	rep := newRunner(launcher, t.TempDir()).Run(context.Background(), suite)

	require.Len(t, rep.Results, 1)
	res := rep.Results[0]
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Contains(t, res.Error, ".nav-search-input")
	require.Len(t, res.Events, 1)

	require.NotEmpty(t, res.Screenshot)
	png, err := os.ReadFile(res.Screenshot)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	require.NotEmpty(t, res.HTML)
	assert.FileExists(t, res.HTML)

	require.Len(t, res.Selectors, 3)
	for _, m := range res.Selectors {
		assert.Zero(t, m.Count, m.Selector)
	}
}

func TestRun_SessionStartFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{StartErr: errors.New("chrome not found")}

	rep := newRunner(launcher, "").Run(context.Background(), defaultSuite(t))

	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		assert.Equal(t, models.StatusFailed, res.Status)
		assert.Contains(t, res.Error, "chrome not found")
	}
	assert.Empty(t, rep.ResultsDir)
}

func TestRun_PanicIsRecorded(t *testing.T) {
	calls := 0
	launcher := &testutil.FakeLauncher{New: func() *testutil.FakeSession {
		calls++
		s := healthySession()
		if calls == 1 {
			s.PanicOn = "Navigate"
		}
		return s
	}}

	rep := newRunner(launcher, "").Run(context.Background(), defaultSuite(t))

	require.Len(t, rep.Results, 2)
	assert.Equal(t, models.StatusFailed, rep.Results[0].Status)
	assert.Contains(t, rep.Results[0].Error, "panic")
	assert.Equal(t, models.StatusPassed, rep.Results[1].Status)
	assert.True(t, launcher.Sessions[0].Closed)
}

func TestRun_CancelledContextSkipsRemaining(t *testing.T) {
	launcher := &testutil.FakeLauncher{New: healthySession}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := newRunner(launcher, "").Run(ctx, defaultSuite(t))

	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		assert.Equal(t, models.StatusSkipped, res.Status)
	}
	assert.Empty(t, launcher.Sessions)
	assert.True(t, rep.Success())
}

func TestRun_SnapshotsDisabled(t *testing.T) {
	launcher := &testutil.FakeLauncher{New: func() *testutil.FakeSession {
		return testutil.NewFakeSession(map[string]string{searchURL: ""})
	}}
	suite, err := scenarios.Select(defaultSuite(t), []string{"search"})
	require.NoError(t, err)

	r := New(launcher, Options{ResultsDir: t.TempDir(), ScenarioTimeout: time.Second}, arbor.NewLogger())
	rep := r.Run(context.Background(), suite)

	res := rep.Results[0]
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Empty(t, res.Screenshot)
	assert.Empty(t, res.HTML)
	assert.NotContains(t, launcher.Sessions[0].CallLog(), "Screenshot")
}

func TestOptionsFromConfig(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Runner.ScenarioTimeout = "45s"

	opts := OptionsFromConfig(config)
	assert.Equal(t, 45*time.Second, opts.ScenarioTimeout)
	assert.Equal(t, "./results", opts.ResultsDir)
	assert.True(t, opts.Screenshots)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "landing_page", sanitizeName("Landing Page"))
}
