package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/scenarios"
	"github.com/ternarybob/vitrine/internal/testutil"
)

// fixtureScenario builds the configured scenario pointed at a fixture storefront
func fixtureScenario(t *testing.T, markup testutil.Markup, name string) scenarios.Scenario {
	t.Helper()

	server := testutil.NewStorefront(t, markup)

	config := common.NewDefaultConfig()
	config.Browser.DefaultWait = "2s"
	config.Scenarios.Landing.URL = server.URL + "/"
	config.Scenarios.Search.URL = server.URL + "/"

	selected, err := scenarios.Select(scenarios.FromConfig(config), []string{name})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	return selected[0]
}

// runFixtureScenario runs one scenario in a fresh session from launcher
func runFixtureScenario(t *testing.T, launcher interfaces.Launcher, markup testutil.Markup, name string) error {
	t.Helper()

	scenario := fixtureScenario(t, markup, name)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := launcher.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	return scenario.Run(ctx, session)
}

// assertScenarioContract checks both scenarios pass on the current markup and
// the search flow fails on the changed markup, naming the missing search input
func assertScenarioContract(t *testing.T, launcher interfaces.Launcher) {
	t.Run("landing passes on current markup", func(t *testing.T) {
		assert.NoError(t, runFixtureScenario(t, launcher, testutil.MarkupCurrent, "landing-page"))
	})

	t.Run("search passes on current markup", func(t *testing.T) {
		assert.NoError(t, runFixtureScenario(t, launcher, testutil.MarkupCurrent, "search"))
	})

	t.Run("search fails on changed markup", func(t *testing.T) {
		err := runFixtureScenario(t, launcher, testutil.MarkupChanged, "search")
		require.Error(t, err)

		var assertionErr *scenarios.AssertionError
		require.ErrorAs(t, err, &assertionErr)
		assert.Equal(t, testutil.InputSelector, assertionErr.Selector)
		assert.ErrorIs(t, err, interfaces.ErrElementNotFound)
	})
}

func TestChromeDP_ScenariosAgainstStorefront(t *testing.T) {
	opts := DefaultOptions()
	opts.ExecPath = requireChrome(t)
	opts.DefaultWait = 2 * time.Second
	opts.PageLoadTimeout = 15 * time.Second

	launcher := NewChromeDPLauncher(opts, arbor.NewLogger())
	t.Cleanup(func() { launcher.Close() })

	assertScenarioContract(t, launcher)
}

func TestPlaywright_ScenariosAgainstStorefront(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWait = 2 * time.Second
	opts.PageLoadTimeout = 15 * time.Second

	launcher := NewPlaywrightLauncher(opts, arbor.NewLogger())
	t.Cleanup(func() { launcher.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := launcher.ensureBrowser(ctx); err != nil {
		t.Skipf("Playwright driver or chromium not installed - skipping: %v", err)
	}

	assertScenarioContract(t, launcher)
}
