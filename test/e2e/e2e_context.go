// e2e_context.go - Shared live test context for the storefront suite.
// NOTE: This is NOT a test file - it contains shared test infrastructure.

package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/browser"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
)

var (
	testRunDir     string
	testRunDirOnce sync.Once
)

// getOrCreateTestRunDir returns the directory shared by every test in this run
func getOrCreateTestRunDir(base string) (string, error) {
	var err error
	testRunDirOnce.Do(func() {
		testRunDir, err = resolveRunDir(base)
	})
	if err != nil {
		return "", err
	}
	return testRunDir, nil
}

// resolveRunDir picks TEST_RESULTS_DIR or a timestamped dir under base and creates it
func resolveRunDir(base string) (string, error) {
	dir := os.Getenv("TEST_RESULTS_DIR")
	if dir == "" {
		dir = filepath.Join(base, time.Now().Format("e2e-2006-01-02-15-04-05"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create test run directory: %w", err)
	}
	return dir, nil
}

// E2ETestContext owns one browser session for one test
type E2ETestContext struct {
	T       *testing.T
	Ctx     context.Context
	Config  *common.Config
	Session interfaces.Session
	Logger  arbor.ILogger

	cleanup []func()
}

// NewE2ETestContext skips unless live tests are enabled, then starts a fresh session
func NewE2ETestContext(t *testing.T, timeout time.Duration) *E2ETestContext {
	t.Helper()

	if !Enabled() {
		t.Skip("VITRINE_E2E not set - skipping live storefront test")
	}

	config, err := LoadTestConfig()
	if err != nil {
		t.Fatalf("Failed to load test config: %v", err)
	}

	logger := common.GetLogger()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), timeout)

	launcher, err := browser.NewLauncher(config, logger)
	if err != nil {
		cancelTimeout()
		t.Fatalf("Failed to create launcher: %v", err)
	}

	session, err := launcher.NewSession(ctx)
	if err != nil {
		cancelTimeout()
		launcher.Close()
		t.Fatalf("Failed to start browser session: %v", err)
	}

	etc := &E2ETestContext{
		T:       t,
		Ctx:     ctx,
		Config:  config,
		Session: session,
		Logger:  logger,
	}

	// Cleanup runs in reverse order (LIFO)
	etc.cleanup = append(etc.cleanup, func() { cancelTimeout() })
	etc.cleanup = append(etc.cleanup, func() {
		if err := launcher.Close(); err != nil {
			t.Logf("Warning: launcher close returned: %v", err)
		}
	})
	etc.cleanup = append(etc.cleanup, func() {
		if err := session.Close(); err != nil {
			t.Logf("Warning: session close returned: %v", err)
		}
	})

	return etc
}

// Cleanup captures a screenshot on failure and releases the session. Call this with defer.
func (etc *E2ETestContext) Cleanup() {
	if etc.T.Failed() {
		etc.Screenshot("failure")
		etc.T.Log("=== TEST RESULT: FAIL ===")
	} else {
		etc.T.Log("=== TEST RESULT: PASS ===")
	}

	for i := len(etc.cleanup) - 1; i >= 0; i-- {
		etc.cleanup[i]()
	}
}

// Screenshot saves a full page PNG named after the test
func (etc *E2ETestContext) Screenshot(name string) {
	runDir, err := getOrCreateTestRunDir(etc.Config.Output.ResultsDir)
	if err != nil {
		etc.T.Logf("Warning: %v", err)
		return
	}

	// Use a fresh context; the test context may already be past its deadline
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	png, err := etc.Session.Screenshot(ctx)
	if err != nil {
		etc.T.Logf("Warning: Failed to take screenshot: %v", err)
		return
	}

	path := filepath.Join(runDir, fmt.Sprintf("%s-%s.png", sanitizeName(etc.T.Name()), name))
	if err := os.WriteFile(path, png, 0644); err != nil {
		etc.T.Logf("Warning: Failed to save screenshot: %v", err)
		return
	}
	etc.T.Logf("Screenshot saved: %s", path)
}

// sanitizeName converts a test name to a safe filename
func sanitizeName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch r {
		case '/', ' ', '\\', ':':
			out[i] = '_'
		}
	}
	return string(out)
}
