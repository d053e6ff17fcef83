package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
)

// Options holds engine independent session settings
type Options struct {
	Headless        bool
	DisableGPU      bool
	NoSandbox       bool
	ExecPath        string
	UserAgent       string
	Locale          string
	WindowWidth     int
	WindowHeight    int
	DefaultWait     time.Duration // Upper bound for a single element lookup
	PageLoadTimeout time.Duration // Upper bound for a navigation
}

// DefaultOptions returns headless options with a 4s lookup window and 60s page load
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		DisableGPU:      true,
		NoSandbox:       true,
		Locale:          "pt-BR",
		WindowWidth:     1920,
		WindowHeight:    1080,
		DefaultWait:     4 * time.Second,
		PageLoadTimeout: 60 * time.Second,
	}
}

// OptionsFromConfig maps the browser section of the config onto Options
func OptionsFromConfig(config *common.Config) Options {
	return Options{
		Headless:        config.Browser.Headless,
		DisableGPU:      config.Browser.DisableGPU,
		NoSandbox:       config.Browser.NoSandbox,
		ExecPath:        config.Browser.ExecPath,
		UserAgent:       config.Browser.UserAgent,
		Locale:          config.Browser.Locale,
		WindowWidth:     config.Browser.WindowWidth,
		WindowHeight:    config.Browser.WindowHeight,
		DefaultWait:     config.DefaultWait(),
		PageLoadTimeout: config.PageLoadTimeout(),
	}
}

// NewLauncher returns the launcher for the configured engine
func NewLauncher(config *common.Config, logger arbor.ILogger) (interfaces.Launcher, error) {
	opts := OptionsFromConfig(config)

	switch config.Browser.Engine {
	case common.EngineChromeDP, "":
		return NewChromeDPLauncher(opts, logger), nil
	case common.EnginePlaywright:
		return NewPlaywrightLauncher(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", config.Browser.Engine)
	}
}

// lookupError maps a timed out lookup onto ErrElementNotFound.
// Cancellation by the caller is passed through untouched.
func lookupError(caller context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if caller.Err() != nil {
		return fmt.Errorf("lookup of %q cancelled: %w", selector, caller.Err())
	}
	return fmt.Errorf("%w: %q: %w", interfaces.ErrElementNotFound, selector, err)
}
