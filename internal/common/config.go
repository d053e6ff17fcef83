package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Browser engines
const (
	EngineChromeDP   = "chromedp"
	EnginePlaywright = "playwright"
)

// Config represents the suite configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "ci" - recorded in reports
	Browser     BrowserConfig   `toml:"browser"`
	Scenarios   ScenariosConfig `toml:"scenarios"`
	Runner      RunnerConfig    `toml:"runner"`
	Output      OutputConfig    `toml:"output"`
	Logging     LoggingConfig   `toml:"logging"`
	Schedule    ScheduleConfig  `toml:"schedule"`
}

// BrowserConfig controls how browser sessions are provisioned
type BrowserConfig struct {
	Engine          string `toml:"engine" validate:"oneof=chromedp playwright"`
	Headless        bool   `toml:"headless"`
	DisableGPU      bool   `toml:"disable_gpu"`
	NoSandbox       bool   `toml:"no_sandbox"`
	ExecPath        string `toml:"exec_path"` // Optional Chrome/Chromium binary, auto-detected when empty
	UserAgent       string `toml:"user_agent"`
	Locale          string `toml:"locale"`
	WindowWidth     int    `toml:"window_width" validate:"gt=0"`
	WindowHeight    int    `toml:"window_height" validate:"gt=0"`
	DefaultWait     string `toml:"default_wait" validate:"required"`      // Element lookup window, e.g. "4s"
	PageLoadTimeout string `toml:"page_load_timeout" validate:"required"` // Navigation window, e.g. "60s"
}

// ScenariosConfig holds the literal expectations of each scenario
type ScenariosConfig struct {
	Landing LandingConfig `toml:"landing"`
	Search  SearchConfig  `toml:"search"`
}

type LandingConfig struct {
	Enabled   bool   `toml:"enabled"`
	URL       string `toml:"url" validate:"required,url"`
	BrandText string `toml:"brand_text" validate:"required"`
}

type SearchConfig struct {
	Enabled         bool   `toml:"enabled"`
	URL             string `toml:"url" validate:"required,url"`
	Query           string `toml:"query" validate:"required"`
	InputSelector   string `toml:"input_selector" validate:"required"`
	TriggerSelector string `toml:"trigger_selector" validate:"required"`
	ResultsSelector string `toml:"results_selector" validate:"required"`
}

type RunnerConfig struct {
	ScenarioTimeout string `toml:"scenario_timeout" validate:"required"` // Upper bound for one scenario including browser startup
}

type OutputConfig struct {
	ResultsDir    string `toml:"results_dir" validate:"required"`
	Screenshots   bool   `toml:"screenshots"`    // Capture a full page PNG when a scenario fails
	HTMLSnapshots bool   `toml:"html_snapshots"` // Capture page HTML when a scenario fails
	JSONReport    bool   `toml:"json_report"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ScheduleConfig enables monitoring mode when Cron is set
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// NewDefaultConfig returns the configuration used when no file overrides it.
// Lookups wait 4s and page loads 60s.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Browser: BrowserConfig{
			Engine:          EngineChromeDP,
			Headless:        true,
			DisableGPU:      true,
			NoSandbox:       true,
			UserAgent:       "",
			Locale:          "pt-BR",
			WindowWidth:     1920,
			WindowHeight:    1080,
			DefaultWait:     "4s",
			PageLoadTimeout: "60s",
		},
		Scenarios: ScenariosConfig{
			Landing: LandingConfig{
				Enabled:   true,
				URL:       "https://www.mercadolivre.com.br",
				BrandText: "Mercado Livre",
			},
			Search: SearchConfig{
				Enabled:         true,
				URL:             "https://www.mercadolivre.com",
				Query:           "camiseta",
				InputSelector:   ".nav-search-input",
				TriggerSelector: ".nav-icon-search",
				ResultsSelector: ".ui-search-search-result__quantity-results",
			},
		},
		Runner: RunnerConfig{
			ScenarioTimeout: "2m",
		},
		Output: OutputConfig{
			ResultsDir:    "./results",
			Screenshots:   true,
			HTMLSnapshots: true,
			JSONReport:    true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> .env -> env
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies VITRINE_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VITRINE_ENV"); env != "" {
		config.Environment = env
	}

	// Browser configuration
	if engine := os.Getenv("VITRINE_BROWSER_ENGINE"); engine != "" {
		config.Browser.Engine = strings.ToLower(engine)
	}
	if headless := os.Getenv("VITRINE_BROWSER_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if execPath := os.Getenv("VITRINE_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if wait := os.Getenv("VITRINE_BROWSER_DEFAULT_WAIT"); wait != "" {
		config.Browser.DefaultWait = wait
	}
	if timeout := os.Getenv("VITRINE_BROWSER_PAGE_LOAD_TIMEOUT"); timeout != "" {
		config.Browser.PageLoadTimeout = timeout
	}

	// Scenario configuration
	if url := os.Getenv("VITRINE_LANDING_URL"); url != "" {
		config.Scenarios.Landing.URL = url
	}
	if brand := os.Getenv("VITRINE_LANDING_BRAND_TEXT"); brand != "" {
		config.Scenarios.Landing.BrandText = brand
	}
	if url := os.Getenv("VITRINE_SEARCH_URL"); url != "" {
		config.Scenarios.Search.URL = url
	}
	if query := os.Getenv("VITRINE_SEARCH_QUERY"); query != "" {
		config.Scenarios.Search.Query = query
	}

	// Output configuration
	if dir := os.Getenv("VITRINE_RESULTS_DIR"); dir != "" {
		config.Output.ResultsDir = dir
	}

	// Logging configuration
	if level := os.Getenv("VITRINE_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("VITRINE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if schedule := os.Getenv("VITRINE_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
	}
}

// FlagOverrides carries command-line values that take precedence over everything else.
// Zero values leave the loaded configuration untouched.
type FlagOverrides struct {
	Engine     string
	Query      string
	ResultsDir string
	Schedule   string
	Headed     bool
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority)
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.Engine != "" {
		config.Browser.Engine = strings.ToLower(flags.Engine)
	}
	if flags.Query != "" {
		config.Scenarios.Search.Query = flags.Query
	}
	if flags.ResultsDir != "" {
		config.Output.ResultsDir = flags.ResultsDir
	}
	if flags.Schedule != "" {
		config.Schedule.Cron = flags.Schedule
	}
	if flags.Headed {
		config.Browser.Headless = false
	}
}

// Validate checks struct tags and that every duration string parses to a positive value
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"browser.default_wait":      c.Browser.DefaultWait,
		"browser.page_load_timeout": c.Browser.PageLoadTimeout,
		"runner.scenario_timeout":   c.Runner.ScenarioTimeout,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, value)
		}
	}

	if !c.Scenarios.Landing.Enabled && !c.Scenarios.Search.Enabled {
		return fmt.Errorf("at least one scenario must be enabled")
	}

	return nil
}

// DefaultWait returns the parsed element lookup window
func (c *Config) DefaultWait() time.Duration {
	return mustDuration(c.Browser.DefaultWait, 4*time.Second)
}

// PageLoadTimeout returns the parsed navigation window
func (c *Config) PageLoadTimeout() time.Duration {
	return mustDuration(c.Browser.PageLoadTimeout, 60*time.Second)
}

// ScenarioTimeout returns the parsed per-scenario upper bound
func (c *Config) ScenarioTimeout() time.Duration {
	return mustDuration(c.Runner.ScenarioTimeout, 2*time.Minute)
}

// mustDuration parses s, falling back when it is empty or malformed.
// Validate reports malformed values before they reach here.
func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
