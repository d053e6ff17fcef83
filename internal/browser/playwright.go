package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// PlaywrightLauncher shares one Chromium process and gives every session its
// own browser context, so cookies and storage never cross scenarios.
// Browsers must be installed beforehand:
//
//	go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
type PlaywrightLauncher struct {
	opts   Options
	logger arbor.ILogger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywrightLauncher creates a launcher for the playwright engine.
// The driver and browser are started lazily on the first session.
func NewPlaywrightLauncher(opts Options, logger arbor.ILogger) *PlaywrightLauncher {
	return &PlaywrightLauncher{
		opts:   opts,
		logger: logger,
	}
}

// Engine returns "playwright"
func (l *PlaywrightLauncher) Engine() string {
	return "playwright"
}

// ensureBrowser starts the playwright driver and Chromium once.
// The Chromium launch is bounded by ctx.
func (l *PlaywrightLauncher) ensureBrowser(ctx context.Context) (playwright.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil && l.browser.IsConnected() {
		return l.browser, nil
	}

	if l.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright driver: %w", err)
		}
		l.pw = pw
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser launch cancelled: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Timeout:  boundedTimeout(ctx, l.opts.PageLoadTimeout),
	}
	if l.opts.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ExecPath)
	}
	var args []string
	if l.opts.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	if l.opts.DisableGPU {
		args = append(args, "--disable-gpu")
	}
	launchOpts.Args = args

	browser, err := l.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}
	l.browser = browser

	l.logger.Info().
		Bool("headless", l.opts.Headless).
		Str("version", browser.Version()).
		Msg("Playwright chromium launched")

	return browser, nil
}

// NewSession opens an isolated browser context with a single page
func (l *PlaywrightLauncher) NewSession(ctx context.Context) (interfaces.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context already cancelled before session start: %w", err)
	}

	browser, err := l.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  l.opts.WindowWidth,
			Height: l.opts.WindowHeight,
		},
	}
	if l.opts.Locale != "" {
		contextOpts.Locale = playwright.String(l.opts.Locale)
	}
	if l.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(l.opts.UserAgent)
	}

	browserContext, err := browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		browserContext.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.SetDefaultTimeout(milliseconds(l.opts.DefaultWait))
	page.SetDefaultNavigationTimeout(milliseconds(l.opts.PageLoadTimeout))

	session := &playwrightSession{
		context: browserContext,
		page:    page,
		opts:    l.opts,
		logger:  l.logger,
	}

	page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() != "error" {
			return
		}
		session.record(models.BrowserEvent{
			Kind:    models.EventConsole,
			Level:   "error",
			Message: msg.Text(),
		})
	})
	page.OnPageError(func(err error) {
		session.record(models.BrowserEvent{
			Kind:    models.EventException,
			Message: err.Error(),
		})
	})
	page.OnRequestFailed(func(req playwright.Request) {
		message := "request failed"
		if failure := req.Failure(); failure != nil {
			message = failure.Error()
		}
		session.record(models.BrowserEvent{
			Kind:    models.EventRequestFailed,
			Message: message,
			URL:     req.URL(),
		})
	})

	return session, nil
}

// Close shuts down Chromium and the playwright driver
func (l *PlaywrightLauncher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.browser != nil {
		if err := l.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		l.browser = nil
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.pw = nil
	}
	return errors.Join(errs...)
}

// playwrightSession is one page inside its own browser context
type playwrightSession struct {
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	logger  arbor.ILogger

	mu     sync.Mutex
	events []models.BrowserEvent
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   boundedTimeout(ctx, s.opts.PageLoadTimeout),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", interfaces.ErrNavigation, url, err)
	}
	return nil
}

func (s *playwrightSession) BodyText(ctx context.Context) (string, error) {
	text, err := s.page.Locator("body").TextContent(playwright.LocatorTextContentOptions{
		Timeout: boundedTimeout(ctx, s.opts.DefaultWait),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read body text: %w", err)
	}
	return text, nil
}

func (s *playwrightSession) WaitExists(ctx context.Context, selector string) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: boundedTimeout(ctx, s.opts.DefaultWait),
	})
	return s.lookupError(ctx, selector, err)
}

func (s *playwrightSession) Type(ctx context.Context, selector, text string) error {
	err := s.page.Locator(selector).First().PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Timeout: boundedTimeout(ctx, s.opts.DefaultWait),
	})
	return s.lookupError(ctx, selector, err)
}

func (s *playwrightSession) Click(ctx context.Context, selector string) error {
	err := s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: boundedTimeout(ctx, s.opts.DefaultWait),
	})
	return s.lookupError(ctx, selector, err)
}

// lookupError only classifies playwright timeouts as missing elements
func (s *playwrightSession) lookupError(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return lookupError(ctx, selector, err)
	}
	return fmt.Errorf("lookup of %q failed: %w", selector, err)
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Timeout:  boundedTimeout(ctx, s.opts.PageLoadTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (s *playwrightSession) Events() []models.BrowserEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.BrowserEvent, len(s.events))
	copy(events, s.events)
	return events
}

func (s *playwrightSession) Close() error {
	return s.context.Close()
}

func (s *playwrightSession) record(event models.BrowserEvent) {
	event.Time = time.Now()

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	s.logger.Debug().
		Str("kind", string(event.Kind)).
		Str("url", event.URL).
		Str("message", event.Message).
		Msg("Browser diagnostic")
}

// boundedTimeout returns d in playwright milliseconds, shortened to ctx's deadline when sooner
func boundedTimeout(ctx context.Context, d time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < d {
			d = remaining
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return playwright.Float(milliseconds(d))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
