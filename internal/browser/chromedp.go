package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// ChromeDPLauncher starts one headless Chrome process per session
type ChromeDPLauncher struct {
	opts   Options
	logger arbor.ILogger
}

// NewChromeDPLauncher creates a launcher for the chromedp engine
func NewChromeDPLauncher(opts Options, logger arbor.ILogger) *ChromeDPLauncher {
	return &ChromeDPLauncher{
		opts:   opts,
		logger: logger,
	}
}

// Engine returns "chromedp"
func (l *ChromeDPLauncher) Engine() string {
	return "chromedp"
}

// Close is a no-op; every session owns its own browser process
func (l *ChromeDPLauncher) Close() error {
	return nil
}

// allocatorOptions builds the Chrome flags for a new process
func (l *ChromeDPLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", l.opts.DisableGPU),
		chromedp.Flag("no-sandbox", l.opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
	)
	if l.opts.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", l.opts.Locale))
	}
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	return opts
}

// NewSession starts a browser process and attaches diagnostics listeners
func (l *ChromeDPLauncher) NewSession(ctx context.Context) (interfaces.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context already cancelled before session start: %w", err)
	}

	startTime := time.Now()

	// Browser lifetime is owned by the session, not by the caller's ctx
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			l.logger.Debug().Msgf("chromedp: "+s, i...)
		}),
	)

	session := &chromeSession{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		opts:          l.opts,
		logger:        l.logger,
		requests:      make(map[network.RequestID]string),
	}

	// Startup is bounded by the caller; once started, the process outlives ctx
	stopBinding := context.AfterFunc(ctx, cancelAlloc)

	// First Run allocates the browser; it must not carry a timeout
	if err := chromedp.Run(browserCtx); err != nil {
		stopBinding()
		session.Close()
		return nil, fmt.Errorf("failed to start browser: %w", startupError(ctx, err))
	}

	chromedp.ListenTarget(browserCtx, session.handleEvent)

	if err := chromedp.Run(browserCtx, network.Enable(), log.Enable()); err != nil {
		stopBinding()
		session.Close()
		return nil, fmt.Errorf("failed to enable diagnostics domains: %w", startupError(ctx, err))
	}

	if !stopBinding() {
		// ctx ended after startup finished and already tore the browser down
		session.Close()
		return nil, fmt.Errorf("browser startup cancelled: %w", ctx.Err())
	}

	l.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", l.opts.Headless).
		Msg("Browser session started")

	return session, nil
}

// startupError prefers the caller's cancellation over the resulting browser error
func startupError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

// chromeSession is a single Chrome tab driven over the DevTools protocol
type chromeSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	opts          Options
	logger        arbor.ILogger

	mu       sync.Mutex
	events   []models.BrowserEvent
	requests map[network.RequestID]string

	closeOnce sync.Once
	closeErr  error
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *chromeSession) run(caller context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(caller, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.opts.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %w", interfaces.ErrNavigation, url, err)
	}
	return nil
}

func (s *chromeSession) BodyText(ctx context.Context) (string, error) {
	var text string
	err := s.run(ctx, s.opts.DefaultWait,
		chromedp.Evaluate(`document.body ? document.body.textContent : ""`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("failed to read body text: %w", err)
	}
	return text, nil
}

func (s *chromeSession) WaitExists(ctx context.Context, selector string) error {
	err := s.run(ctx, s.opts.DefaultWait, chromedp.WaitReady(selector, chromedp.ByQuery))
	return lookupError(ctx, selector, err)
}

func (s *chromeSession) Type(ctx context.Context, selector, text string) error {
	err := s.run(ctx, s.opts.DefaultWait,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	return lookupError(ctx, selector, err)
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, s.opts.DefaultWait,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	return lookupError(ctx, selector, err)
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 keeps the capture PNG
	if err := s.run(ctx, s.opts.PageLoadTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.opts.DefaultWait, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (s *chromeSession) Events() []models.BrowserEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.BrowserEvent, len(s.events))
	copy(events, s.events)
	return events
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelBrowser()
		s.cancelAlloc()
	})
	return s.closeErr
}

// handleEvent records console errors, uncaught exceptions and failed requests
func (s *chromeSession) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		s.mu.Lock()
		s.requests[e.RequestID] = e.Request.URL
		s.mu.Unlock()

	case *network.EventLoadingFailed:
		if e.Canceled {
			return
		}
		s.mu.Lock()
		url := s.requests[e.RequestID]
		s.mu.Unlock()
		s.record(models.BrowserEvent{
			Kind:    models.EventRequestFailed,
			Message: e.ErrorText,
			URL:     url,
		})

	case *log.EventEntryAdded:
		if e.Entry.Level != log.LevelError {
			return
		}
		s.record(models.BrowserEvent{
			Kind:    models.EventConsole,
			Level:   e.Entry.Level.String(),
			Message: e.Entry.Text,
			URL:     e.Entry.URL,
		})

	case *runtime.EventConsoleAPICalled:
		if e.Type != runtime.APITypeError {
			return
		}
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			if arg.Description != "" {
				parts = append(parts, arg.Description)
			} else {
				parts = append(parts, strings.Trim(string(arg.Value), `"`))
			}
		}
		s.record(models.BrowserEvent{
			Kind:    models.EventConsole,
			Level:   "error",
			Message: strings.Join(parts, " "),
		})

	case *runtime.EventExceptionThrown:
		details := e.ExceptionDetails
		message := details.Text
		if details.Exception != nil && details.Exception.Description != "" {
			message = details.Exception.Description
		}
		s.record(models.BrowserEvent{
			Kind:    models.EventException,
			Message: message,
			URL:     details.URL,
		})
	}
}

func (s *chromeSession) record(event models.BrowserEvent) {
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
