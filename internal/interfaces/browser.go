package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/vitrine/internal/models"
)

var (
	// ErrElementNotFound is returned when no element matched a selector within the wait window
	ErrElementNotFound = errors.New("element not found")

	// ErrNavigation is returned when a page failed to load within the page load timeout
	ErrNavigation = errors.New("navigation failed")
)

// Launcher provisions browser sessions. Each scenario asks for its own session
// and closes it when done, so no browser state leaks between scenarios.
type Launcher interface {
	// NewSession starts a fresh browser session (new process or isolated context)
	NewSession(ctx context.Context) (Session, error)

	// Engine returns the engine name, e.g. "chromedp" or "playwright"
	Engine() string

	// Close releases shared engine resources once all sessions are closed
	Close() error
}

// Session is one live browser tab. Element lookups always query the live DOM;
// nothing is cached between calls.
//
// WaitExists, Type and Click are bounded by the configured default wait window
// and return an error wrapping ErrElementNotFound when the selector never
// matches. Navigate is bounded by the page load timeout and wraps ErrNavigation.
type Session interface {
	// Navigate loads url and waits for the document to finish loading
	Navigate(ctx context.Context, url string) error

	// BodyText returns the text content of the document body
	BodyText(ctx context.Context) (string, error)

	// WaitExists waits until at least one element matches selector (existence, not visibility)
	WaitExists(ctx context.Context, selector string) error

	// Type waits for a visible element matching selector and types text into it key by key
	Type(ctx context.Context, selector, text string) error

	// Click waits for a visible element matching selector and clicks it
	Click(ctx context.Context, selector string) error

	// Screenshot captures a full page PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// HTML returns the outer HTML of the current document
	HTML(ctx context.Context) (string, error)

	// Events returns console errors and failed requests observed so far
	Events() []models.BrowserEvent

	// Close releases the session and its browser resources
	Close() error
}
