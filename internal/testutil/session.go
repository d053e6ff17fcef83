package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// FakeSession is an in-memory interfaces.Session. Pages maps a URL to its body
// text; Present lists selectors that exist on every page. Calls are recorded.
type FakeSession struct {
	mu sync.Mutex

	Pages       map[string]string
	Present     map[string]bool
	NavigateErr error
	BodyErr     error
	BodyErrs    []error // Returned by successive BodyText calls before BodyErr applies
	PanicOn     string // Method name that panics, e.g. "Navigate"
	EventsOut   []models.BrowserEvent
	ScreenPNG   []byte
	PageHTML    string

	current string
	Calls   []string
	Typed   map[string]string
	Closed  bool
}

// NewFakeSession returns a session where every listed selector exists
func NewFakeSession(pages map[string]string, present ...string) *FakeSession {
	s := &FakeSession{
		Pages:     pages,
		Present:   make(map[string]bool),
		Typed:     make(map[string]string),
		ScreenPNG: []byte("\x89PNG\r\n\x1a\n"),
		PageHTML:  "<html><body></body></html>",
	}
	for _, sel := range present {
		s.Present[sel] = true
	}
	return s
}

func (s *FakeSession) call(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, name)
	if s.PanicOn == strings.SplitN(name, " ", 2)[0] {
		panic("fake session panic in " + name)
	}
}

func (s *FakeSession) Navigate(ctx context.Context, url string) error {
	s.call("Navigate " + url)
	if s.NavigateErr != nil {
		return fmt.Errorf("%w: %s: %w", interfaces.ErrNavigation, url, s.NavigateErr)
	}
	if _, ok := s.Pages[url]; !ok {
		return fmt.Errorf("%w: %s: 404", interfaces.ErrNavigation, url)
	}
	s.mu.Lock()
	s.current = url
	s.mu.Unlock()
	return nil
}

func (s *FakeSession) BodyText(ctx context.Context) (string, error) {
	s.call("BodyText")
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.BodyErrs) > 0 {
		err := s.BodyErrs[0]
		s.BodyErrs = s.BodyErrs[1:]
		if err != nil {
			return "", err
		}
	}
	if s.BodyErr != nil {
		return "", s.BodyErr
	}
	return s.Pages[s.current], nil
}

func (s *FakeSession) lookup(selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Present[selector] {
		return fmt.Errorf("%w: %q", interfaces.ErrElementNotFound, selector)
	}
	return nil
}

func (s *FakeSession) WaitExists(ctx context.Context, selector string) error {
	s.call("WaitExists " + selector)
	return s.lookup(selector)
}

func (s *FakeSession) Type(ctx context.Context, selector, text string) error {
	s.call("Type " + selector)
	if err := s.lookup(selector); err != nil {
		return err
	}
	s.mu.Lock()
	s.Typed[selector] += text
	s.mu.Unlock()
	return nil
}

func (s *FakeSession) Click(ctx context.Context, selector string) error {
	s.call("Click " + selector)
	return s.lookup(selector)
}

func (s *FakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	s.call("Screenshot")
	return s.ScreenPNG, nil
}

func (s *FakeSession) HTML(ctx context.Context) (string, error) {
	s.call("HTML")
	return s.PageHTML, nil
}

func (s *FakeSession) Events() []models.BrowserEvent {
	return s.EventsOut
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// CallLog returns a copy of the recorded calls
func (s *FakeSession) CallLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Calls...)
}

// FakeLauncher hands out sessions from a factory and counts them
type FakeLauncher struct {
	mu       sync.Mutex
	New      func() *FakeSession
	StartErr error
	Sessions []*FakeSession
	Closed   bool
}

func (l *FakeLauncher) NewSession(ctx context.Context) (interfaces.Session, error) {
	if l.StartErr != nil {
		return nil, l.StartErr
	}
	session := l.New()
	l.mu.Lock()
	l.Sessions = append(l.Sessions, session)
	l.mu.Unlock()
	return session, nil
}

func (l *FakeLauncher) Engine() string {
	return "fake"
}

func (l *FakeLauncher) Close() error {
	l.Closed = true
	return nil
}
