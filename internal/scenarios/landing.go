package scenarios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// LandingPage visits the storefront root and checks the body contains the brand.
// It only navigates and reads.
type LandingPage struct {
	URL       string
	BrandText string
	Wait      time.Duration // How long body text may take to contain BrandText
}

func (s *LandingPage) Name() string {
	return "landing-page"
}

func (s *LandingPage) Description() string {
	return fmt.Sprintf("visit %s and find %q in the page body", s.URL, s.BrandText)
}

func (s *LandingPage) Run(ctx context.Context, session interfaces.Session) error {
	if err := session.Navigate(ctx, s.URL); err != nil {
		return navigationError(s.Name(), s.URL, err)
	}

	// Retried until the wait window closes, like an assertion on a live element.
	// Read errors right after a navigation are transient and count as "not yet".
	deadline := time.Now().Add(s.Wait)
	var (
		text    string
		readErr error
	)
	for {
		text, readErr = session.BodyText(ctx)
		if readErr == nil && strings.Contains(text, s.BrandText) {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", s.Name(), ctx.Err())
		case <-time.After(pollInterval):
		}
	}

	actual := excerpt(text, 200)
	if readErr != nil {
		actual = "unreadable body"
	}
	return &AssertionError{
		Scenario: s.Name(),
		Check:    "body contains brand",
		Selector: "body",
		Expected: fmt.Sprintf("body text containing %q", s.BrandText),
		Actual:   actual,
		Err:      readErr,
	}
}

// pollInterval is how often body text is re-read while waiting
const pollInterval = 100 * time.Millisecond

// Selectors lists the DOM contract of the landing check
func (s *LandingPage) Selectors() []models.SelectorMatch {
	return []models.SelectorMatch{
		{Role: "page body", Selector: "body"},
	}
}
