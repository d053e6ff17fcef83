package scenarios

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/vitrine/internal/interfaces"
)

// AssertionError is the only failure a scenario reports.
// Load failures and missing elements are expressed through it as well.
type AssertionError struct {
	Scenario string
	Check    string // e.g. "body contains brand"
	Selector string
	Expected string
	Actual   string
	Err      error // Underlying browser error, if any
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failed", e.Scenario, e.Check)
	if e.Selector != "" {
		fmt.Fprintf(&b, " (selector %q)", e.Selector)
	}
	fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// IsAssertion reports whether err is, or wraps, an *AssertionError
func IsAssertion(err error) bool {
	var assertionErr *AssertionError
	return errors.As(err, &assertionErr)
}

// elementError turns a failed lookup into an assertion about selector existence
func elementError(scenario, check, selector string, err error) error {
	actual := "error"
	if errors.Is(err, interfaces.ErrElementNotFound) {
		actual = "no matching element within the wait window"
	}
	return &AssertionError{
		Scenario: scenario,
		Check:    check,
		Selector: selector,
		Expected: "element to exist",
		Actual:   actual,
		Err:      err,
	}
}

// navigationError reports a page that failed to load
func navigationError(scenario, url string, err error) error {
	return &AssertionError{
		Scenario: scenario,
		Check:    "visit " + url,
		Expected: "page to load",
		Actual:   "load failure",
		Err:      err,
	}
}

// excerpt shortens page text for failure messages
func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return fmt.Sprintf("%q", text)
	}
	cut := max
	// Do not split a multi-byte rune
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return fmt.Sprintf("%q…", text[:cut])
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
