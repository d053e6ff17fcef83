package report

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ternarybob/vitrine/internal/models"
)

// Diagnose counts how many nodes each selector matches in a captured page.
// A zero count points at the part of the storefront DOM that changed.
func Diagnose(html string, selectors []models.SelectorMatch) ([]models.SelectorMatch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot html: %w", err)
	}

	matches := make([]models.SelectorMatch, 0, len(selectors))
	for _, sel := range selectors {
		m := sel
		m.Count = countMatches(doc, sel.Selector)
		matches = append(matches, m)
	}
	return matches, nil
}

// countMatches returns -1 for a selector that does not compile
func countMatches(doc *goquery.Document, selector string) int {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return -1
	}
	return doc.FindMatcher(matcher).Length()
}

// Missing returns the selectors that matched nothing (or could not be compiled)
func Missing(matches []models.SelectorMatch) []models.SelectorMatch {
	var missing []models.SelectorMatch
	for _, m := range matches {
		if m.Count <= 0 {
			missing = append(missing, m)
		}
	}
	return missing
}
