// Package scenarios holds the storefront checks. Each scenario drives one
// browser session it is handed and reports failures as *AssertionError.
package scenarios

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/vitrine/internal/common"
	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// Scenario is one independent check against the storefront
type Scenario interface {
	Name() string
	Description() string
	Run(ctx context.Context, session interfaces.Session) error
}

// SelectorProvider is implemented by scenarios that depend on DOM selectors.
// The runner uses it to diagnose failure snapshots.
type SelectorProvider interface {
	Selectors() []models.SelectorMatch
}

// FromConfig builds the ordered suite from configuration, skipping disabled scenarios
func FromConfig(config *common.Config) []Scenario {
	wait := config.DefaultWait()
	suite := make([]Scenario, 0, 2)

	if landing := config.Scenarios.Landing; landing.Enabled {
		suite = append(suite, &LandingPage{
			URL:       landing.URL,
			BrandText: landing.BrandText,
			Wait:      wait,
		})
	}

	if search := config.Scenarios.Search; search.Enabled {
		suite = append(suite, &Search{
			URL:             search.URL,
			Query:           search.Query,
			InputSelector:   search.InputSelector,
			TriggerSelector: search.TriggerSelector,
			ResultsSelector: search.ResultsSelector,
		})
	}

	return suite
}

// Select returns the scenarios whose names are listed, preserving suite order.
// An empty list selects everything.
func Select(all []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, s := range all {
		known[s.Name()] = true
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(Names(all), ", "))
		}
		wanted[name] = true
	}

	selected := make([]Scenario, 0, len(wanted))
	for _, s := range all {
		if wanted[s.Name()] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// Names returns scenario names in suite order
func Names(all []Scenario) []string {
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name()
	}
	return names
}
