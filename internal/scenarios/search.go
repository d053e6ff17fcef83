package scenarios

import (
	"context"
	"fmt"

	"github.com/ternarybob/vitrine/internal/interfaces"
	"github.com/ternarybob/vitrine/internal/models"
)

// Search types a query into the search box, submits it and expects a results count
type Search struct {
	URL             string
	Query           string
	InputSelector   string
	TriggerSelector string
	ResultsSelector string
}

func (s *Search) Name() string {
	return "search"
}

func (s *Search) Description() string {
	return fmt.Sprintf("search %s for %q and find %s", s.URL, s.Query, s.ResultsSelector)
}

func (s *Search) Run(ctx context.Context, session interfaces.Session) error {
	if err := session.Navigate(ctx, s.URL); err != nil {
		return navigationError(s.Name(), s.URL, err)
	}

	if err := session.Type(ctx, s.InputSelector, s.Query); err != nil {
		return elementError(s.Name(), "type query into search input", s.InputSelector, err)
	}

	if err := session.Click(ctx, s.TriggerSelector); err != nil {
		return elementError(s.Name(), "click search trigger", s.TriggerSelector, err)
	}

	if err := session.WaitExists(ctx, s.ResultsSelector); err != nil {
		return elementError(s.Name(), "results count exists", s.ResultsSelector, err)
	}

	return nil
}

// Selectors lists the DOM contract of the search flow
func (s *Search) Selectors() []models.SelectorMatch {
	return []models.SelectorMatch{
		{Role: "search input", Selector: s.InputSelector},
		{Role: "search trigger", Selector: s.TriggerSelector},
		{Role: "results count", Selector: s.ResultsSelector},
	}
}
