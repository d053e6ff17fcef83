package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner followed by the resolved target summary
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Vitrine", GetVersion())

	logger.Info().
		Str("engine", config.Browser.Engine).
		Bool("headless", config.Browser.Headless).
		Str("landing_url", config.Scenarios.Landing.URL).
		Str("search_url", config.Scenarios.Search.URL).
		Str("results_dir", config.Output.ResultsDir).
		Msg("Storefront smoke suite configured")
}
