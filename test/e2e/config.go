package e2e

import (
	"os"
	"strconv"

	"github.com/ternarybob/vitrine/internal/common"
)

// Enabled reports whether live storefront tests should run.
// They need network access and a Chrome binary, so they are opt-in.
func Enabled() bool {
	enabled, _ := strconv.ParseBool(os.Getenv("VITRINE_E2E"))
	return enabled
}

// LoadTestConfig loads the suite configuration for live tests.
// VITRINE_CONFIG may point at a TOML file; VITRINE_* variables override it.
func LoadTestConfig() (*common.Config, error) {
	var paths []string
	if path := os.Getenv("VITRINE_CONFIG"); path != "" {
		paths = append(paths, path)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
