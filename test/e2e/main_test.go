package e2e

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestMain checks the storefront is reachable before the live tests run.
// Live tests skip themselves unless VITRINE_E2E is set.
func TestMain(m *testing.M) {
	if Enabled() {
		if err := verifyStorefrontConnectivity(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "\n⚠ Storefront not reachable - live tests are expected to fail\n")
			fmt.Fprintf(os.Stderr, "   Note: %v\n\n", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "VITRINE_E2E not set - live storefront tests will be skipped")
	}

	os.Exit(m.Run())
}

// verifyStorefrontConnectivity performs a plain HTTP GET against the landing URL
func verifyStorefrontConnectivity(w io.Writer) error {
	config, err := LoadTestConfig()
	if err != nil {
		return err
	}

	url := config.Scenarios.Landing.URL
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("storefront not accessible at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("storefront returned status %d", resp.StatusCode)
	}

	fmt.Fprintf(w, "✓ Storefront reachable: %s (status %d)\n", url, resp.StatusCode)
	return nil
}
