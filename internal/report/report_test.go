package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/vitrine/internal/models"
)

const snapshotHTML = `<html><body>
<header>
  <input class="nav-search-input" type="text">
  <button><div class="nav-icon-search"></div></button>
</header>
<main><p>Nenhum resultado</p></main>
</body></html>`

func searchSelectors() []models.SelectorMatch {
	return []models.SelectorMatch{
		{Role: "search input", Selector: ".nav-search-input"},
		{Role: "search trigger", Selector: ".nav-icon-search"},
		{Role: "results count", Selector: ".ui-search-search-result__quantity-results"},
	}
}

func TestDiagnose(t *testing.T) {
	matches, err := Diagnose(snapshotHTML, searchSelectors())
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, 1, matches[0].Count)
	assert.Equal(t, 1, matches[1].Count)
	assert.Equal(t, 0, matches[2].Count)
	assert.Equal(t, "results count", matches[2].Role)

	missing := Missing(matches)
	require.Len(t, missing, 1)
	assert.Equal(t, ".ui-search-search-result__quantity-results", missing[0].Selector)
}

func TestDiagnose_InvalidSelector(t *testing.T) {
	matches, err := Diagnose(snapshotHTML, []models.SelectorMatch{{Role: "broken", Selector: "div[["}})
	require.NoError(t, err)
	assert.Equal(t, -1, matches[0].Count)
	assert.Len(t, Missing(matches), 1)
}

func TestDiagnose_DoesNotMutateInput(t *testing.T) {
	selectors := searchSelectors()
	_, err := Diagnose(snapshotHTML, selectors)
	require.NoError(t, err)
	assert.Zero(t, selectors[0].Count)
}

func sampleReport() *models.RunReport {
	start := time.Date(2025, 11, 4, 16, 0, 0, 0, time.UTC)
	return &models.RunReport{
		RunID:       "run_test",
		Engine:      "chromedp",
		StartedAt:   start,
		CompletedAt: start.Add(12 * time.Second),
		Results: []models.ScenarioResult{
			{Name: "landing-page", Status: models.StatusPassed, Duration: 3 * time.Second},
			{
				Name:       "search",
				Status:     models.StatusFailed,
				Duration:   9 * time.Second,
				Error:      "search: results count exists failed",
				Screenshot: "results/search/failure.png",
				Selectors: []models.SelectorMatch{
					{Role: "results count", Selector: ".ui-search-search-result__quantity-results", Count: 0},
				},
			},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	rep := sampleReport()

	path, err := WriteJSON(dir, rep)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded models.RunReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, rep.RunID, loaded.RunID)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, models.StatusFailed, loaded.Results[1].Status)
	assert.Equal(t, 9*time.Second, loaded.Results[1].Duration)
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	PrintSummary(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "✓ landing-page")
	assert.Contains(t, out, "✗ search")
	assert.Contains(t, out, "results count exists failed")
	assert.Contains(t, out, `selector ".ui-search-search-result__quantity-results" (results count) matched nothing`)
	assert.Contains(t, out, "Passed: 1 | Failed: 1 | Skipped: 0 | Duration: 12s")
	assert.Contains(t, out, "screenshot: results/search/failure.png")
}
