package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunReport_Counts(t *testing.T) {
	report := &RunReport{
		Results: []ScenarioResult{
			{Name: "landing-page", Status: StatusPassed},
			{Name: "search", Status: StatusFailed},
			{Name: "other", Status: StatusSkipped},
		},
	}

	passed, failed, skipped := report.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
	assert.False(t, report.Success())
	assert.True(t, report.Results[0].Passed())
}

func TestRunReport_SuccessWhenNothingFailed(t *testing.T) {
	report := &RunReport{Results: []ScenarioResult{{Status: StatusPassed}, {Status: StatusSkipped}}}
	assert.True(t, report.Success())
}

func TestRunReport_Duration(t *testing.T) {
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	report := &RunReport{StartedAt: start}
	assert.Zero(t, report.Duration())

	report.CompletedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, report.Duration())
}
