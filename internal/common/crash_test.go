package common

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	original := CrashLogDir
	t.Cleanup(func() { CrashLogDir = original })

	SetCrashContext("engine", "chromedp")
	SetCrashContext("scenario", "search")
	SetCrashContext("scenario", "")
	t.Cleanup(func() { SetCrashContext("engine", "") })

	dir := t.TempDir()
	InstallCrashHandler(dir)
	assert.Equal(t, dir, CrashLogDir)

	path := WriteCrashFile("boom", GetStackTrace())
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== VITRINE CRASH REPORT ===")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "=== RUN CONTEXT ===\nengine: chromedp\n")
	assert.NotContains(t, string(data), "scenario: search")
	assert.Contains(t, string(data), "=== ALL GOROUTINES ===")
}
