package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	t.Setenv("VITRINE_E2E", "")
	assert.False(t, Enabled())

	t.Setenv("VITRINE_E2E", "1")
	assert.True(t, Enabled())

	t.Setenv("VITRINE_E2E", "nope")
	assert.False(t, Enabled())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "TestSearch_sub_case", sanitizeName("TestSearch/sub case"))
}

func TestResolveRunDir_CreatesEnvDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ci", "screenshots")
	t.Setenv("TEST_RESULTS_DIR", dir)

	got, err := resolveRunDir("unused")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveRunDir_TimestampedUnderBase(t *testing.T) {
	t.Setenv("TEST_RESULTS_DIR", "")
	base := t.TempDir()

	got, err := resolveRunDir(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(got), "e2e-"))
	assert.DirExists(t, got)
}
