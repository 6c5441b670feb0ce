package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv_fallbacks(t *testing.T) {
	t.Setenv("CLIPS_TEST_STR", "abc")
	t.Setenv("CLIPS_TEST_INT", "42")
	t.Setenv("CLIPS_TEST_BAD", "x")
	t.Setenv("CLIPS_TEST_DUR", "250ms")

	assert.Equal(t, "abc", GetEnv("CLIPS_TEST_STR", "d"))
	assert.Equal(t, "d", GetEnv("CLIPS_TEST_UNSET", "d"))
	assert.Equal(t, 42, GetEnvInt("CLIPS_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("CLIPS_TEST_BAD", 1))
	assert.EqualValues(t, 42, GetEnvInt64("CLIPS_TEST_INT", 1))
	assert.EqualValues(t, 7, GetEnvInt64("CLIPS_TEST_BAD", 7))
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("CLIPS_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("CLIPS_TEST_BAD", time.Second))
}

func TestLoad_reads_env_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLIPS_TEST_FROM_FILE=12000\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CLIPS_TEST_FROM_FILE") })

	require.NoError(t, Load(path))
	assert.EqualValues(t, 12000, GetEnvInt64("CLIPS_TEST_FROM_FILE", 0))
}

func TestLoad_missing_file(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.env")))
}
