package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/heathj/streamparser/autoescape"
	"github.com/heathj/streamparser/parser"
)

// clearEnv keeps the settings of the machine running the tests out of them.
// Empty variables are ignored by viper.
func clearEnv(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "DEFAULT_MODE", "MAX_INCLUDE_DEPTH"} {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, contents string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(contents), 0o600))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	config, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "info", config.LogLevel)
	require.Equal(t, autoescape.DefaultMaxIncludeDepth, config.MaxIncludeDepth)

	mode, err := config.Mode()
	require.NoError(t, err)
	require.Equal(t, parser.ModeHTML, mode)
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)
	dir := writeEnvFile(t, "LOG_LEVEL=debug\nDEFAULT_MODE=js\nMAX_INCLUDE_DEPTH=5\n")

	config, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 5, config.MaxIncludeDepth)

	level, err := config.Level()
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, level)

	mode, err := config.Mode()
	require.NoError(t, err)
	require.Equal(t, parser.ModeJS, mode)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := writeEnvFile(t, "LOG_LEVEL=debug\n")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DEFAULT_MODE", "html_in_tag")

	config, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "warn", config.LogLevel)
	require.Equal(t, "html_in_tag", config.DefaultMode)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"level": "LOG_LEVEL=loud\n",
		"mode":  "DEFAULT_MODE=xml\n",
		"depth": "MAX_INCLUDE_DEPTH=0\n",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadConfig(writeEnvFile(t, contents))
			require.Error(t, err)
		})
	}
}
