package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/config"
)

type fileEnv struct {
	Str      string   `env:"TEST_CUSTOM_STRING"`
	Num      int      `env:"TEST_CUSTOM_INT"`
	Flag     bool     `env:"TEST_CUSTOM_BOOL"`
	List     []string `env:"TEST_CUSTOM_ARRAY" envSeparator:","`
	Quoted   string   `env:"TEST_CUSTOM_WITH_QUOTES"`
	Empty    string   `env:"TEST_CUSTOM_EMPTY"`
	Priority string   `env:"TEST_PRIORITY"`
}

type overrideEnv struct {
	Unique     string `env:"TEST_OVERRIDE_UNIQUE"`
	Feature    string `env:"TEST_MULTIENV_FEATURE"`
	Overridden string `env:"TEST_CUSTOM_STRING"`
}

type fileRequiredEnv struct {
	Required string `env:"OVERRIDDEN_REQUIRED,required"`
}

func clearFileEnv() {
	for _, name := range []string{
		"TEST_CUSTOM_STRING", "TEST_CUSTOM_INT", "TEST_CUSTOM_BOOL",
		"TEST_CUSTOM_ARRAY", "TEST_CUSTOM_WITH_QUOTES", "TEST_CUSTOM_EMPTY",
		"TEST_PRIORITY", "TEST_OVERRIDE_UNIQUE", "TEST_MULTIENV_FEATURE",
		"OVERRIDDEN_REQUIRED",
	} {
		os.Unsetenv(name)
	}
	config.ResetCache()
}

func TestLoadEnv(t *testing.T) {
	t.Run("loads a custom file", func(t *testing.T) {
		clearFileEnv()

		require.NoError(t, config.LoadEnv("testdata/.env.custom"))

		var cfg fileEnv
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "custom_value", cfg.Str)
		assert.Equal(t, 1234, cfg.Num)
		assert.True(t, cfg.Flag)
		assert.Equal(t, []string{"item1", "item2", "item3"}, cfg.List)
		assert.Equal(t, "quoted value", cfg.Quoted)
		assert.Empty(t, cfg.Empty)
		assert.Equal(t, "custom_file_value", cfg.Priority)
	})

	t.Run("later files win", func(t *testing.T) {
		clearFileEnv()

		require.NoError(t, config.LoadEnv("testdata/.env.custom", "testdata/.env.override"))

		var cfg fileEnv
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "override_value", cfg.Str)
		assert.Equal(t, 9999, cfg.Num)
		assert.Equal(t, "override_value", cfg.Priority)

		var ov overrideEnv
		require.NoError(t, config.Load(&ov))
		assert.Equal(t, "unique_to_override", ov.Unique)
		assert.Equal(t, "enabled", ov.Feature)
		assert.Equal(t, "override_value", ov.Overridden)
	})

	t.Run("missing file fails", func(t *testing.T) {
		require.Error(t, config.LoadEnv("testdata/no_such_file.env"))
	})

	t.Run("no arguments loads the working directory .env", func(t *testing.T) {
		config.ResetCache()

		old, readErr := os.ReadFile(".env")
		hadEnvFile := !os.IsNotExist(readErr)
		t.Cleanup(func() {
			os.Remove(".env")
			if hadEnvFile {
				_ = os.WriteFile(".env", old, 0o644)
			}
			os.Unsetenv("BV_TEST_DOTENV")
		})

		require.NoError(t, os.WriteFile(".env", []byte("BV_TEST_DOTENV=from_dotenv"), 0o644))
		os.Unsetenv("BV_TEST_DOTENV")

		require.NoError(t, config.LoadEnv())
		assert.Equal(t, "from_dotenv", os.Getenv("BV_TEST_DOTENV"))
	})
}

func TestMustLoadEnv(t *testing.T) {
	assert.NotPanics(t, func() { config.MustLoadEnv("testdata/.env.custom") })
	assert.Panics(t, func() { config.MustLoadEnv("testdata/no_such_file.env") })
}

func TestForceReloadConfig(t *testing.T) {
	clearFileEnv()

	var cfg fileRequiredEnv
	require.Error(t, config.Load(&cfg), "required variable is not set yet")

	t.Setenv("OVERRIDDEN_REQUIRED", "required_value")

	var reloaded fileRequiredEnv
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "required_value", reloaded.Required)
}
