package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TOGETHER_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY",
		"WAPAY_OCR_API_KEY", "WAPAY_LLM_API_KEY", "WAPAY_LOG_LEVEL",
		"WAPAY_CONCURRENCY", "WAPAY_DAY_WINDOW", "WAPAY_OCR_PROVIDER",
		"WAPAY_LLM_PROVIDER",
	} {
		t.Setenv(name, "")
	}
}

func load(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return Load(LoadOptions{Dir: dir, EnvFile: filepath.Join(dir, ".env")})
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "day-first", cfg.DateOrder)
	assert.Equal(t, 0, cfg.DayWindow)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, ProviderOpenAI, cfg.OCR.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "wapay", cfg.Metrics.Job)

	err = cfg.RequireCredentials()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "OCR")
	assert.Contains(t, err.Error(), "LLM")
}

func TestLoad_ConfigFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{
  "log_level": "debug",
  "concurrency": 2,
  "ocr": {"api_key": "file-ocr", "model": "vision-x", "timeout": "30s"},
  "llm": {"api_key": "file-llm"}
}`), 0o600))
	t.Setenv("WAPAY_CONCURRENCY", "8")

	cfg, err := load(t, dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "file-ocr", cfg.OCR.APIKey)
	assert.Equal(t, "vision-x", cfg.OCR.Model)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_ProviderKeysFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOGETHER_API_KEY", "together")
	t.Setenv("GROQ_API_KEY", "groq")

	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "together", cfg.OCR.APIKey)
	assert.Equal(t, "groq", cfg.LLM.APIKey)
}

func TestLoad_GeminiKeyOnlyForGeminiProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini")

	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.OCR.APIKey)
	assert.Empty(t, cfg.LLM.APIKey)
	err = cfg.RequireCredentials()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "TOGETHER_API_KEY")
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	t.Setenv("WAPAY_OCR_PROVIDER", "gemini")
	t.Setenv("GROQ_API_KEY", "groq")
	cfg, err = load(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.OCR.APIKey)
	assert.Equal(t, "groq", cfg.LLM.APIKey)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_GeminiProviderFromConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName),
		[]byte(`{"llm": {"provider": "gemini"}}`), 0o600))
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("GROQ_API_KEY", "groq")

	cfg, err := load(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.APIKey)
	assert.Empty(t, cfg.OCR.APIKey)

	err = cfg.RequireCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR (TOGETHER_API_KEY")
	assert.NotContains(t, err.Error(), "LLM")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("TOGETHER_API_KEY=from-dotenv\nGROQ_API_KEY=groq-dotenv\n"), 0o600))
	t.Setenv("GROQ_API_KEY", "from-shell")

	cfg, err := load(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OCR.APIKey)
	assert.Equal(t, "from-shell", cfg.LLM.APIKey, "shell environment wins over .env")
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("WAPAY_DAY_WINDOW", "3")

	_, err := load(t, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_BrokenConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{not json`), 0o600))

	_, err := load(t, dir)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "wapay"), dir)

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "wapay", "config.json"), p)
}
