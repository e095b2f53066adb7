package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	require.Equal(t, 60*time.Second, cfg.LLMTimeout)
	require.Equal(t, 30*time.Second, cfg.LookupTimeout)
	require.Equal(t, "https://world.openfoodfacts.org", cfg.OpenFoodFactsBaseURL)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "public", cfg.StaticDir)
	require.Equal(t, 10, cfg.MaxToolRounds)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("MAX_TOOL_ROUNDS", "0")
	t.Setenv("PARAM_PREFIX", "/nutrition/")
	t.Setenv("TOOL_SERVER_COMMAND", "nutrition-server --verbose")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "k", cfg.GeminiAPIKey)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 5*time.Second, cfg.LLMTimeout)
	require.Equal(t, 0, cfg.MaxToolRounds)
	require.Equal(t, "/nutrition", cfg.ParamPrefix)
	require.Equal(t, "nutrition-server --verbose", cfg.ToolServerCommand)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini_model: gemini-pro\nport: 9000\nturn_log_table: turns\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini-pro", cfg.GeminiModel)
	require.Equal(t, "turns", cfg.TurnLogTable)
	require.Equal(t, 9100, cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		GeminiAPIKey:  "k",
		GeminiModel:   "gemini-2.5-flash",
		LLMTimeout:    time.Minute,
		LookupTimeout: time.Minute,
		Port:          3000,
		MaxToolRounds: 10,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().ValidateAgent())

	cfg := validConfig()
	cfg.Port = 70000
	require.ErrorContains(t, cfg.Validate(), "port")

	cfg = validConfig()
	cfg.MaxToolRounds = -1
	require.ErrorContains(t, cfg.Validate(), "max_tool_rounds")

	cfg = validConfig()
	cfg.LookupTimeout = 0
	require.ErrorContains(t, cfg.Validate(), "lookup_timeout")
}

func TestValidateAgent_KeySource(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	require.NoError(t, cfg.Validate())
	require.ErrorContains(t, cfg.ValidateAgent(), "GEMINI_API_KEY")

	cfg.ParamPrefix = "/nutrition"
	require.NoError(t, cfg.ValidateAgent())
}
