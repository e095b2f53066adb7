package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration shared by every binary. Values come
// from the environment, optionally layered over the file named by CONFIG_FILE.
type Config struct {
	GeminiAPIKey         string        `mapstructure:"gemini_api_key"`
	GeminiModel          string        `mapstructure:"gemini_model"`
	GeminiBaseURL        string        `mapstructure:"gemini_base_url"`
	LLMTimeout           time.Duration `mapstructure:"llm_timeout"`
	OpenFoodFactsBaseURL string        `mapstructure:"openfoodfacts_base_url"`
	LookupTimeout        time.Duration `mapstructure:"lookup_timeout"`
	Port                 int           `mapstructure:"port"`
	StaticDir            string        `mapstructure:"static_dir"`
	MaxToolRounds        int           `mapstructure:"max_tool_rounds"`
	// ToolServerCommand is split on whitespace without shell quoting.
	ToolServerCommand    string        `mapstructure:"tool_server_command"`
	ParamPrefix          string        `mapstructure:"param_prefix"`
	TurnLogTable         string        `mapstructure:"turn_log_table"`
	LogLevel             string        `mapstructure:"log_level"`
	LogFormat            string        `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"gemini_model":           "gemini-2.5-flash",
	"llm_timeout":            "60s",
	"openfoodfacts_base_url": "https://world.openfoodfacts.org",
	"lookup_timeout":         "30s",
	"port":                   3000,
	"static_dir":             "public",
	"max_tool_rounds":        10,
	"log_level":              "info",
	"log_format":             "json",
}

// keys without defaults still need binding so Unmarshal sees them.
var envOnly = []string{
	"gemini_api_key",
	"gemini_base_url",
	"tool_server_command",
	"param_prefix",
	"turn_log_table",
}

// Load reads the configuration. Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range envOnly {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if err := v.BindEnv("config_file"); err != nil {
		return Config{}, fmt.Errorf("config: bind config_file: %w", err)
	}
	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	return cfg, nil
}

// Validate checks the settings every binary depends on.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Port))
	}
	if c.MaxToolRounds < 0 {
		errs = append(errs, errors.New("config: max_tool_rounds must not be negative"))
	}
	if c.LookupTimeout <= 0 {
		errs = append(errs, errors.New("config: lookup_timeout must be positive"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("config: llm_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateAgent additionally requires a way to obtain the Gemini API key.
func (c Config) ValidateAgent() error {
	err := c.Validate()
	if strings.TrimSpace(c.GeminiAPIKey) == "" && c.ParamPrefix == "" {
		err = errors.Join(err, errors.New("config: GEMINI_API_KEY or PARAM_PREFIX is required"))
	}
	if strings.TrimSpace(c.GeminiModel) == "" {
		err = errors.Join(err, errors.New("config: gemini_model must not be empty"))
	}
	return err
}
