// Package config loads wapay settings from the config file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ApplicationName = "wapay"
	FileName        = "config.json"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var ErrConfiguration = errors.New("configuration error")

// vendorKeyEnv lists the vendor variables accepted as API key, per service
// and provider. WAPAY_<SVC>_API_KEY is accepted for every provider.
var vendorKeyEnv = map[string]map[string]string{
	"ocr": {ProviderOpenAI: "TOGETHER_API_KEY", ProviderGemini: "GEMINI_API_KEY"},
	"llm": {ProviderOpenAI: "GROQ_API_KEY", ProviderGemini: "GEMINI_API_KEY"},
}

type ServiceConfig struct {
	Provider   string        `mapstructure:"provider"    validate:"oneof=openai gemini"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0,max=10"`
}

type MetricsConfig struct {
	PushURL string `mapstructure:"push_url" validate:"omitempty,url"`
	Job     string `mapstructure:"job"`
}

type Config struct {
	LogLevel    string `mapstructure:"log_level"     validate:"oneof=trace debug info warn error"`
	LogFormat   string `mapstructure:"log_format"    validate:"oneof=console json"`
	DateOrder   string `mapstructure:"date_order"    validate:"oneof=day-first month-first"`
	DayWindow   int    `mapstructure:"day_window"    validate:"min=0,max=1"`
	Concurrency int    `mapstructure:"concurrency"   validate:"min=1,max=32"`
	CacheSizeMB int    `mapstructure:"cache_size_mb" validate:"min=0,max=1024"`

	OCR     ServiceConfig `mapstructure:"ocr"`
	LLM     ServiceConfig `mapstructure:"llm"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LoadOptions struct {
	// Dir holds config.json; defaults to $XDG_CONFIG_HOME/wapay.
	Dir string
	// EnvFile is read before anything else; defaults to ".env".
	EnvFile string
}

// Dir returns the directory of the config file.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Clean(filepath.Join(configHome, ApplicationName)), nil
}

// Path returns the location of config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load merges defaults, config.json and the environment. Credentials are
// not required here; see RequireCredentials.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	if err := LoadDotEnv(opts.EnvFile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if opts.Dir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("%w: locating config dir: %v", ErrConfiguration, err)
		}
		opts.Dir = dir
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(opts.Dir)
	v.SetConfigType("json")
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))

	v.SetEnvPrefix("WAPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", ErrConfiguration, err)
		}
	}
	bindKeyEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %v", ErrConfiguration, err)
	}
	cfg.normalize()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// bindKeyEnv binds the API keys once the providers are known, so a Gemini
// key is never sent to an OpenAI-compatible endpoint or the other way round.
func bindKeyEnv(v *viper.Viper) {
	for _, svc := range []string{"ocr", "llm"} {
		names := []string{svc + ".api_key", "WAPAY_" + strings.ToUpper(svc) + "_API_KEY"}
		provider := strings.ToLower(strings.TrimSpace(v.GetString(svc + ".provider")))
		if env, ok := vendorKeyEnv[svc][provider]; ok {
			names = append(names, env)
		}
		_ = v.BindEnv(names...)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("date_order", "day-first")
	v.SetDefault("day_window", 0)
	v.SetDefault("concurrency", 4)
	v.SetDefault("cache_size_mb", 32)

	for _, svc := range []string{"ocr", "llm"} {
		v.SetDefault(svc+".provider", ProviderOpenAI)
		v.SetDefault(svc+".api_key", "")
		v.SetDefault(svc+".base_url", "")
		v.SetDefault(svc+".model", "")
		v.SetDefault(svc+".timeout", 2*time.Minute)
		v.SetDefault(svc+".max_retries", 2)
	}

	v.SetDefault("metrics.push_url", "")
	v.SetDefault("metrics.job", ApplicationName)
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DateOrder = strings.ToLower(strings.TrimSpace(c.DateOrder))
	c.OCR.Provider = strings.ToLower(strings.TrimSpace(c.OCR.Provider))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.OCR.APIKey = strings.TrimSpace(c.OCR.APIKey)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
}

// RequireCredentials fails when the OCR or LLM API key is missing.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.OCR.APIKey == "" {
		missing = append(missing, keyHint("ocr", c.OCR.Provider))
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, keyHint("llm", c.LLM.Provider))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing API key for %s; run `wapay init` or set it in .env",
			ErrConfiguration, strings.Join(missing, " and "))
	}
	return nil
}

func keyHint(svc, provider string) string {
	return fmt.Sprintf("%s (%s or WAPAY_%s_API_KEY)",
		strings.ToUpper(svc), vendorKeyEnv[svc][provider], strings.ToUpper(svc))
}
