package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultDBPath         = "data/app.db"
	defaultStaticDir      = "static"
	defaultSettingsDir    = "settings"
	defaultAnthropicModel = "claude-3-5-sonnet-20240620"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultMaxTokens      = 1000
	defaultTemperature    = 0.7
	defaultOrderFrom      = "Fairytale Farms <orders@yourdomain.dev>"
	defaultOrderRecipient = "fairytalefarms.net@gmail.com"
	defaultVendorTimeout  = 60 * time.Second
	defaultSwitchDelay    = 600 * time.Millisecond
	defaultSessionIdleTTL = 30 * time.Minute
	defaultSweepInterval  = time.Minute
)

// AnthropicConfig holds the primary chat vendor settings
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url"`
}

// OpenAIConfig holds the fallback chat vendor settings. A nil Temperature
// is unset; zero is a valid temperature.
type OpenAIConfig struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   int64    `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	BaseURL     string   `yaml:"base_url"`
}

// ResendConfig holds the transactional email vendor settings
type ResendConfig struct {
	APIKey  string `yaml:"api_key"`
	From    string `yaml:"from"`
	BaseURL string `yaml:"base_url"`
}

// Secrets mirrors <settings>/secrets/vendors.yaml
type Secrets struct {
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Resend    ResendConfig    `yaml:"resend"`
}

// Config holds all application configuration
type Config struct {
	Anthropic      AnthropicConfig
	OpenAI         OpenAIConfig
	Resend         ResendConfig
	OrderRecipient string
	Port           string
	DBPath         string
	StaticDir      string
	SettingsDir    string
	LogLevel       string
	VendorTimeout  time.Duration
	SwitchDelay    time.Duration
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
}

// Load loads configuration from .env, environment and the optional secrets file.
// Environment values win over the secrets file.
func Load() (*Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		Anthropic: AnthropicConfig{
			APIKey:    firstEnv("ANTHROPIC_API_KEY", "REACT_APP_ANTHROPIC_API_KEY"),
			Model:     os.Getenv("ANTHROPIC_MODEL"),
			MaxTokens: envInt("ANTHROPIC_MAX_TOKENS"),
			BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     os.Getenv("OPENAI_MODEL"),
			MaxTokens: envInt("OPENAI_MAX_TOKENS"),
			BaseURL:   os.Getenv("OPENAI_BASE_URL"),
		},
		Resend: ResendConfig{
			APIKey:  os.Getenv("RESEND_API_KEY"),
			From:    os.Getenv("ORDER_FROM"),
			BaseURL: os.Getenv("RESEND_BASE_URL"),
		},
		OrderRecipient: getEnvOrDefault("ORDER_RECIPIENT", defaultOrderRecipient),
		Port:           getEnvOrDefault("PORT", defaultPort),
		DBPath:         getEnvOrDefault("DB_PATH", defaultDBPath),
		StaticDir:      getEnvOrDefault("STATIC_DIR", defaultStaticDir),
		SettingsDir:    getEnvOrDefault("SETTINGS_DIR", defaultSettingsDir),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		VendorTimeout:  envDuration("VENDOR_TIMEOUT", defaultVendorTimeout),
		SwitchDelay:    envDuration("PERSONA_SWITCH_DELAY", defaultSwitchDelay),
		SessionIdleTTL: envDuration("SESSION_IDLE_TTL", defaultSessionIdleTTL),
		SweepInterval:  envDuration("SESSION_SWEEP_INTERVAL", defaultSweepInterval),
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.OpenAI.Temperature = &f
		}
	}

	secrets, err := loadSecrets(filepath.Join(cfg.SettingsDir, "secrets", "vendors.yaml"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if secrets != nil {
		cfg.merge(secrets)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadSecrets loads vendor credentials from a YAML file
func loadSecrets(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Secrets
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// merge fills values the environment left empty
func (c *Config) merge(s *Secrets) {
	c.Anthropic.APIKey = orDefault(c.Anthropic.APIKey, s.Anthropic.APIKey)
	c.Anthropic.Model = orDefault(c.Anthropic.Model, s.Anthropic.Model)
	c.Anthropic.BaseURL = orDefault(c.Anthropic.BaseURL, s.Anthropic.BaseURL)
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = s.Anthropic.MaxTokens
	}

	c.OpenAI.APIKey = orDefault(c.OpenAI.APIKey, s.OpenAI.APIKey)
	c.OpenAI.Model = orDefault(c.OpenAI.Model, s.OpenAI.Model)
	c.OpenAI.BaseURL = orDefault(c.OpenAI.BaseURL, s.OpenAI.BaseURL)
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = s.OpenAI.MaxTokens
	}
	if c.OpenAI.Temperature == nil {
		c.OpenAI.Temperature = s.OpenAI.Temperature
	}

	c.Resend.APIKey = orDefault(c.Resend.APIKey, s.Resend.APIKey)
	c.Resend.From = orDefault(c.Resend.From, s.Resend.From)
	c.Resend.BaseURL = orDefault(c.Resend.BaseURL, s.Resend.BaseURL)
}

func (c *Config) applyDefaults() {
	c.Anthropic.Model = orDefault(c.Anthropic.Model, defaultAnthropicModel)
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = defaultMaxTokens
	}
	c.OpenAI.Model = orDefault(c.OpenAI.Model, defaultOpenAIModel)
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = defaultMaxTokens
	}
	if c.OpenAI.Temperature == nil {
		t := defaultTemperature
		c.OpenAI.Temperature = &t
	}
	c.Resend.From = orDefault(c.Resend.From, defaultOrderFrom)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
