package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/itemforge/pkg/provider"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	AlertWebhookURL string
	RoutingConfig   *RoutingConfig
	JudgeConfig     *JudgeConfig
	ConfigDir       string
}

// FileConfig represents the structure of ~/.itemforge/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
}

// AlertsConfig holds alert sink configuration from file.
type AlertsConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Load reads configuration from config files and environment variables.
// Environment variables take precedence over file configuration. Missing
// routing or judge files fall back to the built-in defaults.
func Load() (*Config, error) {
	return load("", "")
}

// LoadWithFiles loads config with specific routing and judge files. Empty
// paths fall back to the dot-directory files or built-in defaults.
func LoadWithFiles(routingPath, judgePath string) (*Config, error) {
	return load(routingPath, judgePath)
}

func load(routingPath, judgePath string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		AlertWebhookURL: getEnvOrDefault("ITEMFORGE_ALERT_WEBHOOK", fileConfig.Alerts.WebhookURL),
		ConfigDir:       configDir,
	}

	if routingPath == "" {
		routingPath = existingPath(filepath.Join(configDir, "routing.yaml"))
	}
	if routingPath != "" {
		routing, err := LoadRoutingConfig(routingPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load routing config: %w", err)
		}
		cfg.RoutingConfig = routing
	} else {
		cfg.RoutingConfig = DefaultRoutingConfig()
	}

	if judgePath == "" {
		judgePath = existingPath(filepath.Join(configDir, "judge.yaml"))
	}
	if judgePath != "" {
		judgeCfg, err := LoadJudgeConfig(judgePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load judge config: %w", err)
		}
		cfg.JudgeConfig = judgeCfg
	} else {
		cfg.JudgeConfig = DefaultJudgeConfig()
	}

	return cfg, nil
}

// HasVendor returns true if the API key for the given vendor is configured.
// The mock vendor never needs a key.
func (c *Config) HasVendor(v provider.Vendor) bool {
	switch v {
	case provider.VendorAnthropic:
		return c.AnthropicAPIKey != ""
	case provider.VendorOpenAI:
		return c.OpenAIAPIKey != ""
	case provider.VendorGoogle:
		return c.GoogleAPIKey != ""
	case provider.VendorDeepSeek:
		return c.DeepSeekAPIKey != ""
	case provider.VendorMock:
		return true
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func existingPath(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".itemforge")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
