// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the email composer.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultChooserHeader mirrors options.DefaultChooserHeader; config keeps
// its own copy so it stays free of domain imports.
const defaultChooserHeader = "Open with"

// Config holds the complete application configuration.
type Config struct {
	Provider    string            `yaml:"provider"`
	Platform    string            `yaml:"platform"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
	Aliases     map[string]string `yaml:"aliases"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Graph       GraphConfig       `yaml:"graph"`
	SES         SESConfig         `yaml:"ses"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DefaultsConfig overrides the built-in draft defaults.
type DefaultsConfig struct {
	App           string `yaml:"app"`
	IsHTML        bool   `yaml:"is_html"`
	ChooserHeader string `yaml:"chooser_header"`
}

// AttachmentsConfig holds the roots attachment locators resolve against.
type AttachmentsConfig struct {
	AssetDir    string `yaml:"asset_dir"`
	ResourceDir string `yaml:"resource_dir"`
	AppDir      string `yaml:"app_dir"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
}

// SESConfig holds AWS SES configuration used for account checks.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()
	cfg.Provider = strings.ToLower(cfg.Provider)

	return cfg, nil
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SESConfigured returns true if the SES region is set. Credentials fall
// back to the default AWS chain when not given.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Platform = runtime.GOOS
	c.Defaults.App = "mailto:"
	c.Defaults.ChooserHeader = defaultChooserHeader
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PLATFORM"); v != "" {
		c.Platform = strings.ToLower(v)
	}

	if v := os.Getenv("DEFAULT_APP"); v != "" {
		c.Defaults.App = v
	}
	if v := os.Getenv("DEFAULT_IS_HTML"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Defaults.IsHTML = b
		}
	}
	if v := os.Getenv("CHOOSER_HEADER"); v != "" {
		c.Defaults.ChooserHeader = v
	}

	if v := os.Getenv("ASSET_DIR"); v != "" {
		c.Attachments.AssetDir = v
	}
	if v := os.Getenv("RESOURCE_DIR"); v != "" {
		c.Attachments.ResourceDir = v
	}
	if v := os.Getenv("APP_DIR"); v != "" {
		c.Attachments.AppDir = v
	}

	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}
	if v := os.Getenv("GRAPH_SENDER"); v != "" {
		c.Graph.Sender = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
