// Package config loads the YAML settings file driving a generation run.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Blob configures the remote object-store destination.
type Blob struct {
	BaseURL   string `yaml:"base_url"`
	Container string `yaml:"container"`
	Folder    string `yaml:"folder"`
	// CAPath optionally points at a PEM bundle to trust for TLS.
	CAPath string `yaml:"ca_path"`
}

// Azure configures the OpenAI-compatible gateway provider.
type Azure struct {
	AuthURL        string `yaml:"auth_url"`
	Scope          string `yaml:"scope"`
	Endpoint       string `yaml:"endpoint"`
	DeploymentName string `yaml:"deployment_name"`
	APIVersion     string `yaml:"api_version"`
	ProjectID      string `yaml:"project_id"`
}

// Credentials holds provider secrets. Values here are overridable from the
// environment in the CLI layer.
type Credentials struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BlobToken    string `yaml:"blob_token"`
}

type Config struct {
	// APIUse selects the completion provider: "gemini" or "openai".
	APIUse string `yaml:"api_use"`
	Model  string `yaml:"model"`

	MaxOutputTokens int     `yaml:"max_output_tokens"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"`

	ProcessedRulesFile     string `yaml:"processed_rules_file"`
	GeneratedTestCasesFile string `yaml:"generated_test_cases_file"`

	UseBlobStorage bool `yaml:"use_blob_storage"`
	Blob           Blob `yaml:"blob"`

	Azure       Azure       `yaml:"azure"`
	Credentials Credentials `yaml:"credentials"`
}

const (
	defaultAPIUse          = "gemini"
	defaultMaxOutputTokens = 1500
	defaultRulesFile       = "data/processed_rules.json"
	defaultOutputFile      = "output/generated_test_cases.json"
)

// Load reads and validates the settings file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read settings file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse settings YAML: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.APIUse) == "" {
		c.APIUse = defaultAPIUse
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = defaultMaxOutputTokens
	}
	if strings.TrimSpace(c.ProcessedRulesFile) == "" {
		c.ProcessedRulesFile = defaultRulesFile
	}
	if strings.TrimSpace(c.GeneratedTestCasesFile) == "" {
		c.GeneratedTestCasesFile = defaultOutputFile
	}
	return c
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.APIUse)) {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported api_use %q (expected gemini|openai)", c.APIUse)
	}
	if c.UseBlobStorage {
		if strings.TrimSpace(c.Blob.BaseURL) == "" {
			return fmt.Errorf("blob.base_url is required when use_blob_storage is set")
		}
		if strings.TrimSpace(c.Blob.Container) == "" {
			return fmt.Errorf("blob.container is required when use_blob_storage is set")
		}
	}
	return nil
}

// Provider returns the normalized provider name.
func (c Config) Provider() string {
	return strings.ToLower(strings.TrimSpace(c.APIUse))
}
