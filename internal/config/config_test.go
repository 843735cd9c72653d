package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shpitdev/schema-testgen/internal/config"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(writeSettings(t, "model: gemini-2.0-flash\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIUse != "gemini" {
		t.Fatalf("expected default provider gemini, got %q", cfg.APIUse)
	}
	if cfg.MaxOutputTokens != 1500 {
		t.Fatalf("expected default max tokens 1500, got %d", cfg.MaxOutputTokens)
	}
	if cfg.ProcessedRulesFile != "data/processed_rules.json" {
		t.Fatalf("unexpected rules default: %q", cfg.ProcessedRulesFile)
	}
	if cfg.GeneratedTestCasesFile != "output/generated_test_cases.json" {
		t.Fatalf("unexpected output default: %q", cfg.GeneratedTestCasesFile)
	}
}

func TestLoadFullSettings(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(writeSettings(t, `
api_use: openai
model: gpt-4o
max_output_tokens: 2000
rate_limit_rps: 0.5
processed_rules_file: rules.json
generated_test_cases_file: cases.json
use_blob_storage: true
blob:
  base_url: https://blob.example.com
  container: testcases
  folder: runs
azure:
  auth_url: https://login.example.com/oauth2/token
  scope: api://example/.default
  endpoint: https://gateway.example.com/api/ai-gateway/1.0
  deployment_name: gpt-4o
  project_id: proj-1
credentials:
  client_id: id
  client_secret: sekret
  blob_token: blob-sekret
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider() != "openai" {
		t.Fatalf("unexpected provider: %q", cfg.Provider())
	}
	if cfg.MaxOutputTokens != 2000 || cfg.RateLimitRPS != 0.5 {
		t.Fatalf("unexpected limits: tokens=%d rps=%v", cfg.MaxOutputTokens, cfg.RateLimitRPS)
	}
	if !cfg.UseBlobStorage || cfg.Blob.Container != "testcases" || cfg.Blob.Folder != "runs" {
		t.Fatalf("unexpected blob config: %#v", cfg.Blob)
	}
	if cfg.Azure.DeploymentName != "gpt-4o" || cfg.Credentials.ClientSecret != "sekret" {
		t.Fatalf("unexpected azure config: %#v", cfg.Azure)
	}
	if cfg.Credentials.BlobToken != "blob-sekret" {
		t.Fatalf("unexpected blob token: %q", cfg.Credentials.BlobToken)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown provider",
			content: "api_use: claude\n",
			wantErr: "unsupported api_use",
		},
		{
			name:    "blob requires base url",
			content: "use_blob_storage: true\nblob:\n  container: testcases\n",
			wantErr: "blob.base_url is required",
		},
		{
			name:    "blob requires container",
			content: "use_blob_storage: true\nblob:\n  base_url: https://blob.example.com\n",
			wantErr: "blob.container is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeSettings(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read settings file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestProviderNormalizes(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(writeSettings(t, "api_use: \" Gemini \"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider() != "gemini" {
		t.Fatalf("expected normalized provider, got %q", cfg.Provider())
	}
}
