package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shpitdev/schema-testgen/internal/app"
	"github.com/shpitdev/schema-testgen/internal/config"
	"github.com/shpitdev/schema-testgen/internal/util"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "run":
		os.Exit(run(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var configPath string
	var provider string
	var model string
	var maxOutputTokens int
	var rateLimitRPS float64
	var rulesFile string
	var outputFile string

	fs.StringVar(&configPath, "config", defaultString("TESTGEN_CONFIG", "settings.yaml"), "Settings YAML file path (env: TESTGEN_CONFIG)")
	fs.StringVar(&provider, "provider", "", "Completion provider override: gemini or openai")
	fs.StringVar(&model, "model", "", "Model name override")
	fs.IntVar(&maxOutputTokens, "max-output-tokens", 0, "Max output tokens per completion (env: MAX_OUTPUT_TOKENS)")
	fs.Float64Var(&rateLimitRPS, "rate-limit-rps", 0, "Request rate limit (RPS), 0 uses the configured value (env: RATE_LIMIT_RPS)")
	fs.StringVar(&rulesFile, "rules", "", "Processed rules JSON path override")
	fs.StringVar(&outputFile, "output", "", "Generated test cases JSON path override")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	cfg, err = applyOverrides(cfg, provider, model, maxOutputTokens, rateLimitRPS, rulesFile, outputFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if err := app.Run(ctx, cfg, logger); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

// applyOverrides layers flag values and environment variables over the file
// configuration. Secrets come from the environment when set, so the settings
// file can stay credential-free.
func applyOverrides(cfg config.Config, provider, model string, maxOutputTokens int, rateLimitRPS float64, rulesFile, outputFile string) (config.Config, error) {
	if v := strings.TrimSpace(provider); v != "" {
		cfg.APIUse = v
	}
	if v := strings.TrimSpace(model); v != "" {
		cfg.Model = v
	}
	if maxOutputTokens > 0 {
		cfg.MaxOutputTokens = maxOutputTokens
	} else if v, err := envInt("MAX_OUTPUT_TOKENS", 0); err != nil {
		return config.Config{}, err
	} else if v > 0 {
		cfg.MaxOutputTokens = v
	}
	if rateLimitRPS > 0 {
		cfg.RateLimitRPS = rateLimitRPS
	} else if v, err := envFloat("RATE_LIMIT_RPS", 0); err != nil {
		return config.Config{}, err
	} else if v > 0 {
		cfg.RateLimitRPS = v
	}
	if v := strings.TrimSpace(rulesFile); v != "" {
		cfg.ProcessedRulesFile = v
	}
	if v := strings.TrimSpace(outputFile); v != "" {
		cfg.GeneratedTestCasesFile = v
	}

	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		cfg.Credentials.GeminiAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AZURE_CLIENT_ID")); v != "" {
		cfg.Credentials.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("AZURE_CLIENT_SECRET")); v != "" {
		cfg.Credentials.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("BLOB_TOKEN")); v != "" {
		cfg.Credentials.BlobToken = v
	}
	return cfg, nil
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `testgen: schema-rule driven LLM test case generator

Usage:
  testgen <command> [flags]

Commands:
  run   Generate test cases from a processed rules JSON file
  help  Show this help

Examples:
  testgen run --config settings.yaml
  testgen run --provider gemini --rules data/processed_rules.json --output output/generated_test_cases.json

Environment:
  TESTGEN_CONFIG       Settings YAML path (default: settings.yaml)
  GEMINI_API_KEY       Gemini API key (overrides credentials.gemini_api_key)
  AZURE_CLIENT_ID      OAuth2 client id for the openai provider
  AZURE_CLIENT_SECRET  OAuth2 client secret for the openai provider
  BLOB_TOKEN           Bearer token for the remote object store
  MAX_OUTPUT_TOKENS    Max output tokens per completion
  RATE_LIMIT_RPS       Request rate limit (RPS), 0 disables

`)
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
