// Package app wires configuration, storage, the completion provider, the
// generation loop, and the result sink into one run.
package app

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/shpitdev/schema-testgen/internal/config"
	"github.com/shpitdev/schema-testgen/internal/llm/azure"
	"github.com/shpitdev/schema-testgen/internal/llm/gemini"
	"github.com/shpitdev/schema-testgen/pkg/blobstore"
	"github.com/shpitdev/schema-testgen/pkg/generate"
	"github.com/shpitdev/schema-testgen/pkg/schema"
	"github.com/shpitdev/schema-testgen/pkg/sink"
	"github.com/shpitdev/schema-testgen/pkg/storage"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Run executes one full generation run. Only rule-source and client
// initialization failures abort it; everything downstream is contained per
// field by the generator.
func Run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logf := func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		logger.Printf("run=%s "+format, prefix...)
	}
	runStart := time.Now()

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	rulesName, outputName := artifactNames(cfg)
	logf("run start: provider=%s rules=%s output=%s maxOutputTokens=%d rateLimitRPS=%g storage=%s",
		cfg.Provider(), rulesName, outputName, cfg.MaxOutputTokens, cfg.RateLimitRPS, store.Description())

	rulesBytes, err := store.GetBytes(ctx, rulesName)
	if err != nil {
		return fmt.Errorf("load rules from %s: %w", rulesName, err)
	}
	rules, err := schema.Load(rulesBytes)
	if err != nil {
		return fmt.Errorf("parse rules from %s: %w", rulesName, err)
	}
	logf("loaded %d fields from rules source", rules.Len())

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize %s client: %w", cfg.Provider(), err)
	}

	gen := generate.New(completer, logger, generate.Options{
		MaxOutputTokens: cfg.MaxOutputTokens,
		RateLimitRPS:    cfg.RateLimitRPS,
	})
	genStart := time.Now()
	result, summary, err := gen.Run(ctx, rules)
	if err != nil {
		return err
	}
	logf("generation complete: fields=%d/%d cases=%d duration=%s",
		summary.FieldsWithCases, rules.Len(), summary.TotalCases, time.Since(genStart).Round(time.Millisecond))

	if err := sink.New(store, logger).Save(ctx, result, outputName); err != nil {
		return err
	}

	logSummary(logger, summary, outputName, store.Description())
	logf("run complete: totalDuration=%s", time.Since(runStart).Round(time.Millisecond))
	return nil
}

// artifactNames resolves the rules and output object names for the configured
// storage mode. Remote mode addresses objects by base name inside the
// configured container/folder; local mode uses the configured paths as-is.
func artifactNames(cfg config.Config) (rulesName, outputName string) {
	if cfg.UseBlobStorage {
		return path.Base(cfg.ProcessedRulesFile), path.Base(cfg.GeneratedTestCasesFile)
	}
	return cfg.ProcessedRulesFile, cfg.GeneratedTestCasesFile
}

func newStore(cfg config.Config) (storage.Store, error) {
	if !cfg.UseBlobStorage {
		return storage.NewLocal("."), nil
	}
	return blobstore.NewClient(
		cfg.Blob.BaseURL,
		cfg.Blob.Container,
		cfg.Blob.Folder,
		cfg.Credentials.BlobToken,
		cfg.Blob.CAPath,
	)
}

func newCompleter(ctx context.Context, cfg config.Config) (generate.Completer, error) {
	switch cfg.Provider() {
	case "gemini":
		model := strings.TrimSpace(cfg.Model)
		if model == "" {
			model = defaultGeminiModel
		}
		return gemini.New(ctx, gemini.Config{
			APIKey: cfg.Credentials.GeminiAPIKey,
			Model:  model,
		})
	case "openai":
		return azure.New(ctx, azure.Config{
			AuthURL:        cfg.Azure.AuthURL,
			Scope:          cfg.Azure.Scope,
			ClientID:       cfg.Credentials.ClientID,
			ClientSecret:   cfg.Credentials.ClientSecret,
			Endpoint:       cfg.Azure.Endpoint,
			DeploymentName: cfg.Azure.DeploymentName,
			APIVersion:     cfg.Azure.APIVersion,
			ProjectID:      cfg.Azure.ProjectID,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.APIUse)
	}
}

func logSummary(logger *log.Logger, summary generate.Summary, outputName, destination string) {
	divider := strings.Repeat("=", 30)
	baseName := strings.TrimSuffix(path.Base(outputName), path.Ext(outputName))
	logger.Printf("\nTest Case Generation Summary\n%s\n"+
		"Total fields with generated test cases: %d\n"+
		"Total test cases generated: %d\n"+
		"Average test cases per field: %.1f\n"+
		"Output files (JSON and CSV) base name: %s\n"+
		"Saved to: %s\n%s",
		divider,
		summary.FieldsWithCases,
		summary.TotalCases,
		summary.MeanCasesPerField(),
		baseName,
		destination,
		divider,
	)
}
