package app

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/shpitdev/schema-testgen/internal/config"
	"github.com/shpitdev/schema-testgen/pkg/generate"
)

func TestArtifactNames(t *testing.T) {
	t.Parallel()
	cfg := config.Config{
		ProcessedRulesFile:     "data/processed_rules.json",
		GeneratedTestCasesFile: "output/generated_test_cases.json",
	}

	rules, output := artifactNames(cfg)
	if rules != "data/processed_rules.json" || output != "output/generated_test_cases.json" {
		t.Fatalf("local mode must keep paths: %q %q", rules, output)
	}

	cfg.UseBlobStorage = true
	rules, output = artifactNames(cfg)
	if rules != "processed_rules.json" || output != "generated_test_cases.json" {
		t.Fatalf("blob mode must use base names: %q %q", rules, output)
	}
}

func TestNewCompleterRejectsUnknownProvider(t *testing.T) {
	t.Parallel()
	cfg := config.Config{APIUse: "claude"}
	if _, err := newCompleter(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestLogSummary(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	logSummary(logger, generate.Summary{FieldsWithCases: 2, TotalCases: 9}, "output/generated_test_cases.json", "local file system (.)")

	out := buf.String()
	for _, want := range []string{
		"Test Case Generation Summary",
		"Total fields with generated test cases: 2",
		"Total test cases generated: 9",
		"Average test cases per field: 4.5",
		"Output files (JSON and CSV) base name: generated_test_cases",
		"Saved to: local file system (.)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
