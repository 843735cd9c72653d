// Package sink serializes a finished generation result into the JSON record
// artifact and the flattened CSV export.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shpitdev/schema-testgen/pkg/generate"
	"github.com/shpitdev/schema-testgen/pkg/storage"
)

// Header is the stable column order of the CSV export.
func Header() []string {
	return []string{"SchemaName", "FieldName", "Test Case", "Description", "Expected Result", "Input"}
}

const backupTimestampLayout = "20060102_150405"

// Sink writes both artifacts through one storage destination.
type Sink struct {
	store  storage.Store
	logger *log.Logger
}

func New(store storage.Store, logger *log.Logger) *Sink {
	return &Sink{store: store, logger: logger}
}

// Save writes the JSON record artifact at baseName and the CSV export next to
// it. The JSON artifact is authoritative: its write failure fails the run,
// while a CSV failure after a successful JSON write is logged only. An empty
// result skips the CSV entirely.
func (s *Sink) Save(ctx context.Context, result *generate.Result, baseName string) error {
	jsonName := baseName
	csvName := strings.TrimSuffix(baseName, path.Ext(baseName)) + ".csv"

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal test cases: %w", err)
	}

	s.backup(ctx, jsonName)
	if err := s.store.PutBytes(ctx, jsonName, jsonBytes); err != nil {
		return fmt.Errorf("save test cases to %s: %w", jsonName, err)
	}
	s.logf("successfully saved test cases to %s", jsonName)

	if result.Len() == 0 {
		s.logf("test cases result is empty, skipping CSV export")
		return nil
	}

	csvBytes, err := marshalCSV(result)
	if err != nil {
		s.logf("error: build CSV export: %s", err)
		return nil
	}
	s.backup(ctx, csvName)
	if err := s.store.PutBytes(ctx, csvName, csvBytes); err != nil {
		s.logf("error: save test cases to %s: %s", csvName, err)
		return nil
	}
	s.logf("successfully saved test cases to %s", csvName)
	return nil
}

// backup archives an existing artifact with a timestamp suffix rather than
// overwriting it in place. Backup failures are logged and do not stop the
// write.
func (s *Sink) backup(ctx context.Context, name string) {
	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		s.logf("error: check existing %s: %s", name, err)
		return
	}
	if !exists {
		return
	}
	backupName := fmt.Sprintf("%s.%s.bak", name, time.Now().Format(backupTimestampLayout))
	if err := s.store.Rename(ctx, name, backupName); err != nil {
		s.logf("error: create backup for %s: %s", name, err)
		return
	}
	s.logf("created backup: %s", backupName)
}

func marshalCSV(result *generate.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header()); err != nil {
		return nil, err
	}
	for _, key := range result.Keys() {
		schemaName, fieldName := splitKey(key)
		for _, tc := range result.Cases(key) {
			row := []string{
				schemaName,
				fieldName,
				tc.TestCase,
				tc.Description,
				tc.ExpectedResult,
				renderInput(tc.Input),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitKey splits a composite key on the first "." only; schema names are
// validated at load time to never contain one.
func splitKey(key string) (schemaName, fieldName string) {
	schemaName, fieldName, found := strings.Cut(key, ".")
	if !found {
		return key, ""
	}
	return schemaName, fieldName
}

func renderInput(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (s *Sink) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
