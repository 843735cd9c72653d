package generate_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/shpitdev/schema-testgen/pkg/generate"
	"github.com/shpitdev/schema-testgen/pkg/schema"
)

func TestParseResponseStripsCodeFences(t *testing.T) {
	t.Parallel()
	raw := "```json\n[{\"test_case\":\"TC001\",\"description\":\"d\",\"expected_result\":\"Pass\",\"input\":\"x\"}]\n```"
	cases, err := generate.ParseResponse(nil, raw, schema.TypeString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}
	if cases[0].TestCase != "TC001" || cases[0].Input != "x" {
		t.Fatalf("unexpected case: %#v", cases[0])
	}
}

func TestParseResponseRepairsBackslashes(t *testing.T) {
	t.Parallel()
	// A raw Windows path inside a string literal is not valid JSON until the
	// backslashes are doubled.
	raw := `[{"test_case":"TC001","description":"d","expected_result":"Fail","input":"C:\temp\new"}]`
	cases, err := generate.ParseResponse(nil, raw, schema.TypeString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}
	if got := cases[0].Input; got != `C:\temp\new` {
		t.Fatalf("expected repaired path, got %q", got)
	}
}

func TestParseResponseNumbersStayTextual(t *testing.T) {
	t.Parallel()
	raw := `[{"test_case":"TC001","description":"d","expected_result":"Pass","input":42}]`
	cases, err := generate.ParseResponse(nil, raw, schema.TypeOther)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := cases[0].Input.(json.Number)
	if !ok {
		t.Fatalf("expected json.Number input, got %T", cases[0].Input)
	}
	if n.String() != "42" {
		t.Fatalf("expected 42, got %q", n.String())
	}
}

func TestParseResponseErrors(t *testing.T) {
	t.Parallel()
	t.Run("malformed JSON", func(t *testing.T) {
		_, err := generate.ParseResponse(nil, "the model apologizes", schema.TypeOther)
		var pe *generate.ParseError
		if !errors.As(err, &pe) || pe.Kind != generate.ParseErrorJSONDecode {
			t.Fatalf("expected json_decode parse error, got %v", err)
		}
	})
	t.Run("wrong top-level shape", func(t *testing.T) {
		_, err := generate.ParseResponse(nil, `{"test_case":"TC001"}`, schema.TypeOther)
		var pe *generate.ParseError
		if !errors.As(err, &pe) || pe.Kind != generate.ParseErrorShape {
			t.Fatalf("expected shape parse error, got %v", err)
		}
	})
}

func TestParseResponseDropsInvalidCandidates(t *testing.T) {
	t.Parallel()
	raw := `[
		{"test_case":"TC001","description":"d","expected_result":"Pass","input":"ok"},
		{"test_case":"TC002","description":"d","expected_result":"maybe","input":"x"},
		"not an object",
		{"test_case":"TC003","description":"d","expected_result":"Fail","input":null}
	]`
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	cases, err := generate.ParseResponse(logger, raw, schema.TypeString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 accepted cases, got %d", len(cases))
	}
	if cases[0].TestCase != "TC001" || cases[1].TestCase != "TC003" {
		t.Fatalf("unexpected cases: %#v", cases)
	}
	if cases[1].Input != nil {
		t.Fatalf("expected nil input, got %v", cases[1].Input)
	}

	logged := buf.String()
	if !strings.Contains(logged, "test case 2 validation failed: Invalid expected_result value, skipping") {
		t.Fatalf("missing rejection log for candidate 2: %q", logged)
	}
	if !strings.Contains(logged, "test case 3 validation failed: element is not a JSON object, skipping") {
		t.Fatalf("missing rejection log for candidate 3: %q", logged)
	}
}

func TestParseResponseEmptyArrayIsNotAnError(t *testing.T) {
	t.Parallel()
	cases, err := generate.ParseResponse(nil, "[]", schema.TypeOther)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 0 {
		t.Fatalf("expected no cases, got %d", len(cases))
	}
}
