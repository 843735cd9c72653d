package generate_test

import (
	"testing"

	"github.com/shpitdev/schema-testgen/pkg/generate"
	"github.com/shpitdev/schema-testgen/pkg/schema"
)

func candidate(expected string, input any) map[string]any {
	return map[string]any{
		"test_case":       "TC001",
		"description":     "desc",
		"expected_result": expected,
		"input":           input,
	}
}

func TestValidateStructure(t *testing.T) {
	t.Parallel()
	t.Run("missing key", func(t *testing.T) {
		c := candidate("Pass", "x")
		delete(c, "description")
		ok, reason := generate.Validate(c, schema.TypeOther)
		if ok || reason != "Missing required fields" {
			t.Fatalf("expected missing-fields rejection, got ok=%v reason=%q", ok, reason)
		}
	})

	t.Run("expected_result must be exact", func(t *testing.T) {
		for _, v := range []string{"pass", "FAIL", "maybe", ""} {
			ok, reason := generate.Validate(candidate(v, "x"), schema.TypeOther)
			if ok || reason != "Invalid expected_result value" {
				t.Fatalf("expected_result %q: got ok=%v reason=%q", v, ok, reason)
			}
		}
	})

	t.Run("expected_result must be a string", func(t *testing.T) {
		ok, reason := generate.Validate(candidate("Pass", "x"), schema.TypeOther)
		if !ok {
			t.Fatalf("valid candidate rejected: %q", reason)
		}
		c := candidate("Pass", "x")
		c["expected_result"] = true
		ok, reason = generate.Validate(c, schema.TypeOther)
		if ok || reason != "Invalid expected_result value" {
			t.Fatalf("non-string expected_result: got ok=%v reason=%q", ok, reason)
		}
	})
}

func TestValidateDateInput(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		input      any
		wantOK     bool
		wantReason string
	}{
		{name: "valid format", input: "2024-03-01 10:15:30.000000", wantOK: true},
		{name: "one fraction digit", input: "2024-07-29 10:20:30.5", wantOK: true},
		{name: "three fraction digits", input: "2024-07-29 10:20:30.123", wantOK: true},
		{name: "null accepted", input: nil, wantOK: true},
		{name: "seven fraction digits", input: "2024-07-29 10:20:30.1234567", wantOK: false,
			wantReason: "Invalid date format. Expected formats: [YYYY-MM-DD HH:MM:SS.ffffff]"},
		{name: "missing fraction", input: "2024-07-29 10:20:30", wantOK: false,
			wantReason: "Invalid date format. Expected formats: [YYYY-MM-DD HH:MM:SS.ffffff]"},
		{name: "non-digit fraction", input: "2024-07-29 10:20:30.12a", wantOK: false,
			wantReason: "Invalid date format. Expected formats: [YYYY-MM-DD HH:MM:SS.ffffff]"},
		{name: "wrong format", input: "2024-03-01", wantOK: false,
			wantReason: "Invalid date format. Expected formats: [YYYY-MM-DD HH:MM:SS.ffffff]"},
		{name: "non-string", input: float64(20240301), wantOK: false,
			wantReason: "Date input must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := generate.Validate(candidate("Pass", tc.input), schema.TypeDate)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got ok=%v reason=%q", tc.wantOK, ok, reason)
			}
			if !tc.wantOK && reason != tc.wantReason {
				t.Fatalf("expected reason %q, got %q", tc.wantReason, reason)
			}
		})
	}
}

func TestValidateStringInput(t *testing.T) {
	t.Parallel()
	t.Run("string passes", func(t *testing.T) {
		if ok, reason := generate.Validate(candidate("Pass", "hello"), schema.TypeString); !ok {
			t.Fatalf("rejected: %q", reason)
		}
	})
	t.Run("null passes regardless", func(t *testing.T) {
		if ok, reason := generate.Validate(candidate("Pass", nil), schema.TypeString); !ok {
			t.Fatalf("rejected: %q", reason)
		}
	})
	t.Run("non-string expected to Pass is rejected", func(t *testing.T) {
		ok, reason := generate.Validate(candidate("Pass", float64(42)), schema.TypeString)
		if ok || reason != "String field with non-string input should fail if expected to Pass" {
			t.Fatalf("got ok=%v reason=%q", ok, reason)
		}
	})
	t.Run("non-string expected to Fail is kept", func(t *testing.T) {
		if ok, reason := generate.Validate(candidate("Fail", float64(42)), schema.TypeString); !ok {
			t.Fatalf("rejected: %q", reason)
		}
	})
}

func TestValidateOtherKindAcceptsAnyInput(t *testing.T) {
	t.Parallel()
	for _, input := range []any{nil, "x", float64(1.5), true} {
		if ok, reason := generate.Validate(candidate("Fail", input), schema.TypeOther); !ok {
			t.Fatalf("input %v rejected: %q", input, reason)
		}
	}
}

func TestDateFormatHints(t *testing.T) {
	t.Parallel()
	hints := generate.DateFormatHints()
	if len(hints) != 1 || hints[0] != "YYYY-MM-DD HH:MM:SS.ffffff" {
		t.Fatalf("unexpected hints: %v", hints)
	}
}
