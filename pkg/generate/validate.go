package generate

import (
	"strings"
	"time"

	"github.com/shpitdev/schema-testgen/pkg/schema"
)

// dateFormat pairs a fraction-free Go time layout with the pattern shown to
// the model and in rejection messages. The fractional seconds are checked
// separately: the fraction must be present and carry 1 to maxFractionDigits
// digits, so "10:20:30.5" and "10:20:30.123456" both match the same entry.
// The registry currently recognizes a single format; adding an entry extends
// both validation and the prompt hint.
type dateFormat struct {
	layout            string
	pattern           string
	maxFractionDigits int
}

var dateFormats = []dateFormat{
	{layout: "2006-01-02 15:04:05", pattern: "YYYY-MM-DD HH:MM:SS.ffffff", maxFractionDigits: 6},
}

func (f dateFormat) matches(s string) bool {
	base, frac, found := strings.Cut(s, ".")
	if !found || frac == "" || len(frac) > f.maxFractionDigits {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := time.Parse(f.layout, base)
	return err == nil
}

// DateFormatHints returns the accepted date patterns in registry order.
func DateFormatHints() []string {
	out := make([]string, 0, len(dateFormats))
	for _, f := range dateFormats {
		out = append(out, f.pattern)
	}
	return out
}

func dateFormatList() string {
	return "[" + strings.Join(DateFormatHints(), ", ") + "]"
}

var requiredCaseKeys = []string{"test_case", "description", "expected_result", "input"}

// Validate applies the universal structural checks and the type-specific
// acceptance rule for the field's kind. It returns whether the candidate is
// accepted and, if not, the rejection reason.
func Validate(candidate map[string]any, kind schema.TypeKind) (bool, string) {
	for _, key := range requiredCaseKeys {
		if _, ok := candidate[key]; !ok {
			return false, "Missing required fields"
		}
	}

	expected, ok := candidate["expected_result"].(string)
	if !ok || (expected != "Pass" && expected != "Fail") {
		return false, "Invalid expected_result value"
	}

	switch kind {
	case schema.TypeDate:
		return validateDateInput(candidate["input"])
	case schema.TypeString:
		return validateStringInput(candidate["input"], expected)
	default:
		return true, ""
	}
}

// validateDateInput accepts null unconditionally; absence is structurally
// valid regardless of mandatory-ness.
func validateDateInput(input any) (bool, string) {
	if input == nil {
		return true, ""
	}
	s, ok := input.(string)
	if !ok {
		return false, "Date input must be a string"
	}
	for _, f := range dateFormats {
		if f.matches(s) {
			return true, ""
		}
	}
	return false, "Invalid date format. Expected formats: " + dateFormatList()
}

// validateStringInput polices only the Pass side: a non-string input that is
// expected to Pass is rejected, every other combination is accepted.
func validateStringInput(input any, expected string) (bool, string) {
	if input == nil {
		return true, ""
	}
	if _, ok := input.(string); ok {
		return true, ""
	}
	if expected == "Pass" {
		return false, "String field with non-string input should fail if expected to Pass"
	}
	return true, ""
}
