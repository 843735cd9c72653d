package generate

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/shpitdev/schema-testgen/pkg/schema"
)

// ParseErrorKind distinguishes malformed JSON from a well-formed document of
// the wrong top-level shape.
type ParseErrorKind string

const (
	ParseErrorJSONDecode ParseErrorKind = "json_decode"
	ParseErrorShape      ParseErrorKind = "shape"
)

// ParseError reports an unusable model response. Snippet is a truncated hint
// of the offending text for diagnostics; it never carries the full response.
type ParseError struct {
	Kind    ParseErrorKind
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse model response"
	}
	msg := fmt.Sprintf("parse model response: kind=%s", e.Kind)
	if e.Err != nil {
		msg += " err=" + e.Err.Error()
	}
	if strings.TrimSpace(e.Snippet) != "" {
		msg += " snippet=" + e.Snippet
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// invalidEscapeRe matches a backslash followed by anything other than a
// double-quote or another backslash. Models occasionally emit raw Windows
// paths or similar inside string literals; doubling the backslash recovers
// them. This is a narrow repair for that one failure mode, not a JSON fixer.
var invalidEscapeRe = regexp.MustCompile(`\\([^"\\])`)

func repairEscapes(s string) string {
	return invalidEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ParseResponse turns raw model output into accepted, normalized test cases.
//
// Candidates that fail validation are dropped with a logged reason and do not
// abort the batch. An empty slice with a nil error means the response was a
// well-formed array that yielded zero valid cases.
func ParseResponse(logger *log.Logger, raw string, kind schema.TypeKind) ([]TestCase, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = repairEscapes(cleaned)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, &ParseError{Kind: ParseErrorJSONDecode, Snippet: snippet(cleaned), Err: err}
	}

	arr, ok := decoded.([]any)
	if !ok {
		return nil, &ParseError{
			Kind:    ParseErrorShape,
			Snippet: snippet(cleaned),
			Err:     fmt.Errorf("response is not a JSON array"),
		}
	}

	accepted := make([]TestCase, 0, len(arr))
	for i, el := range arr {
		candidate, ok := el.(map[string]any)
		if !ok {
			logf(logger, "test case %d validation failed: element is not a JSON object, skipping", i+1)
			continue
		}
		valid, reason := Validate(candidate, kind)
		if !valid {
			logf(logger, "test case %d validation failed: %s, skipping", i+1, reason)
			continue
		}
		accepted = append(accepted, TestCase{
			TestCase:       asText(candidate["test_case"]),
			Description:    asText(candidate["description"]),
			ExpectedResult: NormalizeExpectedResult(candidate["expected_result"].(string)),
			Input:          candidate["input"],
		})
	}
	return accepted, nil
}

const snippetMax = 500

func snippet(s string) string {
	if len(s) > snippetMax {
		s = s[:snippetMax] + "..."
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}
