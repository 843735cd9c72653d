package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestCase is one generated test case for a field. Input is one of nil,
// string, json.Number, or bool, exactly as decoded from the model response.
type TestCase struct {
	TestCase       string `json:"test_case"`
	Description    string `json:"description"`
	ExpectedResult string `json:"expected_result"`
	Input          any    `json:"input"`
}

// Completer turns a prompt into generated text. Each provider supplies one
// implementation; callers never inspect provider identity.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// TransientError marks a completion failure as retryable within a field's
// attempt budget.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NormalizeExpectedResult canonicalizes an expected_result value: any
// case-insensitive spelling of "pass" becomes "Pass", everything else "Fail".
// Normalizing a normalized value is a no-op.
func NormalizeExpectedResult(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "pass") {
		return "Pass"
	}
	return "Fail"
}

// Result is the aggregated field→cases mapping. Key order is insertion order,
// which the JSON marshalling preserves.
type Result struct {
	keys  []string
	cases map[string][]TestCase
}

func NewResult() *Result {
	return &Result{cases: make(map[string][]TestCase)}
}

// Has reports whether the composite key is already present.
func (r *Result) Has(key string) bool {
	_, ok := r.cases[key]
	return ok
}

// Add records the case list for a composite key. A key is only ever added
// once per run; adding an existing key is an error.
func (r *Result) Add(key string, cases []TestCase) error {
	if r.Has(key) {
		return fmt.Errorf("result already contains %q", key)
	}
	r.keys = append(r.keys, key)
	r.cases[key] = cases
	return nil
}

// Keys returns the composite keys in insertion order.
func (r *Result) Keys() []string {
	return r.keys
}

// Cases returns the case list for a composite key.
func (r *Result) Cases(key string) []TestCase {
	return r.cases[key]
}

// Len returns the number of fields with at least one case.
func (r *Result) Len() int {
	return len(r.keys)
}

// TotalCases returns the number of cases across all fields.
func (r *Result) TotalCases() int {
	n := 0
	for _, key := range r.keys {
		n += len(r.cases[key])
	}
	return n
}

// MarshalJSON writes the mapping with keys in insertion order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.cases[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}
