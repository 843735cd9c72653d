package generate

import (
	"context"
	"log"
	"strings"

	"golang.org/x/time/rate"

	"github.com/shpitdev/schema-testgen/pkg/schema"
)

// FieldState tracks one field through the generation attempt loop.
type FieldState int

const (
	StatePending FieldState = iota
	StateAttempting
	StateSucceeded
	StateExhausted
)

func (s FieldState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxAttempts is the fixed retry budget per field.
	DefaultMaxAttempts = 3
	// DefaultMaxOutputTokens caps completion length when config does not.
	DefaultMaxOutputTokens = 1500
)

type Options struct {
	MaxAttempts     int
	MaxOutputTokens int

	// RateLimitRPS is a global limit on completion calls. Set to <=0 to disable.
	RateLimitRPS float64
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return o
}

// Summary reports the per-run aggregate statistics.
type Summary struct {
	FieldsWithCases int
	TotalCases      int
}

// MeanCasesPerField returns the mean over fields that produced cases, or 0.
func (s Summary) MeanCasesPerField() float64 {
	if s.FieldsWithCases == 0 {
		return 0
	}
	return float64(s.TotalCases) / float64(s.FieldsWithCases)
}

// Generator drives prompt→call→parse→validate per field, strictly
// sequentially, accumulating an insertion-ordered result.
type Generator struct {
	completer Completer
	logger    *log.Logger
	opts      Options
	limiter   *rate.Limiter
}

func New(completer Completer, logger *log.Logger, opts Options) *Generator {
	opts = opts.withDefaults()
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return &Generator{
		completer: completer,
		logger:    logger,
		opts:      opts,
		limiter:   limiter,
	}
}

// Run processes every field of the rule set in document order. Per-field
// failures are contained: a field that exhausts its attempt budget is logged
// and absent from the result. The only returned error is context
// cancellation.
func (g *Generator) Run(ctx context.Context, rules *schema.RuleSet) (*Result, Summary, error) {
	result := NewResult()
	total := rules.Len()

	for i, field := range rules.Fields() {
		key := field.Key()
		g.logf("processing field %d/%d: %s", i+1, total, key)

		if result.Has(key) {
			g.logf("skipping %s, already processed", key)
			continue
		}

		cases, state, err := g.generateField(ctx, field)
		if err != nil {
			return nil, Summary{}, err
		}
		switch state {
		case StateSucceeded:
			if err := result.Add(key, cases); err != nil {
				// Unreachable given the guard above; keep the result intact.
				g.logf("skipping %s: %s", key, err)
				continue
			}
			g.logf("successfully generated %d test cases for %s", len(cases), key)
		case StateExhausted:
			g.logf("error: failed to generate test cases for %s after %d attempts", key, g.opts.MaxAttempts)
		}
	}

	return result, Summary{
		FieldsWithCases: result.Len(),
		TotalCases:      result.TotalCases(),
	}, nil
}

// generateField runs the attempt loop for a single field. The prompt is built
// once; each attempt is one completion call followed by parse+validate. The
// first attempt yielding a non-empty accepted list wins.
func (g *Generator) generateField(ctx context.Context, field schema.Field) ([]TestCase, FieldState, error) {
	prompt := BuildPrompt(
		field.Name,
		field.Spec.DataType,
		field.Spec.Mandatory,
		field.Spec.PrimaryKey,
		field.Spec.BusinessRules,
	)
	kind := schema.Classify(field.Spec.DataType)
	key := field.Key()

	state := StatePending
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		state = StateAttempting

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, state, err
			}
		}

		text, err := g.completer.Complete(ctx, prompt, g.opts.MaxOutputTokens)
		if err != nil {
			if ctx.Err() != nil {
				return nil, state, ctx.Err()
			}
			g.logf("attempt %d for %s failed with completion error: %s", attempt, key, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			g.logf("attempt %d for %s: model returned empty response", attempt, key)
			continue
		}

		cases, err := ParseResponse(g.logger, text, kind)
		if err != nil {
			g.logf("attempt %d for %s: %s", attempt, key, err)
			continue
		}
		if len(cases) == 0 {
			g.logf("attempt %d for %s: failed to parse valid test cases from model response", attempt, key)
			continue
		}
		return cases, StateSucceeded, nil
	}
	return nil, StateExhausted, nil
}

func (g *Generator) logf(format string, args ...any) {
	logf(g.logger, format, args...)
}
