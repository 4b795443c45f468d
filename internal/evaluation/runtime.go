package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"

	"signet/internal/compiler"
	"signet/internal/entity"
	dErrors "signet/pkg/domain-errors"
)

// entryQuery is the bundle's single query entry point.
const entryQuery = "data.signet.main.evaluate"

// Runtime executes compiled bundles in an isolated evaluation context. Each
// call gets a fresh store carrying the prepared entity data, so concurrent
// evaluations against the same bundle never share mutable state.
type Runtime struct {
	clock  func() time.Time
	logger *slog.Logger
}

type RuntimeOption func(*Runtime)

// WithClock substitutes the wall-clock provider; evaluations become
// reproducible in tests.
func WithClock(clock func() time.Time) RuntimeOption {
	return func(r *Runtime) {
		r.clock = clock
	}
}

func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Evaluate runs the bundle against one input. A sandbox fault is fatal for
// the call; it never yields a partial result and is never mapped to a forbid.
func (r *Runtime) Evaluate(ctx context.Context, bundle *compiler.Bundle, data entity.PreparedData, input Input) ([]Result, error) {
	if bundle == nil || bundle.Compiled() == nil {
		return nil, dErrors.New(dErrors.CodeEvaluation, "bundle not loaded")
	}

	if input.Now == 0 {
		input.Now = r.clock().Unix()
	}

	storeDoc, err := toJSONValue(map[string]any{"entities": data})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeEvaluation, "prepare entity data", err)
	}
	inputDoc, err := toJSONValue(input)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeEvaluation, "prepare input", err)
	}

	query := rego.New(
		rego.Query(entryQuery),
		rego.Compiler(bundle.Compiled()),
		rego.Store(inmem.NewFromObject(storeDoc.(map[string]any))),
		rego.Input(inputDoc),
	)

	resultSet, err := query.Eval(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeEvaluation, "evaluate bundle", err)
	}
	if len(resultSet) == 0 {
		return nil, dErrors.New(dErrors.CodeEvaluation, "bundle produced no result")
	}

	// Zero or more result groups per call; flatten across every result and
	// expression without assuming cardinality.
	var results []Result
	for _, res := range resultSet {
		for _, expr := range res.Expressions {
			decoded, err := decodeResults(expr.Value)
			if err != nil {
				return nil, err
			}
			results = append(results, decoded...)
		}
	}
	return results, nil
}

func decodeResults(value any) ([]Result, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeEvaluation, "decode evaluation result", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var many []Result
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeEvaluation, "decode evaluation result", err)
		}
		return many, nil
	}
	var one Result
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeEvaluation, "decode evaluation result", err)
	}
	return []Result{one}, nil
}

// toJSONValue round-trips v through JSON with number preservation so large
// integers reach the sandbox intact.
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
