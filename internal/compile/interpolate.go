package compile

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// Interpolator resolves ${{...}} references in agent text fields at compile
// time. Expressions evaluate against the scope map (task, workflow, node).
// Thread-safe: compiled programs are cached and reused across goroutines.
type Interpolator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewInterpolator creates an Interpolator with an empty program cache.
func NewInterpolator() *Interpolator {
	return &Interpolator{cache: make(map[string]*vm.Program)}
}

// ResolveString scans s for ${{...}} tokens and replaces each with its
// evaluated value. A value that is not a string is JSON-encoded. Returns s
// unchanged when it contains no tokens.
func (in *Interpolator) ResolveString(s string, scope map[string]any) (string, error) {
	if !strings.Contains(s, "${{") {
		return s, nil
	}

	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		idx := strings.Index(s[i:], "${{")
		if idx == -1 {
			result.WriteString(s[i:])
			break
		}

		result.WriteString(s[i : i+idx])
		start := i + idx + 3

		end := strings.Index(s[start:], "}}")
		if end == -1 {
			return "", schema.NewError(schema.ErrCodeInterpolation, "unclosed ${{ expression")
		}
		end += start

		expression := strings.TrimSpace(s[start:end])
		if expression == "" {
			return "", schema.NewError(schema.ErrCodeInterpolation, "empty ${{}} expression")
		}
		if strings.Contains(expression, "${{") {
			return "", schema.NewError(schema.ErrCodeInterpolation,
				"nested interpolation not allowed: ${{...}} cannot contain ${{")
		}

		value, err := in.evaluate(expression, scope)
		if err != nil {
			return "", err
		}
		result.WriteString(stringify(value))

		i = end + 2
	}

	return result.String(), nil
}

// evaluate compiles (or fetches from cache) an expression and runs it
// against the scope.
func (in *Interpolator) evaluate(expression string, scope map[string]any) (any, error) {
	prg, err := in.getOrCompile(expression, scope)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInterpolation,
			"invalid expression %q: %s", expression, err.Error()).WithCause(err)
	}

	env := scope
	if env == nil {
		env = map[string]any{}
	}
	out, err := vm.Run(prg, env)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInterpolation,
			"evaluation failed for %q: %s", expression, err.Error()).WithCause(err)
	}
	return out, nil
}

func (in *Interpolator) getOrCompile(expression string, scope map[string]any) (*vm.Program, error) {
	in.mu.RLock()
	if prg, ok := in.cache[expression]; ok {
		in.mu.RUnlock()
		return prg, nil
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	if prg, ok := in.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.Env(scope))
	if err != nil {
		return nil, err
	}
	in.cache[expression] = prg
	return prg, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
