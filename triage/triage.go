// Package triage filters ranked correlation results through
// analyst-defined CEL predicates so downstream alerting only sees the
// results a routing policy selected.
//
// Rules are compiled once when the engine is built; filtering is pure
// evaluation and safe for concurrent use.
package triage

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/zero-day-ai/threatgraph/correlate"
)

// Rule is one named predicate over a correlation result. The expression
// must evaluate to a boolean and may reference:
//
//	actor            string  candidate actor name
//	score            double  raw confidence score
//	percent          double  clamped display confidence
//	band             string  "high", "medium", or "low"
//	matched          int     number of matched input artifacts
//	clues            list    matched input artifact values
//	evidence         list    shared evidence node names
//	incident_backed  bool    curated incident provenance
//
// Example: `band == "high" && incident_backed`.
type Rule struct {
	Name string `json:"name" yaml:"name"`
	Expr string `json:"expr" yaml:"expr"`
}

type compiledRule struct {
	name string
	prog cel.Program
}

// Engine evaluates a fixed rule set against correlation results.
type Engine struct {
	rules []compiledRule
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New compiles the rule set. Compile failures, non-boolean expressions,
// and duplicate names are reported here so a bad policy never reaches
// the filter path.
func New(rules []Rule, opts ...Option) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("actor", cel.StringType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("percent", cel.DoubleType),
		cel.Variable("band", cel.StringType),
		cel.Variable("matched", cel.IntType),
		cel.Variable("clues", cel.ListType(cel.StringType)),
		cel.Variable("evidence", cel.ListType(cel.StringType)),
		cel.Variable("incident_backed", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("triage: build environment: %w", err)
	}

	e := &Engine{
		rules: make([]compiledRule, 0, len(rules)),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("triage: rule with expression %q has no name", r.Expr)
		}
		if r.Expr == "" {
			return nil, fmt.Errorf("triage: rule %q has no expression", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("triage: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("triage: rule %q: %w", r.Name, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("triage: rule %q must evaluate to a boolean, got %s",
				r.Name, ast.OutputType())
		}

		prog, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("triage: rule %q: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiledRule{name: r.Name, prog: prog})
	}
	return e, nil
}

// Filter returns the results selected by at least one rule, preserving
// their ranked order, plus the match count per rule. Every rule is
// evaluated against every result so the counts stay meaningful for
// routing dashboards. A rule that fails to evaluate against a result
// simply does not select it.
func (e *Engine) Filter(results []correlate.Result) ([]correlate.Result, map[string]int) {
	counts := make(map[string]int, len(e.rules))
	for _, r := range e.rules {
		counts[r.name] = 0
	}

	selected := make([]correlate.Result, 0, len(results))
	for _, res := range results {
		vars := activation(res)
		matched := false
		for _, r := range e.rules {
			out, _, err := r.prog.Eval(vars)
			if err != nil {
				e.log.Warn("triage rule evaluation failed",
					slog.String("rule", r.name),
					slog.String("actor", res.Actor),
					slog.Any("error", err))
				continue
			}
			hit, ok := out.Value().(bool)
			if !ok || !hit {
				continue
			}
			counts[r.name]++
			matched = true
		}
		if matched {
			selected = append(selected, res)
		}
	}
	return selected, counts
}

func activation(res correlate.Result) map[string]any {
	return map[string]any{
		"actor":           res.Actor,
		"score":           res.Score,
		"percent":         res.Percent,
		"band":            string(res.Band),
		"matched":         len(res.MatchedClues),
		"clues":           res.MatchedClues,
		"evidence":        res.EvidenceNodes,
		"incident_backed": res.IncidentBacked,
	}
}
