package policy

import (
	"context"
	"fmt"

	"github.com/cmdwarden/cmdwarden/internal/shellparse"
)

// Ruleset is a snapshot of the three rule lists used for one evaluation.
type Ruleset struct {
	Allow []string
	Deny  []string
	Ask   []string
}

// RuleSource supplies the current rule lists. Implemented by the rules
// store; injected so the evaluator never touches persistence directly.
type RuleSource interface {
	Ruleset(ctx context.Context) (*Ruleset, error)
}

// EntryResult is the per-simple-command outcome within a line.
type EntryResult struct {
	Tokens      []string `json:"tokens"`
	Decision    Decision `json:"decision"`
	MatchedRule string   `json:"matched_rule,omitempty"`
	MatchedList string   `json:"matched_list,omitempty"`
}

// Result is the full evaluation outcome for a command line.
type Result struct {
	Decision Decision      `json:"decision"`
	Entries  []EntryResult `json:"entries,omitempty"`
}

// Evaluator decides whether a command line is allowed, denied, or needs
// human approval. Precedence per entry is deny > ask > allow > mode
// default; a compound line is only as safe as its most dangerous entry.
type Evaluator struct {
	rules RuleSource
	arity ArityStrategy
}

type Option func(*Evaluator)

// WithArityStrategy overrides the heuristic deciding how many leading
// tokens form the base invocation.
func WithArityStrategy(s ArityStrategy) Option {
	return func(e *Evaluator) {
		e.arity = s
	}
}

func NewEvaluator(rules RuleSource, opts ...Option) *Evaluator {
	e := &Evaluator{
		rules: rules,
		arity: DefaultArity{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the decision for a whole command line. Parse failures
// propagate; they are never mapped to a decision.
func (e *Evaluator) Evaluate(ctx context.Context, command string, mode Mode) (Decision, error) {
	res, err := e.Explain(ctx, command, mode)
	if err != nil {
		return "", err
	}
	return res.Decision, nil
}

// Explain evaluates a command line and reports which rule matched each
// entry, for audit logs and the CLI.
func (e *Evaluator) Explain(ctx context.Context, command string, mode Mode) (*Result, error) {
	entries, err := shellparse.Parse(command)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// Nothing executable on the line; the mode default governs.
		return &Result{Decision: mode.Default()}, nil
	}

	rs, err := e.rules.Ruleset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule lists: %w", err)
	}

	result := &Result{Decision: DecisionAllow}
	for _, entry := range entries {
		er := e.evaluateEntry(entry, rs, mode)
		result.Entries = append(result.Entries, er)

		if er.Decision == DecisionDeny {
			result.Decision = DecisionDeny
			break
		}
		if er.Decision == DecisionAsk {
			result.Decision = DecisionAsk
		}
	}
	return result, nil
}

func (e *Evaluator) evaluateEntry(entry shellparse.Entry, rs *Ruleset, mode Mode) EntryResult {
	er := EntryResult{Tokens: entry.Tokens}
	candidates := Candidates(entry.Tokens, e.arity)

	if rule, ok := matchAny(candidates, rs.Deny); ok {
		er.Decision, er.MatchedRule, er.MatchedList = DecisionDeny, rule, "denylist"
		return er
	}
	if rule, ok := matchAny(candidates, rs.Ask); ok {
		er.Decision, er.MatchedRule, er.MatchedList = DecisionAsk, rule, "asklist"
		return er
	}
	if rule, ok := matchAny(candidates, rs.Allow); ok {
		er.Decision, er.MatchedRule, er.MatchedList = DecisionAllow, rule, "allowlist"
		return er
	}
	er.Decision = mode.Default()
	return er
}

func matchAny(candidates, rules []string) (string, bool) {
	for _, rule := range rules {
		for _, candidate := range candidates {
			if Match(candidate, rule) {
				return rule, true
			}
		}
	}
	return "", false
}
