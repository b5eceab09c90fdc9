package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/cmdwarden/cmdwarden/internal/shellparse"
)

type staticRules Ruleset

func (r *staticRules) Ruleset(context.Context) (*Ruleset, error) {
	return (*Ruleset)(r), nil
}

func TestEvaluate(t *testing.T) {
	rules := &staticRules{
		Allow: []string{"ls *", "git status", "safe_cmd"},
		Deny:  []string{"rm -rf *", "sudo *"},
		Ask:   []string{"git push *"},
	}
	ev := NewEvaluator(rules)

	tests := []struct {
		name    string
		command string
		mode    Mode
		want    Decision
	}{
		{"allowlisted", "ls -la", ModeSafe, DecisionAllow},
		{"exact allow rule", "git status", ModeSafe, DecisionAllow},
		{"denylisted", "rm -rf /", ModeSmart, DecisionDeny},
		{"asklisted", "git push origin main", ModeSmart, DecisionAsk},
		{"unmatched safe mode", "curl example.com", ModeSafe, DecisionDeny},
		{"unmatched standard mode", "curl example.com", ModeStandard, DecisionAsk},
		{"unmatched smart mode", "curl example.com", ModeSmart, DecisionAllow},
		{"empty line safe", "", ModeSafe, DecisionDeny},
		{"empty line standard", "", ModeStandard, DecisionAsk},
		{"empty line smart", "", ModeSmart, DecisionAllow},
		{"comment only takes mode default", "# nothing here", ModeSmart, DecisionAllow},
		{"compound line propagates deny", "safe_cmd && rm -rf /", ModeSmart, DecisionDeny},
		{"compound line propagates ask", "ls && git push origin main", ModeSmart, DecisionAsk},
		{"deny wins inside pipeline", "ls | sudo tee /etc/passwd", ModeSmart, DecisionDeny},
		{"all entries allowed", "ls -la; git status", ModeSafe, DecisionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(context.Background(), tt.command, tt.mode)
			if err != nil {
				t.Fatalf("Evaluate(%q, %s) returned error: %v", tt.command, tt.mode, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q, %s) = %s, want %s", tt.command, tt.mode, got, tt.want)
			}
		})
	}
}

func TestEvaluateDenyBeatsAllow(t *testing.T) {
	// A command matching both lists resolves to deny regardless of mode.
	rules := &staticRules{
		Allow: []string{"rm *"},
		Deny:  []string{"rm -rf *"},
	}
	ev := NewEvaluator(rules)

	got, err := ev.Evaluate(context.Background(), "rm -rf /home", ModeSmart)
	if err != nil {
		t.Fatal(err)
	}
	if got != DecisionDeny {
		t.Errorf("Evaluate = %s, want %s", got, DecisionDeny)
	}
}

func TestEvaluateParseErrorPropagates(t *testing.T) {
	ev := NewEvaluator(&staticRules{})

	_, err := ev.Evaluate(context.Background(), `echo "unterminated`, ModeSafe)
	if err == nil {
		t.Fatal("Evaluate on unparsable input returned nil error")
	}
	var perr *shellparse.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error type = %T, want *shellparse.ParseError", err)
	}
}

type failingRules struct{}

func (failingRules) Ruleset(context.Context) (*Ruleset, error) {
	return nil, errors.New("storage down")
}

func TestEvaluateRuleSourceErrorPropagates(t *testing.T) {
	ev := NewEvaluator(failingRules{})
	if _, err := ev.Evaluate(context.Background(), "ls", ModeSmart); err == nil {
		t.Fatal("Evaluate with failing rule source returned nil error")
	}
}

func TestExplainReportsMatchedRule(t *testing.T) {
	rules := &staticRules{
		Deny: []string{"rm -rf *"},
	}
	ev := NewEvaluator(rules)

	res, err := ev.Explain(context.Background(), "echo hi && rm -rf /", ModeSmart)
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision != DecisionDeny {
		t.Fatalf("Decision = %s, want deny", res.Decision)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	last := res.Entries[1]
	if last.MatchedRule != "rm -rf *" || last.MatchedList != "denylist" {
		t.Errorf("matched rule = %q in %q, want \"rm -rf *\" in denylist", last.MatchedRule, last.MatchedList)
	}
}
