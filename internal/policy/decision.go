// Package policy evaluates shell command lines against user-editable
// allow/deny/ask rule lists and produces a single decision per line.
package policy

import "fmt"

// Decision is the outcome of evaluating a command line.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
	DecisionAsk   Decision = "ask"
)

// Mode controls the default decision applied when no rule matches.
type Mode string

const (
	// ModeSafe denies anything not explicitly allowed or asked about.
	ModeSafe Mode = "safe"
	// ModeStandard asks the user when no rule matches.
	ModeStandard Mode = "standard"
	// ModeSmart allows anything not explicitly denied or asked about.
	ModeSmart Mode = "smart"
)

// Default returns the decision applied when no rule list matches.
func (m Mode) Default() Decision {
	switch m {
	case ModeSafe:
		return DecisionDeny
	case ModeSmart:
		return DecisionAllow
	default:
		return DecisionAsk
	}
}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSafe, ModeStandard, ModeSmart:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown policy mode %q", s)
}
