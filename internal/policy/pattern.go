package policy

import "strings"

// ArityStrategy decides how many leading tokens form the base invocation
// of a command (program name plus sub-command-like arguments). The prefix
// is what the generalized "prefix *" candidate is built from.
type ArityStrategy interface {
	Arity(tokens []string) int
}

// subcommandTools are programs whose first non-flag argument is a
// sub-command, so the generalized pattern keeps two leading tokens
// ("git commit *" rather than "git *").
var subcommandTools = map[string]bool{
	"git":       true,
	"go":        true,
	"npm":       true,
	"npx":       true,
	"pnpm":      true,
	"yarn":      true,
	"pip":       true,
	"pip3":      true,
	"cargo":     true,
	"docker":    true,
	"podman":    true,
	"kubectl":   true,
	"helm":      true,
	"terraform": true,
	"apt":       true,
	"apt-get":   true,
	"brew":      true,
	"gh":        true,
	"aws":       true,
	"gcloud":    true,
	"make":      true,
	"systemctl": true,
}

// DefaultArity is the built-in ArityStrategy: one token for plain
// commands, two for known sub-command tools when the second token does
// not look like a flag.
type DefaultArity struct{}

func (DefaultArity) Arity(tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	if len(tokens) >= 2 && subcommandTools[tokens[0]] && !strings.HasPrefix(tokens[1], "-") {
		return 2
	}
	return 1
}

// Candidates derives the match candidates for one parsed command: the
// exact token join plus a generalized "prefix *" form covering any
// trailing arguments. Duplicates are collapsed; order is not significant.
func Candidates(tokens []string, strategy ArityStrategy) []string {
	if len(tokens) == 0 {
		return nil
	}
	if strategy == nil {
		strategy = DefaultArity{}
	}

	exact := strings.Join(tokens, " ")
	candidates := []string{exact}

	n := strategy.Arity(tokens)
	if n > len(tokens) {
		n = len(tokens)
	}
	if n > 0 {
		prefix := strings.Join(tokens[:n], " ") + " *"
		if prefix != exact {
			candidates = append(candidates, prefix)
		}
	}
	return candidates
}
