package policy

import "strings"

// Match reports whether value satisfies a rule pattern. Patterns use glob
// syntax: "*" matches any run of characters (including none), "?" matches
// exactly one character, everything else matches literally and
// case-sensitively. The match is anchored to the whole string.
//
// A pattern ending in " *" is the canonical generalized form for "this
// command regardless of trailing arguments", so it also matches the bare
// prefix: "ls *" matches both "ls" and "ls -la". There is no escaping
// syntax for literal "*" or "?".
func Match(value, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, " *"); ok && value == prefix {
		return true
	}
	return globMatch(value, pattern)
}

// globMatch is an anchored iterative glob matcher with single-star
// backtracking.
func globMatch(value, pattern string) bool {
	vi, pi := 0, 0
	starPi, starVi := -1, 0

	for vi < len(value) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == value[vi]):
			vi++
			pi++
		case pi < len(pattern) && pattern[pi] == '*':
			starPi = pi
			starVi = vi
			pi++
		case starPi >= 0:
			// Backtrack: let the last "*" swallow one more character.
			starVi++
			vi = starVi
			pi = starPi + 1
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
