package policy

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		value   string
		pattern string
		want    bool
	}{
		// Exact match
		{"ls", "ls", true},
		{"ls -la", "ls", false},
		{"ls", "ls -la", false},
		{"Ls", "ls", false}, // case sensitive

		// Canonical generalized form: "X *" also matches bare "X"
		{"ls -la", "ls *", true},
		{"ls", "ls *", true},
		{"lsof", "ls *", false},
		{"git commit -m x", "git *", true},
		{"git", "git *", true},

		// Star anywhere
		{"anything at all", "*", true},
		{"", "*", true},
		{"main.go", "*.go", true},
		{"main.py", "*.go", false},
		{"git push --force", "git * --force", true},
		{"git push origin main --force", "git * --force", true},
		{"git push", "git * --force", false},
		{"run test suite", "*test*", true},

		// Question mark matches exactly one character
		{"ls -x", "ls -?", true},
		{"ls -xy", "ls -?", false},
		{"ls -", "ls -?", false},

		// Anchored, not substring
		{"xls", "ls", false},
		{"echo rm -rf /", "rm *", false},

		// Empty pattern
		{"", "", true},
		{"x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.value, func(t *testing.T) {
			if got := Match(tt.value, tt.pattern); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.value, tt.pattern, got, tt.want)
			}
		})
	}
}
