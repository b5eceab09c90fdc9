package policy

import (
	"reflect"
	"testing"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{
			name:   "plain command with args",
			tokens: []string{"ls", "-la", "/tmp"},
			want:   []string{"ls -la /tmp", "ls *"},
		},
		{
			name:   "bare command",
			tokens: []string{"ls"},
			want:   []string{"ls", "ls *"},
		},
		{
			name:   "subcommand tool keeps two tokens",
			tokens: []string{"git", "commit", "-m", "done"},
			want:   []string{"git commit -m done", "git commit *"},
		},
		{
			name:   "subcommand tool with flag first falls back to one token",
			tokens: []string{"git", "--version"},
			want:   []string{"git --version", "git *"},
		},
		{
			name:   "no tokens",
			tokens: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.tokens, DefaultArity{})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%v) = %v, want %v", tt.tokens, got, tt.want)
			}
		})
	}
}

type fixedArity int

func (a fixedArity) Arity(tokens []string) int { return int(a) }

func TestCandidatesCustomStrategy(t *testing.T) {
	got := Candidates([]string{"kubectl", "get", "pods", "-A"}, fixedArity(3))
	want := []string{"kubectl get pods -A", "kubectl get pods *"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates with fixedArity(3) = %v, want %v", got, want)
	}

	// Arity beyond the token count is clamped.
	got = Candidates([]string{"ls"}, fixedArity(5))
	want = []string{"ls", "ls *"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates with fixedArity(5) = %v, want %v", got, want)
	}
}
