package shellparse

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "simple command",
			input: "ls -la",
			want:  [][]string{{"ls", "-la"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \t ",
			want:  nil,
		},
		{
			name:  "comment only",
			input: "# just a comment",
			want:  nil,
		},
		{
			name:  "and chain",
			input: "git add . && git commit -m done",
			want:  [][]string{{"git", "add", "."}, {"git", "commit", "-m", "done"}},
		},
		{
			name:  "semicolon separated",
			input: "cd /tmp; ls",
			want:  [][]string{{"cd", "/tmp"}, {"ls"}},
		},
		{
			name:  "pipeline",
			input: "cat file | grep foo | wc -l",
			want:  [][]string{{"cat", "file"}, {"grep", "foo"}, {"wc", "-l"}},
		},
		{
			name:  "subshell",
			input: "(rm -rf /tmp/x)",
			want:  [][]string{{"rm", "-rf", "/tmp/x"}},
		},
		{
			name:  "double quoted argument",
			input: `git commit -m "fix the bug"`,
			want:  [][]string{{"git", "commit", "-m", "fix the bug"}},
		},
		{
			name:  "single quoted argument",
			input: "echo 'hello world'",
			want:  [][]string{{"echo", "hello world"}},
		},
		{
			name:  "env assignment prefix is dropped",
			input: "FOO=1 make build",
			want:  [][]string{{"make", "build"}},
		},
		{
			name:  "redirection target is dropped",
			input: "echo hi > /tmp/out",
			want:  [][]string{{"echo", "hi"}},
		},
		{
			name:  "or chain",
			input: "test -f x || touch x",
			want:  [][]string{{"test", "-f", "x"}, {"touch", "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			var got [][]string
			for _, e := range entries {
				got = append(got, e.Tokens)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	inputs := []string{
		`echo "unterminated`,
		"if true; then echo hi",
		"ls |",
	}
	for _, input := range inputs {
		entries, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) = %v, want error", input, entries)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse(%q) error type = %T, want *ParseError", input, err)
		}
	}
}

func TestParseReusesSharedParser(t *testing.T) {
	// Concurrent callers must converge on the one shared parser without
	// racing; exercised under -race.
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				if _, err := Parse("git status && ls -la | grep foo"); err != nil {
					t.Errorf("Parse returned error: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
