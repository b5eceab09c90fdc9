// Package shellparse extracts the simple commands from a raw shell
// command line. A compound line ("a && b | c; (d)") yields one entry per
// simple command found anywhere in the syntax tree; operators,
// redirections, and control keywords are not part of any entry.
package shellparse

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/syntax"
)

// Entry is one simple command extracted from a command line, in source
// order within its word.
type Entry struct {
	Tokens []string
}

// ParseError indicates the line could not be parsed into a syntax tree
// at all. Distinct from a line that parses to zero entries (empty or
// comment-only input).
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse shell command %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// The parser is created once and reused across calls. syntax.Parser is
// stateful and not safe for concurrent use, so calls serialize on mu.
var (
	parserOnce   sync.Once
	sharedParser *syntax.Parser
	mu           sync.Mutex
)

func parser() *syntax.Parser {
	parserOnce.Do(func() {
		sharedParser = syntax.NewParser(
			syntax.Variant(syntax.LangBash),
			syntax.KeepComments(false),
		)
	})
	return sharedParser
}

// Parse splits a command line into its simple commands. Returns a nil
// slice for lines that contain no commands (empty, whitespace, or
// comment-only input) and a *ParseError when no syntax tree could be
// produced.
func Parse(line string) ([]Entry, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := parser().Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	printer := syntax.NewPrinter()
	var entries []Entry
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return true
		}
		tokens := make([]string, 0, len(call.Args))
		for _, word := range call.Args {
			if tok := wordText(printer, word); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if len(tokens) > 0 {
			entries = append(entries, Entry{Tokens: tokens})
		}
		return true
	})
	return entries, nil
}

// wordText renders one shell word to its token text. Plain and quoted
// literals are unwrapped; anything dynamic (expansions, substitutions)
// is kept verbatim as written so rules can still match on it.
func wordText(printer *syntax.Printer, w *syntax.Word) string {
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				} else {
					sb.WriteString(printPart(printer, inner))
				}
			}
		default:
			sb.WriteString(printPart(printer, part))
		}
	}
	return sb.String()
}

// printPart renders a single word part as written. The printer only
// accepts whole words, so the part is wrapped before printing.
func printPart(printer *syntax.Printer, part syntax.WordPart) string {
	var buf bytes.Buffer
	if err := printer.Print(&buf, &syntax.Word{Parts: []syntax.WordPart{part}}); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}
