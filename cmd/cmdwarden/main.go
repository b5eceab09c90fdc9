package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/cmdwarden/cmdwarden/internal/policy"
	"github.com/cmdwarden/cmdwarden/internal/rules"
	rulesrepo "github.com/cmdwarden/cmdwarden/internal/rules/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/internal/shellparse"
	"github.com/cmdwarden/cmdwarden/pkg/storage"
)

var (
	app     = kingpin.New("cmdwarden", "Command policy engine for terminal AI agents")
	dataDir = app.Flag("data-dir", "Directory holding the rule document").Default(".cmdwarden/data").String()

	evaluateCmd     = app.Command("evaluate", "Evaluate a command line against the rule lists")
	evaluateMode    = evaluateCmd.Flag("mode", "Policy mode: safe, standard, or smart").Default("standard").String()
	evaluateExplain = evaluateCmd.Flag("explain", "Show the decision for each command in the line").Bool()
	evaluateLine    = evaluateCmd.Arg("command", "Command line to evaluate").Required().String()

	rulesCmd     = app.Command("rules", "Manage rule lists")
	rulesListCmd = rulesCmd.Command("list", "Show all rule lists")

	rulesAddCmd     = rulesCmd.Command("add", "Add a pattern to a rule list")
	rulesAddList    = rulesAddCmd.Arg("list", "Target list: allowlist, denylist, or asklist").Required().String()
	rulesAddPattern = rulesAddCmd.Arg("pattern", "Pattern to add").Required().String()

	rulesDeleteCmd     = rulesCmd.Command("delete", "Remove a pattern from a rule list")
	rulesDeleteList    = rulesDeleteCmd.Arg("list", "Target list: allowlist, denylist, or asklist").Required().String()
	rulesDeletePattern = rulesDeleteCmd.Arg("pattern", "Pattern to remove").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	ctx := context.Background()

	store, err := newRuleStore(*dataDir)
	if err != nil {
		fatalf("failed to open data dir: %v", err)
	}

	switch command {
	case evaluateCmd.FullCommand():
		handleEvaluate(ctx, store)
	case rulesListCmd.FullCommand():
		handleRulesList(ctx, store)
	case rulesAddCmd.FullCommand():
		handleRuleEdit(ctx, store, *rulesAddList, *rulesAddPattern, store.AddRule)
	case rulesDeleteCmd.FullCommand():
		handleRuleEdit(ctx, store, *rulesDeleteList, *rulesDeletePattern, store.DeleteRule)
	}
}

func newRuleStore(dir string) (*rules.Store, error) {
	local, err := storage.NewLocal(dir)
	if err != nil {
		return nil, err
	}
	return rules.NewStore(rulesrepo.NewJSONRepository(local)), nil
}

func handleEvaluate(ctx context.Context, store *rules.Store) {
	mode, err := policy.ParseMode(*evaluateMode)
	if err != nil {
		fatalf("%v", err)
	}

	evaluator := policy.NewEvaluator(store)
	result, err := evaluator.Explain(ctx, *evaluateLine, mode)
	if err != nil {
		var parseErr *shellparse.ParseError
		if errors.As(err, &parseErr) {
			fatalf("not parseable shell: %v", parseErr)
		}
		fatalf("evaluation failed: %v", err)
	}

	if *evaluateExplain {
		for _, entry := range result.Entries {
			matched := "(mode default)"
			if entry.MatchedRule != "" {
				matched = fmt.Sprintf("%s %q", entry.MatchedList, entry.MatchedRule)
			}
			fmt.Printf("  %s  %s  %s\n", decisionColor(entry.Decision).Sprintf("%-5s", entry.Decision), strings.Join(entry.Tokens, " "), matched)
		}
	}
	fmt.Println(decisionColor(result.Decision).Sprint(string(result.Decision)))

	switch result.Decision {
	case policy.DecisionDeny:
		os.Exit(1)
	case policy.DecisionAsk:
		os.Exit(2)
	}
}

func decisionColor(d policy.Decision) *color.Color {
	switch d {
	case policy.DecisionAllow:
		return color.New(color.FgGreen)
	case policy.DecisionDeny:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func handleRulesList(ctx context.Context, store *rules.Store) {
	doc, err := store.Document(ctx)
	if err != nil {
		fatalf("failed to load rules: %v", err)
	}
	printList := func(name rules.ListName, c *color.Color) {
		fmt.Println(c.Sprint(string(name)))
		if len(doc.List(name)) == 0 {
			fmt.Println("  (empty)")
		}
		for _, pattern := range doc.List(name) {
			fmt.Printf("  %s\n", pattern)
		}
	}
	printList(rules.Denylist, color.New(color.FgRed))
	printList(rules.Asklist, color.New(color.FgYellow))
	printList(rules.Allowlist, color.New(color.FgGreen))
}

func handleRuleEdit(ctx context.Context, store *rules.Store, listName, pattern string, edit func(context.Context, rules.ListName, string) (*rules.Document, error)) {
	list, err := rules.ParseListName(listName)
	if err != nil {
		fatalf("%v", err)
	}
	before, err := store.Document(ctx)
	if err != nil {
		fatalf("failed to load rules: %v", err)
	}

	after, err := edit(ctx, list, pattern)
	if err != nil {
		fatalf("failed to update rules: %v", err)
	}

	diff, err := documentDiff(before, after)
	if err != nil {
		fatalf("failed to diff rules: %v", err)
	}
	if diff == "" {
		fmt.Println("no changes")
		return
	}
	fmt.Print(diff)
}

func documentDiff(before, after *rules.Document) (string, error) {
	beforeJSON, err := json.MarshalIndent(before, "", "  ")
	if err != nil {
		return "", err
	}
	afterJSON, err := json.MarshalIndent(after, "", "  ")
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(beforeJSON)),
		B:        difflib.SplitLines(string(afterJSON)),
		FromFile: rulesrepo.FileName,
		ToFile:   rulesrepo.FileName,
		Context:  3,
	})
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
