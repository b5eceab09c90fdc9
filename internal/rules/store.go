package rules

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cmdwarden/cmdwarden/internal/policy"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
)

// Store is the mutation surface over the rule document. Every edit is a
// load-modify-save of the whole document so concurrent editors and
// unknown keys survive; a mutex serializes the writers in this process.
type Store struct {
	repo Repository
	mu   sync.Mutex
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Document returns the current rule document.
func (s *Store) Document(ctx context.Context) (*Document, error) {
	return s.repo.Load(ctx)
}

// AddRule adds a pattern to the named list. Blank patterns are a no-op,
// duplicates are collapsed, and the list is kept sorted. The updated
// document is returned either way.
func (s *Store) AddRule(ctx context.Context, list ListName, pattern string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return doc, nil
	}
	updated := normalize(append(slices.Clone(doc.List(list)), pattern))
	if slices.Equal(updated, doc.List(list)) {
		return doc, nil
	}
	doc.setList(list, updated)
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to save rule document", err)
	}
	return doc, nil
}

// DeleteRule removes a pattern by exact string match. Deleting an absent
// pattern is a no-op.
func (s *Store) DeleteRule(ctx context.Context, list ListName, pattern string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	current := doc.List(list)
	updated := slices.DeleteFunc(slices.Clone(current), func(s string) bool {
		return s == pattern
	})
	if len(updated) == len(current) {
		return doc, nil
	}
	doc.setList(list, updated)
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to save rule document", err)
	}
	return doc, nil
}

// Ruleset implements policy.RuleSource, re-reading the document on every
// evaluation so external edits take effect without a restart.
func (s *Store) Ruleset(ctx context.Context) (*policy.Ruleset, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &policy.Ruleset{
		Allow: doc.Allow,
		Deny:  doc.Deny,
		Ask:   doc.Ask,
	}, nil
}
