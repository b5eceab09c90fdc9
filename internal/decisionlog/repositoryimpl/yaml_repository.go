// Package repositoryimpl stores decision records as one YAML document
// per record, keyed by ULID so lexicographic order is chronological.
package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cmdwarden/cmdwarden/internal/decisionlog"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
	"github.com/cmdwarden/cmdwarden/pkg/storage"
)

const decisionLogsPrefix = "decision_logs"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", decisionLogsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, rec *decisionlog.Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal decision record: %w", err))
	}
	if err := r.storage.Write(ctx, path(rec.ID), data); err != nil {
		return cerr.WrapStorageWriteError("decision_log", err)
	}
	return nil
}

func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*decisionlog.Record, int, error) {
	paths, err := r.storage.List(ctx, decisionLogsPrefix)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("decision_logs", err)
	}

	sort.Strings(paths)

	var all []*decisionlog.Record
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var rec decisionlog.Record
		if err := yaml.Unmarshal(data, &rec); err != nil {
			continue
		}
		all = append(all, &rec)
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}
