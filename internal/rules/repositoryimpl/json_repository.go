// Package repositoryimpl persists the rule document as a JSON file in
// the configured storage backend.
package repositoryimpl

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cmdwarden/cmdwarden/internal/rules"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
	"github.com/cmdwarden/cmdwarden/pkg/storage"
)

// FileName is the rule document's path within the storage root. Exposed
// so the filesystem watcher can resolve the on-disk location.
const FileName = "rules.json"

const syntaxNote = "Patterns match whole commands. * matches any run of characters, ? matches a single character. A pattern ending in \" *\" also matches the bare command without arguments."

type JSONRepository struct {
	storage storage.Storage
}

func NewJSONRepository(s storage.Storage) *JSONRepository {
	return &JSONRepository{storage: s}
}

// Load reads the rule document, creating an empty seeded one on first
// access. A file that fails to parse is treated as an empty document so
// a hand-edit with a typo degrades to ask/deny behavior instead of
// taking the evaluator down; the broken file is left on disk for the
// user to fix.
func (r *JSONRepository) Load(ctx context.Context) (*rules.Document, error) {
	exists, err := r.storage.Exists(ctx, FileName)
	if err != nil {
		return nil, cerr.WrapStorageReadError("rule document", err)
	}
	if !exists {
		doc := seedDocument()
		if err := r.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	data, err := r.storage.Read(ctx, FileName)
	if err != nil {
		return nil, cerr.WrapStorageReadError("rule document", err)
	}
	doc := &rules.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		slog.WarnContext(ctx, "rule document is not valid JSON, treating as empty", slog.String("file", FileName), slog.String("error", err.Error()))
		return &rules.Document{}, nil
	}
	return doc, nil
}

func (r *JSONRepository) Save(ctx context.Context, doc *rules.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to marshal rule document", err)
	}
	if err := r.storage.Write(ctx, FileName, append(data, '\n')); err != nil {
		return cerr.WrapStorageWriteError("rule document", err)
	}
	return nil
}

func seedDocument() *rules.Document {
	note, _ := json.Marshal(syntaxNote)
	return &rules.Document{
		Extra: map[string]json.RawMessage{
			"syntax_note": note,
		},
	}
}
