package rules

import "context"

// Repository loads and saves the whole rule document. Implementations
// must preserve unknown top-level keys on save.
type Repository interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
