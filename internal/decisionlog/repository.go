package decisionlog

import "context"

type Repository interface {
	Create(ctx context.Context, r *Record) error
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
}
