package decisionlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Recorder assigns identity to records and absorbs write failures: an
// audit miss is logged but never blocks the evaluation result.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, rec *Record) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := r.repo.Create(ctx, rec); err != nil {
		slog.WarnContext(ctx, "failed to record decision",
			slog.String("command", rec.Command),
			slog.String("error", err.Error()))
	}
}

func (r *Recorder) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return r.repo.List(ctx, limit, offset)
}
