package resolver

import (
	"context"
	"log/slog"
	"time"

	"booksearch/internal/book"
)

const auditTimeout = 2 * time.Second

// Recorder appends resolution outcomes to the audit log. Writes never fail
// the caller; errors are logged and dropped.
type Recorder struct {
	attempts book.AttemptRepository
	log      *slog.Logger
}

func NewRecorder(attempts book.AttemptRepository, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{attempts: attempts, log: log}
}

// Record writes one attempt. An empty source is stored as null.
func (r *Recorder) Record(ctx context.Context, isbn string, found bool, source string, elapsed time.Duration) {
	a := &book.Attempt{
		ISBN:           isbn,
		Found:          found,
		ResponseTimeMS: int(elapsed.Milliseconds()),
		DataSource:     book.StrPtr(source),
	}

	// the outcome is recorded even when the caller has gone away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := r.attempts.Create(ctx, a); err != nil {
		r.log.Error("failed to record search attempt",
			"isbn", isbn, "found", found, "source", source, "error", err)
	}
}
