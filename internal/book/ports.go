package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book record storage.
// Create must be unique on ISBN: creating an existing ISBN returns the stored row.
type Repository interface {
	GetByISBN(ctx context.Context, isbn string) (Record, error)
	Create(ctx context.Context, rec *Record) (Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// AttemptRepository stores the append-only resolution audit log.
type AttemptRepository interface {
	Create(ctx context.Context, a *Attempt) error
	ListRecent(ctx context.Context, limit int) ([]Attempt, error)
	Count(ctx context.Context, f AttemptFilter) (int, error)
	AverageResponseTime(ctx context.Context, f AttemptFilter) (*float64, error)
}
