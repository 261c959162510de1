// Package source fetches book metadata from external providers and
// normalizes each provider's response into a book.Record.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"booksearch/internal/book"
)

// DefaultTimeout bounds a single provider lookup.
const DefaultTimeout = 10 * time.Second

// Status is the outcome of one adapter lookup.
type Status int

const (
	StatusEmpty Status = iota
	StatusFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result carries a record on StatusFound and the cause on StatusFailed.
type Result struct {
	Status Status
	Record *book.Record
	Err    error
}

func Found(rec *book.Record) Result { return Result{Status: StatusFound, Record: rec} }
func Empty() Result                 { return Result{Status: StatusEmpty} }
func Failed(err error) Result       { return Result{Status: StatusFailed, Err: err} }

// Adapter looks up one normalized ISBN at one provider. Implementations
// never return a Go error; provider trouble is reported as StatusFailed.
// Records returned on StatusFound carry the adapter's Name as DataSource.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, isbn string) Result
}

// ClientConfig is shared by the HTTP-backed adapters.
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond int
	MaxRetries        int
	Logger            *slog.Logger
}

func (c ClientConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func failed(log *slog.Logger, source, isbn string, err error) Result {
	log.Warn("source lookup failed", "source", source, "isbn", isbn, "error", err)
	return Failed(err)
}
