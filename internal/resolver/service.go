// Package resolver turns a raw ISBN into a book record by walking the cache,
// the store and the external sources in priority order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"booksearch/internal/book"
	"booksearch/internal/cache"
	"booksearch/internal/isbn"
	"booksearch/internal/metrics"
	"booksearch/internal/source"
)

var (
	ErrInvalidFormat = errors.New("Invalid ISBN format")
	ErrNotFound      = errors.New("Book not found in any source")
)

const (
	DefaultTTL = time.Hour

	// Source labels for records answered locally.
	SourceCache    = "cache"
	SourceDatabase = "database"

	defaultRecentLimit  = 20
	maxRecentLimit      = 100
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Resolution is a successful lookup. Source names where the record came from.
type Resolution struct {
	Book    *book.Record
	Source  string
	Elapsed time.Duration
}

type Stats struct {
	TotalSearches         int     `json:"total_searches"`
	SuccessfulSearches    int     `json:"successful_searches"`
	SuccessRate           float64 `json:"success_rate"`
	AverageResponseTimeMS float64 `json:"average_response_time_ms"`
}

type HistoryReport struct {
	Stats    Stats          `json:"stats"`
	Attempts []book.Attempt `json:"history"`
}

type Service struct {
	books    book.Repository
	attempts book.AttemptRepository
	cache    cache.Cache[book.Record]
	adapters []source.Adapter
	audit    *Recorder

	ttl           time.Duration
	sourceTimeout time.Duration
	log           *slog.Logger
	now           func() time.Time

	inflight singleflight.Group
}

// NewService builds a resolver. Adapters are consulted in slice order.
func NewService(books book.Repository, attempts book.AttemptRepository, c cache.Cache[book.Record], adapters []source.Adapter, opts ...Option) *Service {
	s := &Service{
		books:         books,
		attempts:      attempts,
		cache:         c,
		adapters:      adapters,
		ttl:           DefaultTTL,
		sourceTimeout: source.DefaultTimeout,
		log:           slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = NewRecorder(attempts, s.log)
	return s
}

func (s *Service) Normalize(raw string) string {
	return isbn.Normalize(raw)
}

func (s *Service) Validate(raw string) bool {
	return isbn.Valid(isbn.Normalize(raw))
}

// CacheKey is the cache key for a normalized ISBN.
func CacheKey(id string) string {
	return "isbn_" + id
}

// Resolve looks up raw and returns either a record or one of ErrInvalidFormat
// and ErrNotFound. Every call writes exactly one audit entry.
//
// Concurrent calls for the same ISBN share one walk of the chain; each caller
// still gets its own audit entry.
func (s *Service) Resolve(ctx context.Context, raw string) (Resolution, error) {
	start := s.now()
	id := isbn.Normalize(raw)

	if !isbn.Valid(id) {
		return s.finish(ctx, start, id, lookupResult{}, ErrInvalidFormat)
	}

	ch := s.inflight.DoChan(id, func() (any, error) {
		return s.lookup(context.WithoutCancel(ctx), id), nil
	})

	var res lookupResult
	select {
	case r := <-ch:
		res = r.Val.(lookupResult)
	case <-ctx.Done():
		s.log.Warn("resolution abandoned by caller", "isbn", id, "error", ctx.Err())
	}

	if res.record == nil {
		return s.finish(ctx, start, id, res, ErrNotFound)
	}
	return s.finish(ctx, start, id, res, nil)
}

func (s *Service) finish(ctx context.Context, start time.Time, id string, res lookupResult, err error) (Resolution, error) {
	elapsed := s.now().Sub(start)
	s.audit.Record(ctx, id, res.record != nil, res.source, elapsed)

	outcome := metrics.OutcomeFound
	switch {
	case errors.Is(err, ErrInvalidFormat):
		outcome = metrics.OutcomeInvalid
	case err != nil:
		outcome = metrics.OutcomeNotFound
	}
	metrics.ObserveResolution(outcome, res.source, elapsed)

	if err != nil {
		return Resolution{Elapsed: elapsed}, err
	}
	// callers sharing a flight must not share slices or pointers
	rec := res.record.Clone()
	return Resolution{Book: &rec, Source: res.source, Elapsed: elapsed}, nil
}

type lookupResult struct {
	record *book.Record
	source string
}

func (s *Service) lookup(ctx context.Context, id string) lookupResult {
	key := CacheKey(id)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed", "isbn", id, "error", err)
	} else if ok {
		return lookupResult{record: &cached, source: SourceCache}
	}

	stored, err := s.books.GetByISBN(ctx, id)
	switch {
	case err == nil:
		s.remember(ctx, key, stored)
		return lookupResult{record: &stored, source: SourceDatabase}
	case !errors.Is(err, book.ErrNotFound):
		s.log.Error("store lookup failed", "isbn", id, "error", err)
	}

	for _, a := range s.adapters {
		res := s.fetch(ctx, a, id)
		metrics.IncSourceFetch(a.Name(), res.Status.String())
		if res.Status != source.StatusFound || res.Record == nil {
			continue
		}

		saved, err := s.books.Create(ctx, complete(res.Record, id, a.Name()))
		if err != nil {
			s.log.Error("failed to store resolved book", "isbn", id, "source", a.Name(), "error", err)
			continue
		}
		s.remember(ctx, key, saved)
		return lookupResult{record: &saved, source: a.Name()}
	}
	return lookupResult{}
}

// fetch runs one adapter under its own deadline. A panic counts as a failure.
func (s *Service) fetch(ctx context.Context, a source.Adapter, id string) (res source.Result) {
	ctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("source panicked", "source", a.Name(), "isbn", id, "panic", r)
			res = source.Failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return a.Fetch(ctx, id)
}

func (s *Service) remember(ctx context.Context, key string, rec book.Record) {
	if err := s.cache.Set(ctx, key, rec, s.ttl); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// complete stamps a provider record with the requested identifier and fills
// in whichever ISBN form the provider left out.
func complete(partial *book.Record, id, label string) *book.Record {
	rec := *partial
	rec.ISBN = id
	if rec.DataSource == "" {
		rec.DataSource = label
	}
	if rec.Authors == nil {
		rec.Authors = []string{}
	}
	if rec.Categories == nil {
		rec.Categories = []string{}
	}

	switch len(id) {
	case 10:
		if rec.ISBN10 == nil {
			rec.ISBN10 = book.StrPtr(id)
		}
		if rec.ISBN13 == nil {
			if v, ok := isbn.ToISBN13(id); ok {
				rec.ISBN13 = &v
			}
		}
	case 13:
		if rec.ISBN13 == nil {
			rec.ISBN13 = book.StrPtr(id)
		}
		if rec.ISBN10 == nil {
			if v, ok := isbn.ToISBN10(id); ok {
				rec.ISBN10 = &v
			}
		}
	}
	return &rec
}

// GetByISBN reads the store directly and falls back to Resolve on a miss.
// A store hit is not audited.
func (s *Service) GetByISBN(ctx context.Context, raw string) (Resolution, error) {
	start := s.now()
	id := isbn.Normalize(raw)

	rec, err := s.books.GetByISBN(ctx, id)
	if err == nil {
		return Resolution{Book: &rec, Source: SourceDatabase, Elapsed: s.now().Sub(start)}, nil
	}
	if !errors.Is(err, book.ErrNotFound) {
		s.log.Error("store lookup failed", "isbn", id, "error", err)
	}
	return s.Resolve(ctx, raw)
}

// RecentBooks lists stored books, newest first. limit <= 0 selects the default.
func (s *Service) RecentBooks(ctx context.Context, limit int) ([]book.Record, error) {
	books, err := s.books.ListRecent(ctx, clampLimit(limit, defaultRecentLimit, maxRecentLimit))
	if err != nil {
		return nil, fmt.Errorf("list recent books: %w", err)
	}
	return books, nil
}

// History returns the latest attempts and aggregate stats over the whole log.
func (s *Service) History(ctx context.Context, limit int) (HistoryReport, error) {
	attempts, err := s.attempts.ListRecent(ctx, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return HistoryReport{}, fmt.Errorf("list attempts: %w", err)
	}

	total, err := s.attempts.Count(ctx, book.AttemptFilter{})
	if err != nil {
		return HistoryReport{}, fmt.Errorf("count attempts: %w", err)
	}
	found := true
	successful, err := s.attempts.Count(ctx, book.AttemptFilter{Found: &found})
	if err != nil {
		return HistoryReport{}, fmt.Errorf("count successful attempts: %w", err)
	}
	avg, err := s.attempts.AverageResponseTime(ctx, book.AttemptFilter{})
	if err != nil {
		return HistoryReport{}, fmt.Errorf("average response time: %w", err)
	}

	stats := Stats{TotalSearches: total, SuccessfulSearches: successful}
	if total > 0 {
		stats.SuccessRate = round2(float64(successful) / float64(total) * 100)
	}
	if avg != nil {
		stats.AverageResponseTimeMS = round2(*avg)
	}
	return HistoryReport{Stats: stats, Attempts: attempts}, nil
}

func clampLimit(limit, def, upper int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, upper)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
