package book

import (
	"errors"
	"slices"
	"time"
)

// ErrNotFound is returned when a book is not in the store.
var ErrNotFound = errors.New("book not found")

// Record is the canonical bibliographic metadata for one identifier.
// Optional fields stay nil when the originating source did not supply them.
type Record struct {
	ID             string    `json:"id"`
	ISBN           string    `json:"isbn"`
	ISBN10         *string   `json:"isbn_10"`
	ISBN13         *string   `json:"isbn_13"`
	Title          string    `json:"title"`
	Subtitle       *string   `json:"subtitle"`
	Authors        []string  `json:"authors"`
	Publisher      *string   `json:"publisher"`
	PublishedDate  *string   `json:"published_date"`
	Description    *string   `json:"description"`
	PageCount      *int      `json:"page_count"`
	Categories     []string  `json:"categories"`
	Language       *string   `json:"language"`
	Thumbnail      *string   `json:"thumbnail"`
	SmallThumbnail *string   `json:"small_thumbnail"`
	PreviewLink    *string   `json:"preview_link"`
	InfoLink       *string   `json:"info_link"`
	AverageRating  *float64  `json:"average_rating"`
	RatingsCount   *int      `json:"ratings_count"`
	MaturityRating *string   `json:"maturity_rating"`
	DataSource     string    `json:"data_source"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Clone returns a deep copy of r that shares no slices or pointers with it.
func (r Record) Clone() Record {
	c := r
	c.ISBN10 = clonePtr(r.ISBN10)
	c.ISBN13 = clonePtr(r.ISBN13)
	c.Subtitle = clonePtr(r.Subtitle)
	c.Authors = slices.Clone(r.Authors)
	c.Publisher = clonePtr(r.Publisher)
	c.PublishedDate = clonePtr(r.PublishedDate)
	c.Description = clonePtr(r.Description)
	c.PageCount = clonePtr(r.PageCount)
	c.Categories = slices.Clone(r.Categories)
	c.Language = clonePtr(r.Language)
	c.Thumbnail = clonePtr(r.Thumbnail)
	c.SmallThumbnail = clonePtr(r.SmallThumbnail)
	c.PreviewLink = clonePtr(r.PreviewLink)
	c.InfoLink = clonePtr(r.InfoLink)
	c.AverageRating = clonePtr(r.AverageRating)
	c.RatingsCount = clonePtr(r.RatingsCount)
	c.MaturityRating = clonePtr(r.MaturityRating)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Attempt is one audit entry written per resolution call.
type Attempt struct {
	ID             string    `json:"id"`
	ISBN           string    `json:"isbn"`
	SearchedAt     time.Time `json:"search_time"`
	Found          bool      `json:"found"`
	ResponseTimeMS int       `json:"response_time_ms"`
	DataSource     *string   `json:"data_source"`
}

// AttemptFilter narrows Count and AverageResponseTime. Nil fields match all.
type AttemptFilter struct {
	Found *bool
}

// StrPtr returns nil for an empty string, otherwise a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns nil for zero, otherwise a pointer to n.
func IntPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
