package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"booksearch/internal/book"
)

const (
	GoogleBooksName    = "Google Books"
	googleBooksBaseURL = "https://www.googleapis.com/books/v1"
)

// GoogleBooks queries the Google Books volumes API. Without an API key
// every lookup is a logged no-op.
type GoogleBooks struct {
	fetcher *httpFetcher
	baseURL string
	apiKey  string
	log     *slog.Logger
}

func NewGoogleBooks(apiKey string, cfg ClientConfig) *GoogleBooks {
	base := cfg.BaseURL
	if base == "" {
		base = googleBooksBaseURL
	}
	return &GoogleBooks{
		fetcher: newHTTPFetcher(cfg),
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		log:     cfg.logger(),
	}
}

func (g *GoogleBooks) Name() string { return GoogleBooksName }

type googleVolumes struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type googleVolumeInfo struct {
	Title               string   `json:"title"`
	Subtitle            *string  `json:"subtitle"`
	Authors             []string `json:"authors"`
	Publisher           *string  `json:"publisher"`
	PublishedDate       *string  `json:"publishedDate"`
	Description         *string  `json:"description"`
	PageCount           *int     `json:"pageCount"`
	Categories          []string `json:"categories"`
	Language            *string  `json:"language"`
	PreviewLink         *string  `json:"previewLink"`
	InfoLink            *string  `json:"infoLink"`
	AverageRating       *float64 `json:"averageRating"`
	RatingsCount        *int     `json:"ratingsCount"`
	MaturityRating      *string  `json:"maturityRating"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail      *string `json:"thumbnail"`
		SmallThumbnail *string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

func (g *GoogleBooks) Fetch(ctx context.Context, isbn string) Result {
	if g.apiKey == "" {
		g.log.Warn("Google Books API key not configured, skipping", "isbn", isbn)
		return Empty()
	}

	u := fmt.Sprintf("%s/volumes?q=%s&key=%s",
		g.baseURL, url.QueryEscape("isbn:"+isbn), url.QueryEscape(g.apiKey))

	var res googleVolumes
	if err := g.fetcher.getJSON(ctx, u, &res); err != nil {
		return failed(g.log, g.Name(), isbn, err)
	}
	if res.TotalItems == 0 || len(res.Items) == 0 {
		return Empty()
	}

	vi := res.Items[0].VolumeInfo
	rec := &book.Record{
		ISBN:           isbn,
		ISBN10:         industryIdentifier(vi, "ISBN_10"),
		ISBN13:         industryIdentifier(vi, "ISBN_13"),
		Title:          vi.Title,
		Subtitle:       vi.Subtitle,
		Authors:        nonNil(vi.Authors),
		Publisher:      vi.Publisher,
		PublishedDate:  vi.PublishedDate,
		Description:    vi.Description,
		PageCount:      vi.PageCount,
		Categories:     nonNil(vi.Categories),
		Language:       vi.Language,
		Thumbnail:      vi.ImageLinks.Thumbnail,
		SmallThumbnail: vi.ImageLinks.SmallThumbnail,
		PreviewLink:    vi.PreviewLink,
		InfoLink:       vi.InfoLink,
		AverageRating:  vi.AverageRating,
		RatingsCount:   vi.RatingsCount,
		MaturityRating: vi.MaturityRating,
		DataSource:     GoogleBooksName,
	}
	return Found(rec)
}

func industryIdentifier(vi googleVolumeInfo, kind string) *string {
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == kind {
			return book.StrPtr(id.Identifier)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
