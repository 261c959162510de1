package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"booksearch/internal/book"
)

const (
	OpenLibraryName    = "Open Library"
	openLibraryBaseURL = "https://openlibrary.org"
)

// OpenLibrary uses the api/books endpoint with jscmd=data.
type OpenLibrary struct {
	fetcher *httpFetcher
	baseURL string
	log     *slog.Logger
}

func NewOpenLibrary(cfg ClientConfig) *OpenLibrary {
	base := cfg.BaseURL
	if base == "" {
		base = openLibraryBaseURL
	}
	return &OpenLibrary{
		fetcher: newHTTPFetcher(cfg),
		baseURL: strings.TrimRight(base, "/"),
		log:     cfg.logger(),
	}
}

func (o *OpenLibrary) Name() string { return OpenLibraryName }

type named struct {
	Name string `json:"name"`
}

// openLibraryBook matches api/books?jscmd=data
type openLibraryBook struct {
	Title         string          `json:"title"`
	Subtitle      *string         `json:"subtitle"`
	Authors       []named         `json:"authors"`
	Publishers    []named         `json:"publishers"`
	PublishDate   *string         `json:"publish_date"`
	Description   json.RawMessage `json:"description"` // string or {type, value}
	NumberOfPages *int            `json:"number_of_pages"`
	Subjects      []named         `json:"subjects"`
	URL           *string         `json:"url"`
	Cover         struct {
		Small  *string `json:"small"`
		Medium *string `json:"medium"`
	} `json:"cover"`
	Identifiers struct {
		ISBN10 []string `json:"isbn_10"`
		ISBN13 []string `json:"isbn_13"`
	} `json:"identifiers"`
}

func (o *OpenLibrary) Fetch(ctx context.Context, isbn string) Result {
	bibkey := "ISBN:" + isbn
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json", o.baseURL, bibkey)

	var res map[string]openLibraryBook
	if err := o.fetcher.getJSON(ctx, u, &res); err != nil {
		return failed(o.log, o.Name(), isbn, err)
	}
	info, ok := res[bibkey]
	if !ok {
		return Empty()
	}

	description, err := parseDescription(info.Description)
	if err != nil {
		return failed(o.log, o.Name(), isbn, err)
	}

	rec := &book.Record{
		ISBN:           isbn,
		ISBN10:         first(info.Identifiers.ISBN10),
		ISBN13:         first(info.Identifiers.ISBN13),
		Title:          info.Title,
		Subtitle:       info.Subtitle,
		Authors:        names(info.Authors),
		PublishedDate:  info.PublishDate,
		Description:    description,
		PageCount:      info.NumberOfPages,
		Categories:     names(info.Subjects),
		Thumbnail:      info.Cover.Medium,
		SmallThumbnail: info.Cover.Small,
		PreviewLink:    info.URL,
		DataSource:     OpenLibraryName,
	}
	if len(info.Publishers) > 0 {
		rec.Publisher = &info.Publishers[0].Name
	}
	return Found(rec)
}

func parseDescription(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var typed struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return typed.Value, nil
}

func names(in []named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}

func first(s []string) *string {
	if len(s) == 0 {
		return nil
	}
	return book.StrPtr(s[0])
}
