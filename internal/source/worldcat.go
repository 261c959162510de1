package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"booksearch/internal/book"
)

const (
	WorldCatName      = "WorldCat"
	worldCatBaseURL   = "https://www.worldcat.org"
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	worldCatPublisher = "Publisher:"
)

// WorldCat scrapes the public isbn landing page. It is the last resort and
// returns nothing unless the page carries a title.
type WorldCat struct {
	fetcher *httpFetcher
	baseURL string
	log     *slog.Logger
}

func NewWorldCat(cfg ClientConfig) *WorldCat {
	base := cfg.BaseURL
	if base == "" {
		base = worldCatBaseURL
	}
	cfg.UserAgent = browserUserAgent
	return &WorldCat{
		fetcher: newHTTPFetcher(cfg),
		baseURL: strings.TrimRight(base, "/"),
		log:     cfg.logger(),
	}
}

func (w *WorldCat) Name() string { return WorldCatName }

func (w *WorldCat) Fetch(ctx context.Context, isbn string) Result {
	u := fmt.Sprintf("%s/isbn/%s", w.baseURL, url.PathEscape(isbn))

	body, err := w.fetcher.get(ctx, u)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return Empty()
		}
		return failed(w.log, w.Name(), isbn, err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return failed(w.log, w.Name(), isbn, fmt.Errorf("parse page: %w", err))
	}

	rec, ok := parseWorldCatPage(doc, isbn)
	if !ok {
		return Empty()
	}
	return Found(rec)
}

func parseWorldCatPage(doc *html.Node, isbn string) (*book.Record, bool) {
	titleNode := findElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.H1 && attr(n, "id") == "title"
	})
	if titleNode == nil {
		return nil, false
	}
	title := strippedText(titleNode)
	if title == "" {
		return nil, false
	}

	rec := &book.Record{
		ISBN:       isbn,
		Title:      title,
		Authors:    []string{},
		Categories: []string{},
		DataSource: WorldCatName,
	}

	authorNode := findElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.A && attr(n, "id") == "author"
	})
	if authorNode != nil {
		if name := strippedText(authorNode); name != "" {
			rec.Authors = []string{name}
		}
	}

	label := findElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Td && strings.TrimSpace(strippedText(n)) == worldCatPublisher
	})
	if label != nil {
		if cell := nextElementSibling(label, atom.Td); cell != nil {
			publisher, date := splitPublisher(strippedText(cell))
			rec.Publisher = book.StrPtr(publisher)
			rec.PublishedDate = book.StrPtr(date)
		}
	}
	return rec, true
}

// splitPublisher splits "Publisher, Place, 2018" into publisher and date.
// With a single segment the whole text is the publisher and there is no date.
func splitPublisher(text string) (publisher, date string) {
	parts := strings.Split(text, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
	}
	return text, ""
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func nextElementSibling(n *html.Node, a atom.Atom) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.DataAtom == a {
			return s
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// strippedText concatenates descendant text nodes, each trimmed.
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
