package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleVolumeJSON = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "Effective Java",
			"subtitle": "Third Edition",
			"authors": ["Joshua Bloch"],
			"publisher": "Addison-Wesley Professional",
			"publishedDate": "2017-12-27",
			"description": "The definitive guide to Java.",
			"pageCount": 412,
			"categories": ["Computers"],
			"language": "en",
			"previewLink": "http://books.google.com/preview",
			"infoLink": "http://books.google.com/info",
			"averageRating": 4.5,
			"ratingsCount": 12,
			"maturityRating": "NOT_MATURE",
			"industryIdentifiers": [
				{"type": "ISBN_10", "identifier": "0134685997"},
				{"type": "ISBN_13", "identifier": "9780134685991"}
			],
			"imageLinks": {
				"thumbnail": "http://books.google.com/thumb",
				"smallThumbnail": "http://books.google.com/small"
			}
		}
	}]
}`

func testConfig(baseURL string) ClientConfig {
	return ClientConfig{BaseURL: baseURL, UserAgent: "booksearch-test", Timeout: 2 * time.Second}
}

func TestGoogleBooks_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "isbn:9780134685991", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "booksearch-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(googleVolumeJSON))
	}))
	defer server.Close()

	g := NewGoogleBooks("secret", testConfig(server.URL))
	res := g.Fetch(context.Background(), "9780134685991")

	require.Equal(t, StatusFound, res.Status)
	rec := res.Record
	assert.Equal(t, "9780134685991", rec.ISBN)
	assert.Equal(t, "Effective Java", rec.Title)
	assert.Equal(t, "Third Edition", *rec.Subtitle)
	assert.Equal(t, []string{"Joshua Bloch"}, rec.Authors)
	assert.Equal(t, "Addison-Wesley Professional", *rec.Publisher)
	assert.Equal(t, "2017-12-27", *rec.PublishedDate)
	assert.Equal(t, 412, *rec.PageCount)
	assert.Equal(t, []string{"Computers"}, rec.Categories)
	assert.Equal(t, "en", *rec.Language)
	assert.Equal(t, "http://books.google.com/thumb", *rec.Thumbnail)
	assert.Equal(t, "http://books.google.com/small", *rec.SmallThumbnail)
	assert.Equal(t, 4.5, *rec.AverageRating)
	assert.Equal(t, 12, *rec.RatingsCount)
	assert.Equal(t, "NOT_MATURE", *rec.MaturityRating)
	assert.Equal(t, "0134685997", *rec.ISBN10)
	assert.Equal(t, "9780134685991", *rec.ISBN13)
	assert.Equal(t, GoogleBooksName, rec.DataSource)
}

func TestGoogleBooks_AbsentFieldsStayNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems": 1, "items": [{"volumeInfo": {"title": "Bare"}}]}`))
	}))
	defer server.Close()

	res := NewGoogleBooks("secret", testConfig(server.URL)).Fetch(context.Background(), "9780134685991")

	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, "Bare", res.Record.Title)
	assert.Nil(t, res.Record.Subtitle)
	assert.Nil(t, res.Record.Publisher)
	assert.Nil(t, res.Record.PageCount)
	assert.Nil(t, res.Record.AverageRating)
	assert.Nil(t, res.Record.Thumbnail)
	assert.Empty(t, res.Record.Authors)
}

func TestGoogleBooks_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "books#volumes", "totalItems": 0}`))
	}))
	defer server.Close()

	res := NewGoogleBooks("secret", testConfig(server.URL)).Fetch(context.Background(), "9780134685991")
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Nil(t, res.Record)
}

func TestGoogleBooks_MissingKeyIsNoop(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	res := NewGoogleBooks("", testConfig(server.URL)).Fetch(context.Background(), "9780134685991")
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGoogleBooks_Failures(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		res := NewGoogleBooks("secret", testConfig(server.URL)).Fetch(context.Background(), "9780134685991")
		assert.Equal(t, StatusFailed, res.Status)
		assert.Error(t, res.Err)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.MaxRetries = 2
		res := NewGoogleBooks("bad", cfg).Fetch(context.Background(), "9780134685991")
		assert.Equal(t, StatusFailed, res.Status)
		assert.True(t, isStatus(res.Err, http.StatusForbidden))
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("server error is retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(googleVolumeJSON))
		}))
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.MaxRetries = 1
		res := NewGoogleBooks("secret", cfg).Fetch(context.Background(), "9780134685991")
		assert.Equal(t, StatusFound, res.Status)
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("context deadline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		res := NewGoogleBooks("secret", testConfig(server.URL)).Fetch(ctx, "9780134685991")
		assert.Equal(t, StatusFailed, res.Status)
	})
}
