// Package testutil holds fixtures and HTTP helpers shared by tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"booksearch/internal/book"
)

// EffectiveJavaISBN is a valid ISBN-13 whose ISBN-10 form is 0134685997.
const EffectiveJavaISBN = "9780134685991"

// EffectiveJava is a record as Google Books would return it.
func EffectiveJava() *book.Record {
	return &book.Record{
		ISBN:       EffectiveJavaISBN,
		Title:      "Effective Java",
		Authors:    []string{"Joshua Bloch"},
		Publisher:  book.StrPtr("Addison-Wesley Professional"),
		PageCount:  book.IntPtr(412),
		Categories: []string{"Computers"},
		DataSource: "Google Books",
	}
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRequest creates a request with body encoded as JSON when non-nil.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// RecordResponse is a decoded response.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorder's body as a JSON object when it is one.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}
	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// StaticServer answers every request with status and body. It is closed
// when the test ends.
func StaticServer(t testing.TB, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
