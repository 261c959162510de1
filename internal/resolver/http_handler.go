package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"booksearch/internal/httpx"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HTTPHandler struct {
	svc    *Service
	checks map[string]Check
}

func NewHTTPHandler(svc *Service, checks map[string]Check) *HTTPHandler {
	return &HTTPHandler{svc: svc, checks: checks}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/books/search/{$}", h.Search)
	mux.HandleFunc("POST /api/books/validate/{$}", h.Validate)
	mux.HandleFunc("GET /api/books/recent/{$}", h.Recent)
	mux.HandleFunc("GET /api/books/history/{$}", h.History)
	mux.HandleFunc("GET /api/books/{isbn}/{$}", h.GetByISBN)
	mux.HandleFunc("GET /api/health/{$}", h.Health)
}

type isbnRequest struct {
	ISBN string `json:"isbn" validate:"required,max=20,isbn_length"`
}

// decodeISBN reads {"isbn": ...} and returns it with separators removed.
// It writes the error response itself and reports false on failure.
func decodeISBN(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req isbnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request data", nil)
		return "", false
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", details)
		return "", false
	}
	return httpx.CleanISBN(req.ISBN), true
}

// Search handles POST /api/books/search/
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := decodeISBN(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Resolve(r.Context(), id)
	meta := map[string]any{"search_time_ms": time.Since(start).Milliseconds()}
	if err != nil {
		h.resolveError(w, r, err, meta)
		return
	}

	meta["source"] = res.Source
	meta["message"] = "Book found successfully"
	httpx.JSONSuccess(w, r, res.Book, meta)
}

func (h *HTTPHandler) resolveError(w http.ResponseWriter, r *http.Request, err error, meta any) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		httpx.JSONErrorWithMeta(w, r, http.StatusBadRequest, "INVALID_ISBN", err.Error(), nil, meta)
	case errors.Is(err, ErrNotFound):
		httpx.JSONErrorWithMeta(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil, meta)
	default:
		httpx.JSONErrorWithMeta(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil, meta)
	}
}

// Validate handles POST /api/books/validate/
func (h *HTTPHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeISBN(w, r)
	if !ok {
		return
	}

	valid := h.svc.Validate(id)
	message := "ISBN is valid"
	if !valid {
		message = ErrInvalidFormat.Error()
	}
	httpx.JSONSuccess(w, r, map[string]any{
		"valid":   valid,
		"isbn":    h.svc.Normalize(id),
		"message": message,
	}, nil)
}

// Recent handles GET /api/books/recent/?limit=
func (h *HTTPHandler) Recent(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.RecentBooks(r.Context(), queryLimit(r))
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"count": len(books)})
}

// History handles GET /api/books/history/?limit=
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.History(r.Context(), queryLimit(r))
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, report, nil)
}

// GetByISBN handles GET /api/books/{isbn}/
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("isbn")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "ISBN is required", nil)
		return
	}

	res, err := h.svc.GetByISBN(r.Context(), id)
	if err != nil {
		h.resolveError(w, r, err, nil)
		return
	}
	httpx.JSONSuccess(w, r, res.Book, map[string]any{"source": res.Source})
}

// Health handles GET /api/health/
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	services := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		services[name] = "available"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"services":  services,
	})
}

// queryLimit returns 0 when limit is absent or malformed, selecting the default.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
