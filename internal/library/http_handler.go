package library

import (
	"errors"
	"net/http"
	"strconv"

	"librarian/internal/httpx"

	"go.uber.org/zap"
)

const (
	defaultPageLimit   = 10
	maxPageLimit       = 100
	maxSearchLimit     = 50
	minSearchQueryRune = 2
)

type HTTPHandler struct {
	catalog *Catalog
	logger  *zap.Logger
}

func NewHTTPHandler(catalog *Catalog, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{catalog: catalog, logger: logger}
}

// Register mounts the catalog routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("POST /books/isbn", h.CreateByISBN)
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("GET /books/search", h.Search)
	mux.HandleFunc("GET /books/{isbn}", h.Get)
	mux.HandleFunc("DELETE /books/{isbn}", h.Delete)
	mux.HandleFunc("PUT /books/{isbn}/borrow", h.Borrow)
	mux.HandleFunc("PUT /books/{isbn}/return", h.Return)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /stats", h.Stats)
}

type createBookRequest struct {
	Title   string   `json:"title" validate:"required"`
	Authors []string `json:"authors" validate:"required,min=1,dive,required"`
	ISBN    string   `json:"isbn" validate:"required"`
}

type createByISBNRequest struct {
	ISBN string `json:"isbn" validate:"required,isbn"`
}

// Create handles POST /books
// @Summary Add a book manually
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	book, err := h.catalog.Add(r.Context(), req.Title, req.Authors, req.ISBN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, book)
}

// CreateByISBN handles POST /books/isbn
// @Summary Add a book using OpenLibrary metadata
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/isbn [post]
func (h *HTTPHandler) CreateByISBN(w http.ResponseWriter, r *http.Request) {
	var req createByISBNRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	book, err := h.catalog.AddByISBN(r.Context(), req.ISBN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, book)
}

// List handles GET /books
// @Summary List books
// @Tags books
// @Produce json
// @Param skip query int false "Number of records to skip" default(0)
// @Param limit query int false "Records per page" default(10)
// @Success 200 {object} httpx.SuccessResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var details []httpx.ErrorDetail
	skip, d := intParam(query.Get("skip"), "skip", 0, 0, -1)
	details = appendDetail(details, d)
	limit, d := intParam(query.Get("limit"), "limit", defaultPageLimit, 1, maxPageLimit)
	details = appendDetail(details, d)
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", details)
		return
	}

	books := h.catalog.List()
	total := len(books)
	start := min(skip, total)
	end := min(start+limit, total)

	httpx.JSONSuccess(w, r, books[start:end], map[string]interface{}{
		"skip":  skip,
		"limit": limit,
		"total": total,
	})
}

// Search handles GET /books/search
// @Summary Search books by title or author
// @Tags books
// @Produce json
// @Param query query string true "Search term (min 2 characters)"
// @Param limit query int false "Maximum number of results" default(10)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var details []httpx.ErrorDetail
	term := query.Get("query")
	if len([]rune(term)) < minSearchQueryRune {
		details = append(details, httpx.ErrorDetail{Field: "query", Message: "query must be at least 2 characters"})
	}
	limit, d := intParam(query.Get("limit"), "limit", defaultPageLimit, 1, maxSearchLimit)
	details = appendDetail(details, d)
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", details)
		return
	}

	httpx.JSONSuccess(w, r, h.catalog.Search(term, limit), nil)
}

// Get handles GET /books/{isbn}
// @Summary Get a book by ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{isbn} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	book, ok := h.catalog.Find(isbn)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book with ISBN "+isbn+" not found", nil)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// Delete handles DELETE /books/{isbn}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Remove(r.Context(), r.PathValue("isbn")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Borrow handles PUT /books/{isbn}/borrow
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.Borrow(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// Return handles PUT /books/{isbn}/return
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.Return(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, map[string]interface{}{
		"status":      "healthy",
		"total_books": h.catalog.Len(),
		"storage":     h.catalog.Location(),
	}, nil)
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.catalog.Stats(), nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrDuplicate):
		httpx.JSONError(w, r, http.StatusBadRequest, "DUPLICATE", err.Error(), nil)
	case errors.Is(err, ErrLookup):
		httpx.JSONError(w, r, http.StatusBadRequest, "LOOKUP_FAILED", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrState):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, ErrPersistence):
		h.logger.Error("persistence failure", zap.String("request_id", httpx.RequestIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Catalog changed but could not be saved", nil)
	default:
		h.logger.Error("unexpected catalog error", zap.String("request_id", httpx.RequestIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

// intParam parses a query value, falling back to def when empty. A max < 0
// means unbounded.
func intParam(raw, name string, def, lo, hi int) (int, *httpx.ErrorDetail) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, &httpx.ErrorDetail{Field: name, Message: name + " must be an integer"}
	}
	if v < lo || (hi >= 0 && v > hi) {
		msg := name + " must be >= " + strconv.Itoa(lo)
		if hi >= 0 {
			msg += " and <= " + strconv.Itoa(hi)
		}
		return def, &httpx.ErrorDetail{Field: name, Message: msg}
	}
	return v, nil
}

func appendDetail(details []httpx.ErrorDetail, d *httpx.ErrorDetail) []httpx.ErrorDetail {
	if d != nil {
		details = append(details, *d)
	}
	return details
}
