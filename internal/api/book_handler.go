package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unalkalkan/folio/internal/extract"
	"github.com/unalkalkan/folio/internal/library"
	"github.com/unalkalkan/folio/internal/logfields"
)

// multipartOverhead is the allowance for form boundaries and headers on
// top of the package size limit.
const multipartOverhead = 1 << 20

// BookHandler handles book-related API endpoints
type BookHandler struct {
	service        *library.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewBookHandler creates a new book handler. maxUploadBytes of 0 leaves
// request bodies unbounded.
func NewBookHandler(service *library.Service, maxUploadBytes int64, logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Register mounts the book routes on mux
func (h *BookHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/books", h.UploadBook)
	mux.HandleFunc("GET /api/v1/books", h.ListBooks)
	mux.HandleFunc("GET /api/v1/books/{id}", h.GetBook)
	mux.HandleFunc("DELETE /api/v1/books/{id}", h.DeleteBook)
	mux.HandleFunc("GET /api/v1/books/{id}/document", h.GetDocument)
}

// UploadBook handles POST /api/v1/books
func (h *BookHandler) UploadBook(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	book, err := h.service.Import(r.Context(), file)
	switch {
	case err == nil:
		respondJSON(w, book, http.StatusCreated)
	case errors.Is(err, library.ErrTooLarge):
		respondError(w, "Upload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, library.ErrInvalidPackage):
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to import book", logfields.Error(err))
		respondError(w, "Failed to store book", http.StatusInternalServerError)
	}
}

// ListBooks handles GET /api/v1/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.Books(r.Context())
	if err != nil {
		h.logger.Error("Failed to list books", logfields.Error(err))
		respondError(w, "Failed to list books", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"books": books}, http.StatusOK)
}

// GetBook handles GET /api/v1/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.Book(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondLibraryError(w, err)
		return
	}
	respondJSON(w, book, http.StatusOK)
}

// DeleteBook handles DELETE /api/v1/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDocument handles GET /api/v1/books/{id}/document. Each request runs
// a fresh extraction of the stored package.
func (h *BookHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.service.Document(r.Context(), id)
	if err == nil {
		respondJSON(w, doc, http.StatusOK)
		return
	}

	switch kind := extract.KindLabel(err); kind {
	case "canceled", "internal":
		h.respondLibraryError(w, err)
	default:
		respondJSON(w, map[string]string{"error": err.Error(), "kind": kind}, http.StatusUnprocessableEntity)
	}
}

func (h *BookHandler) respondLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		respondError(w, "Book not found", http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, "Request canceled", http.StatusServiceUnavailable)
	default:
		h.logger.Error("Library request failed", logfields.Error(err))
		respondError(w, "Internal error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
