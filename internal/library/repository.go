package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/unalkalkan/folio/internal/storage"
	"github.com/unalkalkan/folio/pkg/types"
)

// ErrBookNotFound is returned when no book is stored under an ID.
var ErrBookNotFound = errors.New("book not found")

const (
	rootPrefix  = "library/"
	bookFile    = "book.json"
	packageFile = "package.epub"
)

// Repository persists library entries and their packages
type Repository interface {
	// SaveBook stores book metadata
	SaveBook(ctx context.Context, book *types.Book) error

	// GetBook retrieves book metadata by ID
	GetBook(ctx context.Context, bookID string) (*types.Book, error)

	// ListBooks returns all books, oldest upload first
	ListBooks(ctx context.Context) ([]*types.Book, error)

	// DeleteBook removes a book and its package
	DeleteBook(ctx context.Context, bookID string) error

	// SavePackage stores the uploaded package bytes
	SavePackage(ctx context.Context, bookID string, data []byte) error

	// GetPackage retrieves the uploaded package bytes
	GetPackage(ctx context.Context, bookID string) ([]byte, error)

	// DeletePackage removes the package bytes only. Missing packages are
	// not an error.
	DeletePackage(ctx context.Context, bookID string) error
}

// StorageRepository implements Repository on a storage adapter, one
// directory per book:
//
//	library/<id>/book.json
//	library/<id>/package.epub
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a repository backed by storageAdapter
func NewRepository(storageAdapter storage.Adapter) *StorageRepository {
	return &StorageRepository{storage: storageAdapter}
}

// bookKey is not cleaned here; the adapter rejects IDs that would
// climb out of the book's directory.
func bookKey(bookID, file string) string {
	return rootPrefix + bookID + "/" + file
}

// SaveBook stores book metadata
func (r *StorageRepository) SaveBook(ctx context.Context, book *types.Book) error {
	if book.ID == "" {
		return errors.New("book ID is required")
	}
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}
	return r.storage.Put(ctx, bookKey(book.ID, bookFile), bytes.NewReader(data))
}

// GetBook retrieves book metadata by ID
func (r *StorageRepository) GetBook(ctx context.Context, bookID string) (*types.Book, error) {
	reader, err := r.get(ctx, bookID, bookFile)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var book types.Book
	if err := json.NewDecoder(reader).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode book %s: %w", bookID, err)
	}
	return &book, nil
}

// ListBooks returns all books. Entries whose metadata cannot be read
// are skipped.
func (r *StorageRepository) ListBooks(ctx context.Context) ([]*types.Book, error) {
	keys, err := r.storage.List(ctx, rootPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]*types.Book, 0)
	for _, key := range keys {
		if path.Base(key) != bookFile {
			continue
		}
		book, err := r.GetBook(ctx, path.Base(path.Dir(key)))
		if err != nil {
			continue
		}
		books = append(books, book)
	}

	sort.SliceStable(books, func(i, j int) bool {
		if !books[i].UploadedAt.Equal(books[j].UploadedAt) {
			return books[i].UploadedAt.Before(books[j].UploadedAt)
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

// DeleteBook removes the package first so a failed delete never leaves
// metadata pointing at nothing.
func (r *StorageRepository) DeleteBook(ctx context.Context, bookID string) error {
	exists, err := r.storage.Exists(ctx, bookKey(bookID, bookFile))
	if err != nil && !errors.Is(err, storage.ErrInvalidKey) {
		return fmt.Errorf("failed to check book %s: %w", bookID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}
	if err := r.storage.Delete(ctx, bookKey(bookID, packageFile)); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if err := r.storage.Delete(ctx, bookKey(bookID, bookFile)); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// SavePackage stores the uploaded package bytes
func (r *StorageRepository) SavePackage(ctx context.Context, bookID string, data []byte) error {
	return r.storage.Put(ctx, bookKey(bookID, packageFile), bytes.NewReader(data))
}

// DeletePackage removes the package bytes only
func (r *StorageRepository) DeletePackage(ctx context.Context, bookID string) error {
	if err := r.storage.Delete(ctx, bookKey(bookID, packageFile)); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	return nil
}

// GetPackage retrieves the uploaded package bytes
func (r *StorageRepository) GetPackage(ctx context.Context, bookID string) ([]byte, error) {
	reader, err := r.get(ctx, bookID, packageFile)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read package %s: %w", bookID, err)
	}
	return data, nil
}

func (r *StorageRepository) get(ctx context.Context, bookID, file string) (io.ReadCloser, error) {
	reader, err := r.storage.Get(ctx, bookKey(bookID, file))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("failed to get %s for book %s: %w", file, bookID, err)
	}
	return reader, nil
}
