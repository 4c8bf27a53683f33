package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unalkalkan/folio/internal/storage"
	"github.com/unalkalkan/folio/pkg/types"
)

func newTestRepository(t *testing.T) (*StorageRepository, storage.Adapter) {
	t.Helper()
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage adapter: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })
	return NewRepository(adapter), adapter
}

func TestBookRepository(t *testing.T) {
	repo, adapter := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("SaveAndGetBook", func(t *testing.T) {
		book := &types.Book{
			ID:         "book_123",
			Title:      "Test Book",
			Author:     "Test Author",
			Language:   "en",
			UploadedAt: base,
			Documents:  3,
		}
		if err := repo.SaveBook(ctx, book); err != nil {
			t.Fatalf("Failed to save book: %v", err)
		}

		retrieved, err := repo.GetBook(ctx, "book_123")
		if err != nil {
			t.Fatalf("Failed to get book: %v", err)
		}
		if retrieved.Title != book.Title || retrieved.Author != book.Author || retrieved.Documents != 3 {
			t.Errorf("GetBook = %+v, want %+v", retrieved, book)
		}
		if !retrieved.UploadedAt.Equal(base) {
			t.Errorf("UploadedAt = %v, want %v", retrieved.UploadedAt, base)
		}

		exists, _ := adapter.Exists(ctx, "library/book_123/book.json")
		if !exists {
			t.Error("metadata not stored at library/book_123/book.json")
		}
	})

	t.Run("SaveBookRequiresID", func(t *testing.T) {
		if err := repo.SaveBook(ctx, &types.Book{Title: "No ID"}); err == nil {
			t.Error("expected error for book without ID")
		}
	})

	t.Run("ListBooksOrderedByUpload", func(t *testing.T) {
		repo.SaveBook(ctx, &types.Book{ID: "book_new", Title: "Newer", UploadedAt: base.Add(time.Hour)})
		repo.SaveBook(ctx, &types.Book{ID: "book_old", Title: "Older", UploadedAt: base.Add(-time.Hour)})
		repo.SavePackage(ctx, "book_old", []byte("zip"))

		books, err := repo.ListBooks(ctx)
		if err != nil {
			t.Fatalf("Failed to list books: %v", err)
		}
		var ids []string
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		want := []string{"book_old", "book_123", "book_new"}
		if len(ids) != len(want) {
			t.Fatalf("ListBooks = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("ListBooks[%d] = %s, want %s", i, ids[i], want[i])
			}
		}
	})

	t.Run("Package", func(t *testing.T) {
		if err := repo.SavePackage(ctx, "book_123", []byte("PK\x03\x04")); err != nil {
			t.Fatalf("Failed to save package: %v", err)
		}
		data, err := repo.GetPackage(ctx, "book_123")
		if err != nil {
			t.Fatalf("Failed to get package: %v", err)
		}
		if string(data) != "PK\x03\x04" {
			t.Errorf("GetPackage = %q", data)
		}
	})

	t.Run("DeletePackage", func(t *testing.T) {
		if err := repo.SavePackage(ctx, "book_pkg", []byte("PK")); err != nil {
			t.Fatalf("Failed to save package: %v", err)
		}
		if err := repo.DeletePackage(ctx, "book_pkg"); err != nil {
			t.Fatalf("Failed to delete package: %v", err)
		}
		if _, err := repo.GetPackage(ctx, "book_pkg"); !errors.Is(err, ErrBookNotFound) {
			t.Errorf("GetPackage after delete = %v, want ErrBookNotFound", err)
		}
		if err := repo.DeletePackage(ctx, "book_pkg"); err != nil {
			t.Errorf("second DeletePackage = %v, want nil", err)
		}
	})

	t.Run("DeleteBook", func(t *testing.T) {
		if err := repo.DeleteBook(ctx, "book_123"); err != nil {
			t.Fatalf("Failed to delete book: %v", err)
		}
		if _, err := repo.GetBook(ctx, "book_123"); !errors.Is(err, ErrBookNotFound) {
			t.Errorf("GetBook after delete = %v, want ErrBookNotFound", err)
		}
		if _, err := repo.GetPackage(ctx, "book_123"); !errors.Is(err, ErrBookNotFound) {
			t.Errorf("GetPackage after delete = %v, want ErrBookNotFound", err)
		}
		if err := repo.DeleteBook(ctx, "book_123"); !errors.Is(err, ErrBookNotFound) {
			t.Errorf("second delete = %v, want ErrBookNotFound", err)
		}
	})

	t.Run("TraversalIDs", func(t *testing.T) {
		for _, id := range []string{"..", "../library/book_new"} {
			if _, err := repo.GetBook(ctx, id); !errors.Is(err, ErrBookNotFound) {
				t.Errorf("GetBook(%q) = %v, want ErrBookNotFound", id, err)
			}
			if err := repo.DeleteBook(ctx, id); !errors.Is(err, ErrBookNotFound) {
				t.Errorf("DeleteBook(%q) = %v, want ErrBookNotFound", id, err)
			}
		}
	})
}
