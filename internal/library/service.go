// Package library stores uploaded e-book packages and serves the
// extracted document model for them.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unalkalkan/folio/internal/epub"
	"github.com/unalkalkan/folio/internal/extract"
	"github.com/unalkalkan/folio/internal/logfields"
	"github.com/unalkalkan/folio/internal/metrics"
	"github.com/unalkalkan/folio/pkg/types"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("package exceeds upload limit")
	// ErrInvalidPackage is returned when an upload cannot be opened as a package.
	ErrInvalidPackage = errors.New("invalid package")
)

// Service coordinates the repository and the extractor
type Service struct {
	repo      Repository
	extractor *extract.Extractor
	maxBytes  int64
	logger    *slog.Logger
	recorder  metrics.Recorder
	now       func() time.Time
}

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	MaxUploadBytes int64 // 0 means unlimited
	Logger         *slog.Logger
	Recorder       metrics.Recorder
}

// NewService creates a library service
func NewService(repo Repository, extractor *extract.Extractor, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Service{
		repo:      repo,
		extractor: extractor,
		maxBytes:  opts.MaxUploadBytes,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		now:       time.Now,
	}
}

// Import reads a package from r, checks that it opens, and stores it
// with the metadata it declares.
func (s *Service) Import(ctx context.Context, r io.Reader) (book *types.Book, err error) {
	defer func() { s.recorder.IncUpload(err == nil) }()

	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, s.maxBytes)
	}

	pkg, err := epub.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
	}
	defer pkg.Close()

	book = BookFromPackage(pkg)
	book.ID = uuid.NewString()
	book.UploadedAt = s.now().UTC()
	book.Size = int64(len(data))

	if err := s.repo.SavePackage(ctx, book.ID, data); err != nil {
		return nil, fmt.Errorf("failed to save package: %w", err)
	}
	if err := s.repo.SaveBook(ctx, book); err != nil {
		if derr := s.repo.DeletePackage(context.WithoutCancel(ctx), book.ID); derr != nil {
			s.logger.Warn("Failed to remove orphaned package",
				logfields.BookID(book.ID),
				logfields.Error(derr))
		}
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	s.logger.Info("Imported book",
		logfields.BookID(book.ID),
		slog.String("title", book.Title),
		slog.Int64("size", book.Size))
	return book, nil
}

// Book returns one library entry
func (s *Service) Book(ctx context.Context, id string) (*types.Book, error) {
	return s.repo.GetBook(ctx, id)
}

// Books lists the library
func (s *Service) Books(ctx context.Context) ([]*types.Book, error) {
	return s.repo.ListBooks(ctx)
}

// Delete removes a book and its stored package
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted book", logfields.BookID(id))
	return nil
}

// Document extracts the stored package of a book. Every call reopens
// the package; nothing is cached between calls.
func (s *Service) Document(ctx context.Context, id string) (*types.Document, error) {
	data, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := s.extractor.ExtractBytes(ctx, data)
	if err != nil {
		s.logger.Warn("Extraction failed",
			logfields.BookID(id),
			slog.String("kind", extract.KindLabel(err)),
			logfields.Error(err))
		return nil, err
	}
	s.logger.Debug("Extraction finished",
		logfields.BookID(id),
		logfields.Duration(time.Since(start)))
	return doc, nil
}

// MetadataSource is the package metadata BookFromPackage reads.
type MetadataSource interface {
	Metadata(field string) (string, bool)
	MetadataValues(field string) []string
	SpineLen() int
}

// BookFromPackage builds a library entry from package metadata. ID,
// UploadedAt and Size are left for the caller.
func BookFromPackage(src MetadataSource) *types.Book {
	first := func(field string) string {
		v, _ := src.Metadata(field)
		return v
	}
	book := &types.Book{
		Title:      first("title"),
		Author:     strings.Join(src.MetadataValues("creator"), ", "),
		Language:   first("language"),
		Identifier: first("identifier"),
		Publisher:  first("publisher"),
		Documents:  src.SpineLen(),
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}
	return book
}
