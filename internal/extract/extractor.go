// Package extract turns an opened e-book package into a render-ready
// document model: spine documents in order, probed images, stylesheet
// text and one table of contents outline.
//
// Extraction is all or nothing. Extract returns either a complete
// *types.Document or a nil model and one error that unwraps to a kind
// such as ErrResourceNotFound.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/unalkalkan/folio/internal/epub"
	"github.com/unalkalkan/folio/internal/logfields"
	"github.com/unalkalkan/folio/internal/metrics"
	"github.com/unalkalkan/folio/pkg/types"
)

// Options configures an Extractor. The zero value is usable.
type Options struct {
	// Scheme is the prefix internal references carry in rewritten markup.
	// Empty means epub.DefaultScheme.
	Scheme string
	// TocCandidates overrides DefaultTocCandidates.
	TocCandidates []TocCandidate
	Logger        *slog.Logger
	Recorder      metrics.Recorder
}

// Extractor runs extractions. It holds no per-call state and may be
// shared; each call must be given its own PackageReader.
type Extractor struct {
	scheme   string
	toc      *TocResolver
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Scheme == "" {
		opts.Scheme = epub.DefaultScheme
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Extractor{
		scheme:   opts.Scheme,
		toc:      NewTocResolver(opts.TocCandidates, opts.Logger),
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
}

// Scheme returns the reference prefix this Extractor expects.
func (e *Extractor) Scheme() string { return e.scheme }

// ExtractFile opens the package at path and extracts it.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*types.Document, error) {
	start := time.Now()
	pkg, err := epub.Open(path, epub.WithScheme(e.scheme))
	if err != nil {
		return nil, e.finish(start, &Error{Kind: ErrOpen, Err: err})
	}
	defer pkg.Close()
	return e.Extract(ctx, pkg)
}

// ExtractBytes opens a package held in memory and extracts it.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) (*types.Document, error) {
	start := time.Now()
	pkg, err := epub.OpenBytes(data, epub.WithScheme(e.scheme))
	if err != nil {
		return nil, e.finish(start, &Error{Kind: ErrOpen, Err: err})
	}
	return e.Extract(ctx, pkg)
}

// Extract walks r's spine from its current position and assembles the
// model. r's cursor is consumed. ctx is checked between documents; a
// cancelled call returns ctx.Err() and no model.
func (e *Extractor) Extract(ctx context.Context, r PackageReader) (*types.Document, error) {
	start := time.Now()
	doc, err := e.extract(ctx, r)
	if err != nil {
		return nil, e.finish(start, err)
	}

	e.recorder.AddResources(metrics.ResourceDocument, len(doc.Documents))
	e.recorder.AddResources(metrics.ResourceImage, len(doc.Images))
	e.recorder.AddResources(metrics.ResourceStylesheet, len(doc.Stylesheets))
	e.recorder.IncTocKind(string(doc.TOC.Kind))
	e.finish(start, nil)
	e.logger.Debug("Extracted package",
		slog.Int("documents", len(doc.Documents)),
		slog.Int("images", len(doc.Images)),
		slog.Int("stylesheets", len(doc.Stylesheets)),
		logfields.TocKind(string(doc.TOC.Kind)),
		logfields.Duration(time.Since(start)))
	return doc, nil
}

func (e *Extractor) extract(ctx context.Context, r PackageReader) (*types.Document, error) {
	scanner := NewScanner(e.scheme)
	resolver := NewResolver(r, e.logger)

	var docs []types.ContentDocument
	w := NewWalker(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !w.Next() {
			break
		}
		raw := w.Document()

		refs, err := scanner.Scan(raw.Markup)
		if err != nil {
			return nil, inDocument(err, raw.Path)
		}
		for _, ref := range refs.Images {
			if err := resolver.ResolveImage(ref); err != nil {
				return nil, inDocument(err, raw.Path)
			}
		}
		for _, ref := range refs.Stylesheets {
			if err := resolver.ResolveStylesheet(ref); err != nil {
				return nil, inDocument(err, raw.Path)
			}
		}

		docs = append(docs, types.ContentDocument{ID: raw.Path, HTML: string(raw.Markup)})
	}
	if err := w.Err(); err != nil {
		return nil, err
	}

	return &types.Document{
		Documents:   docs,
		Images:      resolver.Images(),
		Stylesheets: resolver.Stylesheets(),
		TOC:         e.toc.Resolve(r),
	}, nil
}

func (e *Extractor) finish(start time.Time, err error) error {
	e.recorder.ObserveExtraction(time.Since(start), KindLabel(err))
	return err
}

// inDocument records the document path on extraction errors that lack one.
func inDocument(err error, path string) error {
	var xe *Error
	if errors.As(err, &xe) && xe.Document == "" {
		xe.Document = path
	}
	return err
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
