package extract

import (
	"bytes"
	"image"
	"log/slog"

	// Formats recognised when probing image dimensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/unalkalkan/folio/internal/logfields"
	"github.com/unalkalkan/folio/pkg/types"
)

// ResourceFetcher reads resource bytes by archive path.
type ResourceFetcher interface {
	FetchResource(path string) ([]byte, bool)
}

// Resolver fetches referenced resources for one extraction and collects
// them into maps keyed by the reference string found in markup.
// A Resolver is used by a single extraction and is not safe for
// concurrent use.
type Resolver struct {
	fetcher     ResourceFetcher
	logger      *slog.Logger
	images      map[string]types.ImageResource
	stylesheets map[string]string
}

// NewResolver returns a Resolver reading from fetcher.
func NewResolver(fetcher ResourceFetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher:     fetcher,
		logger:      logger,
		images:      make(map[string]types.ImageResource),
		stylesheets: make(map[string]string),
	}
}

// ResolveImage fetches ref and probes its pixel size. A missing or
// undecodable image is an error. A reference string seen before is
// resolved again and overwrites the earlier entry.
func (r *Resolver) ResolveImage(ref Reference) error {
	data, ok := r.fetcher.FetchResource(ref.Path)
	if !ok {
		return &Error{Kind: ErrResourceNotFound, Reference: ref.Raw}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: ErrUnsupportedImageFormat, Reference: ref.Raw, Err: err}
	}

	r.images[ref.Raw] = types.ImageResource{
		Data:   bytes.Clone(data),
		Width:  uint32(cfg.Width),
		Height: uint32(cfg.Height),
		Format: format,
	}
	return nil
}

// ResolveStylesheet fetches ref as UTF-8 text. A missing stylesheet is
// skipped; invalid UTF-8 is an error.
func (r *Resolver) ResolveStylesheet(ref Reference) error {
	data, ok := r.fetcher.FetchResource(ref.Path)
	if !ok {
		r.logger.Debug("Stylesheet not in package, skipping",
			logfields.Reference(ref.Raw),
			logfields.Path(ref.Path))
		return nil
	}
	if err := validateUTF8(data); err != nil {
		return &Error{Kind: ErrInvalidEncoding, Reference: ref.Raw, Err: err}
	}
	r.stylesheets[ref.Raw] = string(data)
	return nil
}

// Images returns the collected images.
func (r *Resolver) Images() map[string]types.ImageResource {
	return r.images
}

// Stylesheets returns the collected stylesheet texts.
func (r *Resolver) Stylesheets() map[string]string {
	return r.stylesheets
}
