package extract

import (
	"log/slog"

	"github.com/unalkalkan/folio/internal/logfields"
	"github.com/unalkalkan/folio/pkg/types"
)

// TocCandidate is a manifest id probed for a raw navigation document.
type TocCandidate struct {
	ID     string
	Format types.TocFormat
}

// DefaultTocCandidates lists well-known navigation manifest ids in the
// order they are probed. The first one present wins.
var DefaultTocCandidates = []TocCandidate{
	{ID: "toc.ncx", Format: types.TocNCX},
	{ID: "ncx", Format: types.TocNCX},
	{ID: "nav", Format: types.TocNAV},
	{ID: "toc", Format: types.TocNAV},
}

// manifestReader is the part of PackageReader the TOC resolver needs.
type manifestReader interface {
	ManifestEntry(id string) (path, mediaType string, ok bool)
	FetchResource(path string) ([]byte, bool)
}

// TocResolver produces one outline for a package.
type TocResolver struct {
	candidates []TocCandidate
	logger     *slog.Logger
}

// NewTocResolver returns a resolver probing candidates in order. A nil
// slice selects DefaultTocCandidates.
func NewTocResolver(candidates []TocCandidate, logger *slog.Logger) *TocResolver {
	if candidates == nil {
		candidates = DefaultTocCandidates
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TocResolver{candidates: candidates, logger: logger}
}

// Resolve prefers the reader's decomposed outline, falls back to the
// first candidate id found in the manifest, and otherwise returns an
// absent outline. It never fails.
func (t *TocResolver) Resolve(r manifestReader) types.TocOutline {
	if op, ok := r.(OutlineProvider); ok {
		if entries := op.DecomposedOutline(); len(entries) > 0 {
			return types.DecomposedToc(append([]types.TocEntry(nil), entries...))
		}
	}

	for _, c := range t.candidates {
		path, _, ok := r.ManifestEntry(c.ID)
		if !ok {
			continue
		}
		data, ok := r.FetchResource(path)
		if !ok {
			t.logger.Debug("Navigation document listed but missing",
				logfields.ManifestID(c.ID),
				logfields.Path(path))
			continue
		}
		if err := validateUTF8(data); err != nil {
			t.logger.Debug("Navigation document is not UTF-8",
				logfields.ManifestID(c.ID),
				logfields.Path(path),
				logfields.Error(err))
			continue
		}
		return types.RawTocOutline(c.Format, string(data), path)
	}

	t.logger.Debug("No table of contents", logfields.Error(ErrTocUnavailable))
	return types.AbsentToc()
}
