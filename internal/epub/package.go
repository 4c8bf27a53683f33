// Package epub reads EPUB packages: the zip container, the OPF package
// document, the spine cursor and navigation data.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/unalkalkan/folio/pkg/types"
)

// Package is an opened EPUB positioned on its first spine document.
//
// A Package holds a spine cursor and is not safe for concurrent use.
// Callers that need parallel extraction must open one Package each.
type Package struct {
	archive  *archive
	closer   io.Closer
	scheme   string
	opfPath  string
	version  string
	manifest []ManifestItem
	byID     map[string]int
	spine    []ManifestItem
	spineToc string
	metadata map[string][]string
	outline  []types.TocEntry
	cursor   int
}

// Option configures how a Package is opened.
type Option func(*Package)

// WithScheme sets the prefix internal references are rewritten to.
// An empty scheme keeps DefaultScheme.
func WithScheme(scheme string) Option {
	return func(p *Package) {
		if scheme != "" {
			p.scheme = scheme
		}
	}
}

// Open opens the EPUB file at path. The caller must Close it.
func Open(path string, opts ...Option) (*Package, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	p, err := newPackage(&zrc.Reader, zrc, opts)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return p, nil
}

// OpenReader opens an EPUB from r. The caller owns r.
func OpenReader(r io.ReaderAt, size int64, opts ...Option) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return newPackage(zr, nil, opts)
}

// OpenBytes opens an EPUB held in memory.
func OpenBytes(data []byte, opts ...Option) (*Package, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)), opts...)
}

func newPackage(zr *zip.Reader, closer io.Closer, opts []Option) (*Package, error) {
	p := &Package{
		archive: newArchive(zr),
		closer:  closer,
		scheme:  DefaultScheme,
	}
	for _, opt := range opts {
		opt(p)
	}

	opfPath, err := parseContainer(p.archive)
	if err != nil {
		return nil, err
	}
	if !p.archive.has(opfPath) {
		return nil, fmt.Errorf("%w: %s", ErrNoOPF, opfPath)
	}
	data, err := p.archive.read(opfPath)
	if err != nil {
		return nil, err
	}
	opf, items, err := parseOPF(data, opfPath)
	if err != nil {
		return nil, err
	}

	p.opfPath = opfPath
	p.version = opf.Version
	p.manifest = items
	p.byID = make(map[string]int, len(items))
	for i, item := range items {
		if _, dup := p.byID[item.ID]; !dup {
			p.byID[item.ID] = i
		}
	}
	p.metadata = collectMetadata(opf)
	p.spineToc = opf.Spine.Toc

	// Itemrefs to unknown ids are dropped; the spine is what can be read.
	for _, ref := range opf.Spine.ItemRefs {
		if item, ok := p.item(ref.IDRef); ok {
			p.spine = append(p.spine, item)
		}
	}
	if len(p.spine) == 0 {
		return nil, ErrEmptySpine
	}

	p.outline = p.buildOutline()
	return p, nil
}

// Close releases the underlying file when the package was opened by path.
func (p *Package) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Version returns the package version attribute, e.g. "2.0" or "3.0".
func (p *Package) Version() string { return p.version }

// Scheme returns the prefix used by CurrentRewritten.
func (p *Package) Scheme() string { return p.scheme }

// SpineLen returns the number of readable spine documents.
func (p *Package) SpineLen() int { return len(p.spine) }

// CurrentPath returns the archive path of the document under the cursor.
func (p *Package) CurrentPath() string {
	return p.spine[p.cursor].Path
}

// CurrentRewritten returns the markup of the document under the cursor
// with internal references rewritten to Scheme() + archive path.
func (p *Package) CurrentRewritten() ([]byte, error) {
	item := p.spine[p.cursor]
	data, err := p.archive.read(item.Path)
	if err != nil {
		return nil, err
	}
	return rewriteMarkup(data, item.Path, p.scheme), nil
}

// Advance moves the cursor to the next spine document. It returns false,
// leaving the cursor in place, when the spine is exhausted.
func (p *Package) Advance() bool {
	if p.cursor+1 >= len(p.spine) {
		return false
	}
	p.cursor++
	return true
}

// FetchResource returns a copy of the bytes stored at archive path.
func (p *Package) FetchResource(path string) ([]byte, bool) {
	data, err := p.archive.read(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// ManifestEntry returns the archive path and media type of manifest id.
func (p *Package) ManifestEntry(id string) (string, string, bool) {
	item, ok := p.item(id)
	if !ok {
		return "", "", false
	}
	return item.Path, item.MediaType, true
}

// Metadata returns the first value recorded for field.
func (p *Package) Metadata(field string) (string, bool) {
	values := p.metadata[field]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// MetadataValues returns every value recorded for field.
func (p *Package) MetadataValues(field string) []string {
	return append([]string(nil), p.metadata[field]...)
}

// DecomposedOutline returns the navigation entries parsed at open time,
// or nil when the package has no usable navigation document.
func (p *Package) DecomposedOutline() []types.TocEntry {
	if len(p.outline) == 0 {
		return nil
	}
	return append([]types.TocEntry(nil), p.outline...)
}

func (p *Package) item(id string) (ManifestItem, bool) {
	i, ok := p.byID[id]
	if !ok {
		return ManifestItem{}, false
	}
	return p.manifest[i], true
}
