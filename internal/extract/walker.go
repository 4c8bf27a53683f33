package extract

import "github.com/unalkalkan/folio/pkg/types"

// PackageReader is the capability set the extractor consumes from an
// opened package. Implementations start positioned on the first spine
// document and are driven by exactly one consumer.
type PackageReader interface {
	// CurrentPath returns the archive path of the document under the cursor.
	CurrentPath() string
	// CurrentRewritten returns that document's markup with internal
	// references rewritten to the package scheme.
	CurrentRewritten() ([]byte, error)
	// Advance moves to the next spine document; false means the spine is exhausted.
	Advance() bool
	// FetchResource returns the bytes stored at an archive path.
	FetchResource(path string) ([]byte, bool)
	// ManifestEntry returns the archive path and media type of a manifest id.
	ManifestEntry(id string) (path, mediaType string, ok bool)
	// Metadata returns a package metadata field.
	Metadata(field string) (string, bool)
}

// OutlineProvider is implemented by readers that already decomposed the
// package navigation into entries while opening it.
type OutlineProvider interface {
	DecomposedOutline() []types.TocEntry
}

// RawDocument is one spine document as read from the package.
type RawDocument struct {
	Path   string
	Markup []byte
}

// Walker iterates a reader's spine once, in order:
//
//	w := NewWalker(r)
//	for w.Next() {
//		doc := w.Document()
//	}
//	if err := w.Err(); err != nil { ... }
//
// A Walker consumes the reader's cursor and cannot be restarted;
// iterating again requires reopening the package. It must not be
// shared between goroutines.
type Walker struct {
	r       PackageReader
	cur     RawDocument
	err     error
	started bool
	done    bool
}

// NewWalker returns a Walker over r, which must be positioned on its
// first spine document.
func NewWalker(r PackageReader) *Walker {
	return &Walker{r: r}
}

// Next advances to the next document. It returns false when the spine is
// exhausted or reading failed; Err distinguishes the two.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	if w.started && !w.r.Advance() {
		w.done = true
		return false
	}
	w.started = true

	path := w.r.CurrentPath()
	markup, err := w.r.CurrentRewritten()
	if err != nil {
		w.err = &Error{Kind: ErrOpen, Document: path, Err: err}
		w.done = true
		return false
	}
	w.cur = RawDocument{Path: path, Markup: markup}
	return true
}

// Document returns the document Next moved to.
func (w *Walker) Document() RawDocument {
	return w.cur
}

// Err returns the error that stopped iteration, if any.
func (w *Walker) Err() error {
	return w.err
}
