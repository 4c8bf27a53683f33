package types

// Document is the render-ready model extracted from one package.
// It is built once per extraction and shares no state with the reader
// that produced it.
type Document struct {
	Documents   []ContentDocument        `json:"documents"`
	Images      map[string]ImageResource `json:"images"`      // keyed by the reference string found in markup
	Stylesheets map[string]string        `json:"stylesheets"` // keyed by the link href found in markup
	TOC         TocOutline               `json:"toc"`
}

// ContentDocument is one spine entry with its references already
// rewritten to the package-internal scheme.
type ContentDocument struct {
	ID   string `json:"id"` // archive path of the document
	HTML string `json:"html"`
}

// ImageResource holds image bytes and the pixel size probed from them
type ImageResource struct {
	Data   []byte `json:"data"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Format string `json:"format"` // "png", "jpeg", "gif", "bmp", "tiff" or "webp"
}

// TocKind tags which variant of TocOutline is populated
type TocKind string

const (
	TocAbsent     TocKind = "absent"
	TocDecomposed TocKind = "decomposed"
	TocRaw        TocKind = "raw"
)

// TocFormat identifies the navigation file format of a raw outline
type TocFormat string

const (
	TocNCX TocFormat = "ncx"
	TocNAV TocFormat = "nav"
)

// TocEntry is one navigation point reduced to a label and a target.
// Depth is 0 for top-level entries.
type TocEntry struct {
	Label  string `json:"label"`
	Target string `json:"target"`
	Depth  int    `json:"depth"`
}

// RawToc carries an undecoded navigation document
type RawToc struct {
	Format  TocFormat `json:"format"`
	Content string    `json:"content"`
	Path    string    `json:"path"`
}

// TocOutline is a tagged union: Entries is set only for TocDecomposed,
// Raw only for TocRaw, and neither for TocAbsent.
type TocOutline struct {
	Kind    TocKind    `json:"kind"`
	Entries []TocEntry `json:"entries,omitempty"`
	Raw     *RawToc    `json:"raw,omitempty"`
}

// AbsentToc returns the outline used when no navigation data exists
func AbsentToc() TocOutline {
	return TocOutline{Kind: TocAbsent}
}

// DecomposedToc wraps entries in a decomposed outline
func DecomposedToc(entries []TocEntry) TocOutline {
	return TocOutline{Kind: TocDecomposed, Entries: entries}
}

// RawTocOutline wraps a navigation document in a raw outline
func RawTocOutline(format TocFormat, content, path string) TocOutline {
	return TocOutline{
		Kind: TocRaw,
		Raw:  &RawToc{Format: format, Content: content, Path: path},
	}
}
