package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/unalkalkan/folio/pkg/types"
)

const testScheme = "pkg://"

type fakeDoc struct {
	path   string
	markup string
	err    error
}

type manifestItem struct {
	path      string
	mediaType string
}

// fakeReader is an in-memory PackageReader.
type fakeReader struct {
	docs      []fakeDoc
	resources map[string][]byte
	manifest  map[string]manifestItem
	metadata  map[string]string
	cursor    int
	advances  int
	fetches   map[string]int
}

func (f *fakeReader) CurrentPath() string { return f.docs[f.cursor].path }

func (f *fakeReader) CurrentRewritten() ([]byte, error) {
	d := f.docs[f.cursor]
	if d.err != nil {
		return nil, d.err
	}
	return []byte(d.markup), nil
}

func (f *fakeReader) Advance() bool {
	f.advances++
	if f.cursor+1 >= len(f.docs) {
		return false
	}
	f.cursor++
	return true
}

func (f *fakeReader) FetchResource(path string) ([]byte, bool) {
	if f.fetches == nil {
		f.fetches = make(map[string]int)
	}
	f.fetches[path]++
	data, ok := f.resources[path]
	return data, ok
}

func (f *fakeReader) ManifestEntry(id string) (string, string, bool) {
	item, ok := f.manifest[id]
	return item.path, item.mediaType, ok
}

func (f *fakeReader) Metadata(field string) (string, bool) {
	v, ok := f.metadata[field]
	return v, ok
}

// outlineReader adds a decomposed outline to fakeReader.
type outlineReader struct {
	*fakeReader
	entries []types.TocEntry
}

func (o *outlineReader) DecomposedOutline() []types.TocEntry { return o.entries }

// sequenceFetcher returns successive payloads for the same path.
type sequenceFetcher struct {
	payloads map[string][][]byte
}

func (s *sequenceFetcher) FetchResource(path string) ([]byte, bool) {
	queue := s.payloads[path]
	if len(queue) == 0 {
		return nil, false
	}
	s.payloads[path] = queue[1:]
	return queue[0], true
}

// recordingRecorder captures extraction outcomes.
type recordingRecorder struct {
	outcomes  []string
	resources map[string]int
	tocKinds  []string
}

func (r *recordingRecorder) ObserveExtraction(_ time.Duration, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingRecorder) AddResources(kind string, n int) {
	if r.resources == nil {
		r.resources = make(map[string]int)
	}
	r.resources[kind] += n
}

func (r *recordingRecorder) IncTocKind(kind string) { r.tocKinds = append(r.tocKinds, kind) }
func (r *recordingRecorder) IncUpload(bool)         {}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// zipPackage writes an EPUB archive with the given files, mimetype first.
func zipPackage(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	mw.Write([]byte("application/epub+zip"))

	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
