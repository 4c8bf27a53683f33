package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

// archive indexes zip entries by name. Lookups try the exact name first
// and fall back to a case-insensitive match, since packages built on
// case-insensitive filesystems often disagree with their own manifests.
type archive struct {
	zr    *zip.Reader
	exact map[string]*zip.File
	lower map[string]*zip.File
}

func newArchive(zr *zip.Reader) *archive {
	a := &archive{
		zr:    zr,
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.exact[f.Name] = f
		// First entry wins for names differing only in case.
		key := strings.ToLower(f.Name)
		if _, ok := a.lower[key]; !ok {
			a.lower[key] = f
		}
	}
	return a
}

func (a *archive) find(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	return a.lower[strings.ToLower(name)]
}

func (a *archive) has(name string) bool {
	return a.find(name) != nil
}

// read returns a fresh copy of the named entry's bytes.
func (a *archive) read(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("epub: read %s: %w", name, err)
	}
	return data, nil
}
