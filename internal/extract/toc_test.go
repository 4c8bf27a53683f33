package extract

import (
	"reflect"
	"testing"

	"github.com/unalkalkan/folio/pkg/types"
)

func TestDefaultTocCandidatesOrder(t *testing.T) {
	want := []TocCandidate{
		{"toc.ncx", types.TocNCX},
		{"ncx", types.TocNCX},
		{"nav", types.TocNAV},
		{"toc", types.TocNAV},
	}
	if !reflect.DeepEqual(DefaultTocCandidates, want) {
		t.Errorf("DefaultTocCandidates = %v, want %v", DefaultTocCandidates, want)
	}
}

func TestTocResolverProbing(t *testing.T) {
	ncx := []byte("<ncx/>")
	nav := []byte("<html><nav/></html>")

	tests := []struct {
		name     string
		manifest map[string]manifestItem
		want     types.TocOutline
	}{
		{
			name: "toc.ncx beats nav",
			manifest: map[string]manifestItem{
				"nav":     {"OEBPS/nav.xhtml", "application/xhtml+xml"},
				"toc.ncx": {"OEBPS/toc.ncx", "application/x-dtbncx+xml"},
			},
			want: types.RawTocOutline(types.TocNCX, string(ncx), "OEBPS/toc.ncx"),
		},
		{
			name: "ncx beats toc",
			manifest: map[string]manifestItem{
				"toc": {"OEBPS/nav.xhtml", "application/xhtml+xml"},
				"ncx": {"OEBPS/toc.ncx", "application/x-dtbncx+xml"},
			},
			want: types.RawTocOutline(types.TocNCX, string(ncx), "OEBPS/toc.ncx"),
		},
		{
			name: "nav only",
			manifest: map[string]manifestItem{
				"nav": {"OEBPS/nav.xhtml", "application/xhtml+xml"},
			},
			want: types.RawTocOutline(types.TocNAV, string(nav), "OEBPS/nav.xhtml"),
		},
		{
			name: "toc id as nav",
			manifest: map[string]manifestItem{
				"toc": {"OEBPS/nav.xhtml", "application/xhtml+xml"},
			},
			want: types.RawTocOutline(types.TocNAV, string(nav), "OEBPS/nav.xhtml"),
		},
		{
			name: "listed but missing falls through",
			manifest: map[string]manifestItem{
				"toc.ncx": {"OEBPS/missing.ncx", "application/x-dtbncx+xml"},
				"nav":     {"OEBPS/nav.xhtml", "application/xhtml+xml"},
			},
			want: types.RawTocOutline(types.TocNAV, string(nav), "OEBPS/nav.xhtml"),
		},
		{
			name: "no candidates",
			manifest: map[string]manifestItem{
				"contents": {"OEBPS/nav.xhtml", "application/xhtml+xml"},
			},
			want: types.AbsentToc(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReader{
				manifest: tt.manifest,
				resources: map[string][]byte{
					"OEBPS/toc.ncx":   ncx,
					"OEBPS/nav.xhtml": nav,
				},
			}
			got := NewTocResolver(nil, nil).Resolve(r)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTocResolverPrefersDecomposed(t *testing.T) {
	entries := []types.TocEntry{
		{Label: "Cover", Target: "OEBPS/cover.xhtml"},
		{Label: "  Chapter 1  ", Target: "OEBPS/c1.xhtml#start", Depth: 0},
		{Label: "1.1", Target: "OEBPS/c1.xhtml#s1", Depth: 1},
	}
	r := &outlineReader{
		fakeReader: &fakeReader{
			manifest:  map[string]manifestItem{"toc.ncx": {"toc.ncx", "application/x-dtbncx+xml"}},
			resources: map[string][]byte{"toc.ncx": []byte("<ncx/>")},
		},
		entries: entries,
	}

	got := NewTocResolver(nil, nil).Resolve(r)
	if got.Kind != types.TocDecomposed {
		t.Fatalf("kind = %q, want decomposed", got.Kind)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}
	if !reflect.DeepEqual(got.Entries, entries) {
		t.Errorf("entries = %+v, want %+v", got.Entries, entries)
	}
	if got.Raw != nil {
		t.Error("raw variant populated alongside decomposed")
	}
	if r.fetches["toc.ncx"] != 0 {
		t.Error("manifest probed although a decomposed outline exists")
	}
}

func TestTocResolverEmptyDecomposedFallsBack(t *testing.T) {
	r := &outlineReader{
		fakeReader: &fakeReader{
			manifest:  map[string]manifestItem{"ncx": {"toc.ncx", "application/x-dtbncx+xml"}},
			resources: map[string][]byte{"toc.ncx": []byte("<ncx/>")},
		},
		entries: []types.TocEntry{},
	}
	got := NewTocResolver(nil, nil).Resolve(r)
	if got.Kind != types.TocRaw || got.Raw.Format != types.TocNCX {
		t.Errorf("Resolve = %+v, want raw ncx", got)
	}
}

func TestTocResolverCustomCandidates(t *testing.T) {
	r := &fakeReader{
		manifest: map[string]manifestItem{
			"toc.ncx":  {"toc.ncx", "application/x-dtbncx+xml"},
			"contents": {"contents.xhtml", "application/xhtml+xml"},
		},
		resources: map[string][]byte{
			"toc.ncx":        []byte("<ncx/>"),
			"contents.xhtml": []byte("<nav/>"),
		},
	}
	got := NewTocResolver([]TocCandidate{{ID: "contents", Format: types.TocNAV}}, nil).Resolve(r)
	want := types.RawTocOutline(types.TocNAV, "<nav/>", "contents.xhtml")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}
