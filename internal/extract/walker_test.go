package extract

import (
	"errors"
	"testing"
)

func TestWalkerYieldsSpineOrder(t *testing.T) {
	r := &fakeReader{docs: []fakeDoc{
		{path: "text/c1.xhtml", markup: "<p>1</p>"},
		{path: "text/c2.xhtml", markup: "<p>2</p>"},
		{path: "text/c3.xhtml", markup: "<p>3</p>"},
	}}

	w := NewWalker(r)
	var paths []string
	for w.Next() {
		doc := w.Document()
		paths = append(paths, doc.Path)
		if want := r.docs[len(paths)-1].markup; string(doc.Markup) != want {
			t.Errorf("markup of %s = %q, want %q", doc.Path, doc.Markup, want)
		}
	}
	if err := w.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	want := []string{"text/c1.xhtml", "text/c2.xhtml", "text/c3.xhtml"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	// Exhausted walkers stay exhausted and stop touching the reader.
	advances := r.advances
	if w.Next() {
		t.Error("Next after exhaustion returned true")
	}
	if r.advances != advances {
		t.Errorf("Advance called %d more times after exhaustion", r.advances-advances)
	}
}

func TestWalkerSingleDocument(t *testing.T) {
	r := &fakeReader{docs: []fakeDoc{{path: "only.xhtml", markup: "<p/>"}}}
	w := NewWalker(r)

	n := 0
	for w.Next() {
		n++
	}
	if n != 1 {
		t.Fatalf("documents = %d, want 1", n)
	}
	if r.advances != 1 {
		t.Errorf("advances = %d, want 1", r.advances)
	}
}

func TestWalkerReadError(t *testing.T) {
	cause := errors.New("zip: checksum error")
	r := &fakeReader{docs: []fakeDoc{
		{path: "c1.xhtml", markup: "<p/>"},
		{path: "c2.xhtml", err: cause},
		{path: "c3.xhtml", markup: "<p/>"},
	}}

	w := NewWalker(r)
	n := 0
	for w.Next() {
		n++
	}
	if n != 1 {
		t.Errorf("documents before failure = %d, want 1", n)
	}
	err := w.Err()
	assertKind(t, err, ErrOpen)
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap cause", err)
	}
	var xe *Error
	if !errors.As(err, &xe) || xe.Document != "c2.xhtml" {
		t.Errorf("error document = %+v, want c2.xhtml", xe)
	}
	if w.Next() {
		t.Error("Next after failure returned true")
	}
}
