// Package epubtest builds small EPUB packages for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"
)

// Book describes the package Build writes.
type Book struct {
	Title    string
	Authors  []string
	Language string
	// Chapters are XHTML bodies; each becomes one spine document
	// OEBPS/chNN.xhtml linking css/book.css.
	Chapters []string
	// Images maps archive paths below OEBPS/ to generated PNG sizes.
	Images map[string]image.Point
	// CSS is written to OEBPS/css/book.css when non-empty.
	CSS string
}

// Build writes b as an EPUB 3 package with a nav document.
func Build(tb testing.TB, b Book) []byte {
	tb.Helper()

	files := map[string][]byte{
		"META-INF/container.xml": []byte(`<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`),
	}

	var manifest, spine, nav strings.Builder
	for i, body := range b.Chapters {
		name := fmt.Sprintf("ch%02d.xhtml", i+1)
		fmt.Fprintf(&manifest, `<item id="ch%d" href="%s" media-type="application/xhtml+xml"/>`+"\n", i+1, name)
		fmt.Fprintf(&spine, `<itemref idref="ch%d"/>`+"\n", i+1)
		fmt.Fprintf(&nav, `<li><a href="%s">Chapter %d</a></li>`, name, i+1)
		files["OEBPS/"+name] = []byte(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + name + `</title>
<link rel="stylesheet" type="text/css" href="css/book.css"/></head>
<body>` + body + `</body></html>`)
	}
	for path, size := range b.Images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, size.X, size.Y))); err != nil {
			tb.Fatal(err)
		}
		files["OEBPS/"+path] = buf.Bytes()
		fmt.Fprintf(&manifest, `<item id="%s" href="%s" media-type="image/png"/>`+"\n", strings.NewReplacer("/", "-", ".", "-").Replace(path), path)
	}
	if b.CSS != "" {
		files["OEBPS/css/book.css"] = []byte(b.CSS)
		manifest.WriteString(`<item id="css" href="css/book.css" media-type="text/css"/>` + "\n")
	}

	files["OEBPS/nav.xhtml"] = []byte(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops"><body>
<nav epub:type="toc"><ol>` + nav.String() + `</ol></nav></body></html>`)

	var meta strings.Builder
	fmt.Fprintf(&meta, "<dc:title>%s</dc:title>\n", b.Title)
	for _, a := range b.Authors {
		fmt.Fprintf(&meta, "<dc:creator>%s</dc:creator>\n", a)
	}
	if b.Language != "" {
		fmt.Fprintf(&meta, "<dc:language>%s</dc:language>\n", b.Language)
	}
	files["OEBPS/content.opf"] = []byte(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
` + meta.String() + `</metadata>
<manifest>
<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
` + manifest.String() + `</manifest>
<spine>
` + spine.String() + `</spine>
</package>`)

	return Zip(tb, files)
}

// Zip writes files into an EPUB container, mimetype first and stored.
func Zip(tb testing.TB, files map[string][]byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		tb.Fatal(err)
	}
	mw.Write([]byte("application/epub+zip"))
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			tb.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			tb.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatal(err)
	}
	return buf.Bytes()
}
