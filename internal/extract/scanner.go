package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Reference is a resource reference found in markup.
type Reference struct {
	Raw  string // attribute value exactly as it appeared in markup
	Path string // archive path with the scheme removed
}

// ScanResult lists references in document order.
type ScanResult struct {
	Images      []Reference
	Stylesheets []Reference
}

// Scanner finds image and stylesheet references in rewritten markup with
// a single forward pass over start tags.
type Scanner struct {
	scheme string
}

// NewScanner returns a Scanner for references rewritten to scheme.
func NewScanner(scheme string) *Scanner {
	return &Scanner{scheme: scheme}
}

// Scan reports every image (img/image with src or href) and every
// stylesheet link (rel, type="text/css" and href all present) in markup.
// Markup must be UTF-8. When an attribute repeats within a tag the last
// occurrence wins.
func (s *Scanner) Scan(markup []byte) (ScanResult, error) {
	var res ScanResult

	if err := validateUTF8(markup); err != nil {
		return res, &Error{Kind: ErrInvalidEncoding, Err: err}
	}

	d := xml.NewDecoder(bytes.NewReader(markup))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	// Bytes are already known to be UTF-8 whatever the prolog declares.
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, &Error{Kind: ErrMalformedMarkup, Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch strings.ToLower(se.Name.Local) {
		case "img", "image":
			attrs := lastAttrs(se.Attr)
			for _, name := range []string{"src", "href"} {
				raw, ok := attrs[name]
				if !ok {
					continue
				}
				ref, err := s.reference(raw)
				if err != nil {
					return res, err
				}
				res.Images = append(res.Images, ref)
			}
		case "link":
			attrs := lastAttrs(se.Attr)
			_, hasRel := attrs["rel"]
			href, hasHref := attrs["href"]
			if !hasRel || !hasHref || attrs["type"] != "text/css" {
				continue
			}
			ref, err := s.reference(href)
			if err != nil {
				return res, err
			}
			res.Stylesheets = append(res.Stylesheets, ref)
		}
	}
}

func (s *Scanner) reference(raw string) (Reference, error) {
	path, ok := strings.CutPrefix(raw, s.scheme)
	if !ok {
		return Reference{}, &Error{Kind: ErrReferenceResolution, Reference: raw}
	}
	return Reference{Raw: raw, Path: path}, nil
}

// lastAttrs maps attribute local names to values; later duplicates
// overwrite earlier ones.
func lastAttrs(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[strings.ToLower(a.Name.Local)] = a.Value
	}
	return m
}

// validateUTF8 fails on the first invalid UTF-8 sequence in data.
func validateUTF8(data []byte) error {
	_, _, err := transform.Bytes(encoding.UTF8Validator, data)
	return err
}
