package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	Metadata struct {
		Elements []opfMetaElement `xml:",any"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfMetaElement struct {
	XMLName  xml.Name
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// ManifestItem is a manifest entry with its href resolved to an archive path.
type ManifestItem struct {
	ID         string
	Path       string
	MediaType  string
	Properties []string
}

func (m ManifestItem) hasProperty(p string) bool {
	for _, prop := range m.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// newXMLDecoder returns a lenient decoder for package-level XML files.
// Declared non-UTF-8 encodings are transcoded.
func newXMLDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// parseOPF parses the package document at opfPath. Manifest hrefs are
// resolved against the directory of the package document.
func parseOPF(data []byte, opfPath string) (*opfPackage, []ManifestItem, error) {
	var opf opfPackage
	if err := newXMLDecoder(data).Decode(&opf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidOPF, err)
	}

	items := make([]ManifestItem, 0, len(opf.Manifest.Items))
	for _, it := range opf.Manifest.Items {
		if it.ID == "" || it.Href == "" {
			continue
		}
		items = append(items, ManifestItem{
			ID:         it.ID,
			Path:       resolveHref(opfPath, it.Href),
			MediaType:  strings.TrimSpace(it.MediaType),
			Properties: strings.Fields(it.Properties),
		})
	}
	return &opf, items, nil
}

// collectMetadata flattens Dublin Core elements and <meta> entries into
// field -> values. DC elements are keyed by local name ("title",
// "creator"), EPUB 2 metas by name, EPUB 3 metas by property.
func collectMetadata(opf *opfPackage) map[string][]string {
	md := make(map[string][]string)
	add := func(key, value string) {
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		md[key] = append(md[key], value)
	}

	for _, el := range opf.Metadata.Elements {
		if el.XMLName.Local != "meta" {
			add(el.XMLName.Local, el.Value)
			continue
		}
		switch {
		case el.Name != "":
			add(el.Name, el.Content)
		case el.Property != "":
			add(el.Property, el.Value)
		}
	}
	return md
}
