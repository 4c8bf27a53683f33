package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/unalkalkan/folio/pkg/types"
)

const ncxMediaType = "application/x-dtbncx+xml"

var errNoTocNav = errors.New("epub: navigation document has no toc list")

type ncxDocument struct {
	XMLName   xml.Name      `xml:"ncx"`
	NavPoints []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxNavPoint struct {
	PlayOrder string        `xml:"playOrder,attr"`
	Label     string        `xml:"navLabel>text"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// buildOutline decomposes the package's navigation into a flat,
// depth-annotated entry list. EPUB 3 packages prefer the nav document
// and fall back to the NCX; EPUB 2 packages try the NCX first. Parse
// failures are not errors: a nil outline is returned instead.
func (p *Package) buildOutline() []types.TocEntry {
	sources := []func() ([]types.TocEntry, error){p.outlineFromNCX, p.outlineFromNav}
	if strings.HasPrefix(p.version, "3") {
		sources[0], sources[1] = sources[1], sources[0]
	}
	for _, src := range sources {
		entries, err := src()
		if err == nil && len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func (p *Package) outlineFromNCX() ([]types.TocEntry, error) {
	item, ok := p.ncxItem()
	if !ok {
		return nil, ErrFileNotFound
	}
	data, err := p.archive.read(item.Path)
	if err != nil {
		return nil, err
	}
	var doc ncxDocument
	if err := newXMLDecoder(data).Decode(&doc); err != nil {
		return nil, err
	}
	var entries []types.TocEntry
	flattenNCX(&entries, doc.NavPoints, item.Path, 0)
	return entries, nil
}

// ncxItem finds the NCX named by spine@toc, else the first manifest
// item with the NCX media type.
func (p *Package) ncxItem() (ManifestItem, bool) {
	if p.spineToc != "" {
		if item, ok := p.item(p.spineToc); ok {
			return item, true
		}
	}
	for _, item := range p.manifest {
		if item.MediaType == ncxMediaType {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// flattenNCX appends navPoints depth-first. Siblings are ordered by
// playOrder; points without a numeric one follow the numbered points in
// document order.
func flattenNCX(dst *[]types.TocEntry, points []ncxNavPoint, ncxPath string, depth int) {
	sorted := make([]ncxNavPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return playOrder(sorted[i]) < playOrder(sorted[j])
	})

	for _, np := range sorted {
		*dst = append(*dst, types.TocEntry{
			Label:  collapseSpace(np.Label),
			Target: resolveTarget(ncxPath, strings.TrimSpace(np.Content.Src)),
			Depth:  depth,
		})
		flattenNCX(dst, np.Children, ncxPath, depth+1)
	}
}

func playOrder(np ncxNavPoint) int {
	n, err := strconv.Atoi(strings.TrimSpace(np.PlayOrder))
	if err != nil {
		return math.MaxInt
	}
	return n
}

func (p *Package) outlineFromNav() ([]types.TocEntry, error) {
	var navItem ManifestItem
	found := false
	for _, item := range p.manifest {
		if item.hasProperty("nav") {
			navItem, found = item, true
			break
		}
	}
	if !found {
		return nil, ErrFileNotFound
	}

	data, err := p.archive.read(navItem.Path)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	nav := findTocNav(doc)
	if nav == nil {
		return nil, errNoTocNav
	}
	ol := findFirst(nav, atom.Ol)
	if ol == nil {
		return nil, errNoTocNav
	}

	var entries []types.TocEntry
	flattenNavList(&entries, ol, navItem.Path, 0)
	return entries, nil
}

// findTocNav returns the <nav epub:type="toc"> element, or the first
// <nav> when none is typed.
func findTocNav(doc *html.Node) *html.Node {
	var first, typed *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if typed != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Nav {
			if first == nil {
				first = n
			}
			for _, a := range n.Attr {
				if (a.Key == "epub:type" || a.Key == "type") && containsField(a.Val, "toc") {
					typed = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if typed != nil {
		return typed
	}
	return first
}

func flattenNavList(dst *[]types.TocEntry, ol *html.Node, navPath string, depth int) {
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		var entry types.TocEntry
		var sub *html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.A:
				entry.Label = collapseSpace(nodeText(c))
				for _, a := range c.Attr {
					if a.Key == "href" {
						entry.Target = resolveTarget(navPath, strings.TrimSpace(a.Val))
					}
				}
			case atom.Span:
				if entry.Label == "" {
					entry.Label = collapseSpace(nodeText(c))
				}
			case atom.Ol:
				sub = c
			}
		}
		if entry.Label != "" || entry.Target != "" {
			entry.Depth = depth
			*dst = append(*dst, entry)
		}
		if sub != nil {
			flattenNavList(dst, sub, navPath, depth+1)
		}
	}
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsField(list, field string) bool {
	for _, f := range strings.Fields(list) {
		if f == field {
			return true
		}
	}
	return false
}
