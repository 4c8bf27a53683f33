package epub

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// DefaultScheme is the prefix internal references are rewritten to.
const DefaultScheme = "epub://"

// rewrittenAttrs lists, per element local name, the attribute whose
// value is rewritten to the package scheme.
var rewrittenAttrs = map[string]string{
	"a":     "href",
	"link":  "href",
	"image": "href",
	"img":   "src",
}

// valueSpan is the byte range of one raw attribute value inside a
// start tag. Quoted values include their quotes.
type valueSpan struct{ start, end int }

// attrValueSpans lexes the attribute list of a raw start tag and returns
// the value spans of every attribute whose local name is attr, with or
// without a namespace prefix (xlink:href). Text inside other attributes'
// quoted values is never matched.
func attrValueSpans(tag []byte, attr string) []valueSpan {
	var spans []valueSpan
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}

		nameStart := i
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		name := string(tag[nameStart:i])
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			continue
		}
		i++
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}

		valueStart := i
		if i < len(tag) && (tag[i] == '"' || tag[i] == '\'') {
			q := tag[i]
			i++
			for i < len(tag) && tag[i] != q {
				i++
			}
			if i < len(tag) {
				i++
			}
		} else {
			for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && !(tag[i] == '/' && i+1 < len(tag) && tag[i+1] == '>') {
				i++
			}
		}
		if valueStart == i {
			continue
		}
		if local := name[strings.LastIndexByte(name, ':')+1:]; strings.EqualFold(local, attr) {
			spans = append(spans, valueSpan{valueStart, i})
		}
	}
	return spans
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// rewriteMarkup returns a copy of markup in which package-relative
// references are replaced by scheme + archive path, resolved against
// docPath. Everything outside the rewritten attribute values is copied
// byte for byte. If the markup cannot be tokenized, the remainder from
// the failing token on is copied unchanged.
func rewriteMarkup(markup []byte, docPath, scheme string) []byte {
	d := xml.NewDecoder(bytes.NewReader(markup))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var out bytes.Buffer
	out.Grow(len(markup) + len(markup)/8)

	var copied int64
	for {
		start := d.InputOffset()
		tok, err := d.RawToken()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		attr, ok := rewrittenAttrs[strings.ToLower(se.Name.Local)]
		if !ok {
			continue
		}
		end := d.InputOffset()
		raw := markup[start:end]
		spans := attrValueSpans(raw, attr)
		if len(spans) == 0 {
			continue
		}
		var rewritten []byte
		last := 0
		for _, sp := range spans {
			rewritten = append(rewritten, raw[last:sp.start]...)
			rewritten = append(rewritten, rewriteValue(raw[sp.start:sp.end], docPath, scheme)...)
			last = sp.end
		}
		rewritten = append(rewritten, raw[last:]...)
		if bytes.Equal(raw, rewritten) {
			continue
		}
		out.Write(markup[copied:start])
		out.Write(rewritten)
		copied = end
	}
	out.Write(markup[copied:])
	return out.Bytes()
}

// rewriteValue rewrites one raw (possibly quoted, entity-escaped)
// attribute value. External URIs, empty values and pure fragments are
// returned unchanged.
func rewriteValue(raw []byte, docPath, scheme string) []byte {
	quote := ""
	inner := string(raw)
	if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') {
		quote = inner[:1]
		inner = inner[1 : len(inner)-1]
	}

	v := strings.TrimSpace(html.UnescapeString(inner))
	if v == "" || strings.HasPrefix(v, "#") || isExternal(v) {
		return raw
	}

	target := scheme + resolveHref(docPath, v)
	if _, frag := splitFragment(v); frag != "" {
		target += "#" + frag
	}

	if quote == "" {
		quote = `"`
	}
	return []byte(quote + html.EscapeString(target) + quote)
}
