package epub

import (
	"net/url"
	"regexp"
	"strings"
)

// uriSchemePattern matches references that carry their own scheme
// (http:, mailto:, data:, epub: ...) and must be left alone.
var uriSchemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

func isExternal(ref string) bool {
	return uriSchemePattern.MatchString(ref)
}

// resolveHref resolves href against the directory of the archive file
// at base and returns a clean archive path. A leading slash means the
// archive root. Parent segments that would climb above the root are
// dropped. Percent-encoding in the path is decoded; the query and
// fragment, if any, are discarded.
func resolveHref(base, href string) string {
	p, _ := splitFragment(href)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	var segs []string
	if !strings.HasPrefix(p, "/") {
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			segs = strings.Split(base[:i], "/")
		}
	}

	for _, s := range strings.Split(p, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, "/")
}

// resolveTarget is resolveHref that keeps the fragment, for navigation
// targets such as "ch01.xhtml#sec2".
func resolveTarget(base, href string) string {
	if isExternal(href) {
		return href
	}
	p, frag := splitFragment(href)
	if p == "" {
		p = base[strings.LastIndexByte(base, '/')+1:]
	}
	target := resolveHref(base, p)
	if frag != "" {
		target += "#" + frag
	}
	return target
}

func splitFragment(href string) (string, string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}
