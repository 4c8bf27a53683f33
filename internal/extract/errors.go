package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by Extract unwraps to exactly one of
// these, and all of them except ErrTocUnavailable abort the extraction.
var (
	// ErrOpen indicates the archive or package document is unreadable.
	ErrOpen = errors.New("extract: cannot open package")

	// ErrReferenceResolution indicates a reference in rewritten markup
	// lacks the package scheme, i.e. the reader did not rewrite it.
	ErrReferenceResolution = errors.New("extract: reference is not package-internal")

	// ErrResourceNotFound indicates a referenced image is absent.
	ErrResourceNotFound = errors.New("extract: referenced resource not found")

	// ErrUnsupportedImageFormat indicates image bytes whose size cannot be probed.
	ErrUnsupportedImageFormat = errors.New("extract: unsupported image format")

	// ErrInvalidEncoding indicates markup or a stylesheet that is not UTF-8.
	ErrInvalidEncoding = errors.New("extract: invalid UTF-8")

	// ErrMalformedMarkup indicates markup the tag scanner cannot tokenize.
	ErrMalformedMarkup = errors.New("extract: malformed markup")

	// ErrTocUnavailable is logged when no outline can be produced. It is
	// never returned; the outline degrades to absent instead.
	ErrTocUnavailable = errors.New("extract: table of contents unavailable")
)

// Error describes a failed extraction.
type Error struct {
	Kind      error  // one of the Err* kinds above
	Document  string // archive path of the document being processed, if any
	Reference string // reference string as it appeared in markup, if any
	Err       error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Document != "" {
		fmt.Fprintf(&sb, " (document %s)", e.Document)
	}
	if e.Reference != "" {
		fmt.Fprintf(&sb, " (reference %q)", e.Reference)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindLabel returns a short, stable label for err's kind, suitable for
// metrics and log fields. Errors that are not extraction errors are
// labelled "internal"; context cancellation is labelled "canceled".
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrOpen):
		return "open"
	case errors.Is(err, ErrReferenceResolution):
		return "reference_resolution"
	case errors.Is(err, ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, ErrUnsupportedImageFormat):
		return "unsupported_image_format"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrMalformedMarkup):
		return "malformed_markup"
	case isCanceled(err):
		return "canceled"
	default:
		return "internal"
	}
}
