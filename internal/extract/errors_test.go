package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := fmt.Errorf("load: %w", &Error{Kind: ErrOpen, Document: "c1.xhtml", Err: cause})

	if !errors.Is(err, ErrOpen) {
		t.Error("kind not reachable through errors.Is")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if errors.Is(err, ErrResourceNotFound) {
		t.Error("unrelated kind matched")
	}
	want := "load: extract: cannot open package (document c1.xhtml): zip: not a valid zip file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithReference(t *testing.T) {
	err := &Error{Kind: ErrResourceNotFound, Reference: "pkg://img/a.png"}
	want := `extract: referenced resource not found (reference "pkg://img/a.png")`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&Error{Kind: ErrOpen}, "open"},
		{&Error{Kind: ErrReferenceResolution}, "reference_resolution"},
		{&Error{Kind: ErrResourceNotFound}, "resource_not_found"},
		{&Error{Kind: ErrUnsupportedImageFormat}, "unsupported_image_format"},
		{&Error{Kind: ErrInvalidEncoding}, "invalid_encoding"},
		{&Error{Kind: ErrMalformedMarkup}, "malformed_markup"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "canceled"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := KindLabel(tt.err); got != tt.want {
				t.Errorf("KindLabel(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
