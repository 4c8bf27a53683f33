package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared across packages.
const (
	KeyBookID     = "book_id"
	KeyDocument   = "document"
	KeyReference  = "reference"
	KeyPath       = "path"
	KeyManifestID = "manifest_id"
	KeyTocKind    = "toc_kind"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func BookID(id string) slog.Attr       { return slog.String(KeyBookID, id) }
func Document(path string) slog.Attr   { return slog.String(KeyDocument, path) }
func Reference(ref string) slog.Attr   { return slog.String(KeyReference, ref) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ManifestID(id string) slog.Attr   { return slog.String(KeyManifestID, id) }
func TocKind(kind string) slog.Attr    { return slog.String(KeyTocKind, kind) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
