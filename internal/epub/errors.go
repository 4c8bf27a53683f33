package epub

import "errors"

// Sentinel errors returned while opening a package.
var (
	// ErrInvalidArchive indicates the file is not a readable zip container.
	ErrInvalidArchive = errors.New("epub: invalid or corrupted archive")

	// ErrNoContainer indicates META-INF/container.xml is missing.
	ErrNoContainer = errors.New("epub: missing META-INF/container.xml")

	// ErrInvalidContainer indicates container.xml could not be parsed
	// or names no rootfile.
	ErrInvalidContainer = errors.New("epub: invalid container.xml")

	// ErrNoOPF indicates the package document named by the container
	// is not in the archive.
	ErrNoOPF = errors.New("epub: missing package document")

	// ErrInvalidOPF indicates the package document could not be parsed.
	ErrInvalidOPF = errors.New("epub: invalid package document")

	// ErrEmptySpine indicates the spine references no manifest item.
	ErrEmptySpine = errors.New("epub: no content in spine")

	// ErrFileNotFound indicates a requested file is not in the archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")
)
