package types

import "time"

// Book represents a package stored in the library
type Book struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Language   string    `json:"language"` // as declared in the package, usually BCP 47
	Identifier string    `json:"identifier,omitempty"`
	Publisher  string    `json:"publisher,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	Size       int64     `json:"size"` // bytes of the stored package
	Documents  int       `json:"documents"`
}
