// Package media stores uploaded images on an external media host.
package media

import (
	"context"
	"io"
)

// Folders an upload may target. Objects live under <root>/<folder>.
const (
	FolderProducts   = "products"
	FolderCategories = "categories"
	FolderBanners    = "banners"
	FolderUsers      = "users"
)

// MaxFileSize is the largest accepted upload (10 MB).
const MaxFileSize int64 = 10 << 20

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// IsAllowedContentType reports whether contentType may be uploaded.
func IsAllowedContentType(contentType string) bool {
	return allowedContentTypes[contentType]
}

// IsValidFolder reports whether folder is one of the known upload folders.
func IsValidFolder(folder string) bool {
	switch folder {
	case FolderProducts, FolderCategories, FolderBanners, FolderUsers:
		return true
	}
	return false
}

// Store is the media host.
type Store interface {
	// Upload stores the file under folder and returns its key and public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes the object identified by key.
	Delete(ctx context.Context, key string) error
}

// UploadInput holds one file to upload.
type UploadInput struct {
	Folder      string
	FileName    string
	ContentType string
	Data        io.Reader
}

// UploadResult identifies a stored object.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
