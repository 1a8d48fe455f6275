package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/utafrali/storefront/internal/media"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// MediaService validates admin uploads and scopes them under the root folder.
type MediaService struct {
	store  media.Store
	root   string
	logger *slog.Logger
}

// NewMediaService creates a media service storing under root.
func NewMediaService(store media.Store, root string, logger *slog.Logger) *MediaService {
	return &MediaService{store: store, root: strings.Trim(root, "/"), logger: logger}
}

// UploadInput is one admin upload.
type UploadInput struct {
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Upload stores the file under <root>/<folder>.
func (s *MediaService) Upload(ctx context.Context, in *UploadInput) (*media.UploadResult, error) {
	if !media.IsValidFolder(in.Folder) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("folder must be one of %s, %s, %s, %s",
			media.FolderProducts, media.FolderCategories, media.FolderBanners, media.FolderUsers))
	}
	if !media.IsAllowedContentType(in.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", in.ContentType))
	}
	if in.Size <= 0 {
		return nil, apperrors.InvalidInput("file is empty")
	}
	if in.Size > media.MaxFileSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file exceeds %d bytes", media.MaxFileSize))
	}

	return s.store.Upload(ctx, &media.UploadInput{
		Folder:      s.folder(in.Folder),
		FileName:    path.Base(in.FileName),
		ContentType: in.ContentType,
		Data:        in.Data,
	})
}

// Delete removes an object. Keys outside the root folder are rejected.
func (s *MediaService) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.InvalidInput("key is required")
	}
	if s.root != "" && !strings.HasPrefix(key, s.root+"/") {
		return apperrors.InvalidInput("key is outside the media root")
	}
	return s.store.Delete(ctx, key)
}

func (s *MediaService) folder(name string) string {
	if s.root == "" {
		return name
	}
	return s.root + "/" + name
}
