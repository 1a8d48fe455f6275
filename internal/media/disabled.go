package media

import (
	"context"
	"errors"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var errNotConfigured = errors.New("media host credentials are not configured")

// Disabled is the Store used when no media host is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, *UploadInput) (*UploadResult, error) {
	return nil, apperrors.ServiceUnavailable("media", errNotConfigured)
}

func (Disabled) Delete(context.Context, string) error {
	return apperrors.ServiceUnavailable("media", errNotConfigured)
}
