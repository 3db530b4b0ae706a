package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Префиксы ключей в бакете.
const (
	AvatarPrefix = "avatars"
	ItemPrefix   = "items"
)

var ErrUnsupportedContentType = errors.New("unsupported image content type")

type UploadResult struct {
	Key      string
	Location string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// NewObjectKey returns "<prefix>/<uuid><ext>" for an image of the given content type.
func NewObjectKey(prefix, contentType string) (string, error) {
	ext, err := ExtensionFromContentType(contentType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext), nil
}

func ExtensionFromContentType(contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/heic":
		return ".heic", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
}
