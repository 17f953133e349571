// Package uploads stores user-supplied files (profile pictures) on local
// disk or in S3 and hands back the public URL and asset key.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for content types outside the allow list.
var ErrUnsupportedType = errors.New("uploads: unsupported content type")

// Object describes a stored file.
type Object struct {
	Key string // backend key; stored as the avatar asset id
	URL string // public URL
}

// Store is a file backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageKey builds a unique key under prefix for an image of the given
// content type, e.g. avatars/2026/10/<uuid>.png.
func ImageKey(prefix, contentType string, now time.Time) (string, error) {
	ext, ok := imageExt[strings.ToLower(contentType)]
	if !ok {
		return "", ErrUnsupportedType
	}
	return path.Join(prefix, fmt.Sprintf("%04d/%02d", now.Year(), now.Month()), uuid.NewString()+ext), nil
}
