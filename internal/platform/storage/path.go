// Package storage uploads product images to Cloud Storage or a local
// directory and returns their public URLs.
package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const productPrefix = "products"

var (
	ErrInvalidFileName  = errors.New("storage: file name has no extension")
	ErrUnsupportedImage = errors.New("storage: unsupported image type")
)

var imageTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"avif": "image/avif",
}

// ProductObjectPath returns products/<ulid>.<ext> for the uploaded file name
// together with the content type implied by its extension.
func ProductObjectPath(fileName string, now time.Time, entropy io.Reader) (string, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(strings.TrimSpace(fileName)), "."))
	if ext == "" {
		return "", "", ErrInvalidFileName
	}
	contentType, ok := imageTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: .%s", ErrUnsupportedImage, ext)
	}
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", "", fmt.Errorf("storage: generate object id: %w", err)
	}
	return fmt.Sprintf("%s/%s.%s", productPrefix, strings.ToLower(id.String()), ext), contentType, nil
}
