package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var objectPattern = regexp.MustCompile(`^products/[0-9a-z]{26}\.(png|jpg)$`)

func TestProductObjectPath(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	object, contentType, err := ProductObjectPath("Table Olivier.PNG", now, bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	require.Regexp(t, objectPattern, object)
	require.Equal(t, "image/png", contentType)

	_, _, err = ProductObjectPath("noext", now, bytes.NewReader(make([]byte, 16)))
	require.ErrorIs(t, err, ErrInvalidFileName)

	_, _, err = ProductObjectPath("script.exe", now, bytes.NewReader(make([]byte, 16)))
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestLocalUploaderWritesFile(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads/")
	require.NoError(t, err)

	res, err := u.UploadProductImage(context.Background(), Upload{FileName: "bol.jpg", Body: strings.NewReader("jpeg-bytes")})
	require.NoError(t, err)
	require.Regexp(t, objectPattern, res.Object)
	require.Equal(t, "/uploads/"+res.Object, res.PublicURL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Object)))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalUploaderEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads", WithMaxBytes(4))
	require.NoError(t, err)

	_, err = u.UploadProductImage(context.Background(), Upload{FileName: "bol.png", Body: strings.NewReader("too large")})
	require.True(t, errors.Is(err, ErrTooLarge), "got %v", err)

	entries, err := os.ReadDir(filepath.Join(dir, "products"))
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = u.UploadProductImage(context.Background(), Upload{FileName: "ok.png", Body: strings.NewReader("four")})
	require.NoError(t, err)
}

func TestPublicURLEscapesSegments(t *testing.T) {
	require.Equal(t,
		"https://storage.googleapis.com/product-images/products/a%20b.png",
		publicURL("https://storage.googleapis.com", "product-images", "products/a b.png"))
}
