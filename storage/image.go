package storage

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"stuti/apperr"
)

// Image is an uploaded file on its way to the image store.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists images and hands back the public URL they are served from.
type ImageStore interface {
	Upload(ctx context.Context, dir string, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Validate rejects empty files, files over maxBytes and anything that is not
// a supported image extension.
func Validate(img *Image, maxBytes int64) error {
	if img == nil || img.Size <= 0 {
		return apperr.New(apperr.EmptyFile)
	}
	if !slices.Contains(allowedExtensions, Ext(img.Filename)) {
		return apperr.Newf(apperr.UnsupportedExtension, "%q", img.Filename)
	}
	if maxBytes > 0 && img.Size > maxBytes {
		return apperr.New(apperr.OverMaxSize)
	}
	return nil
}
