// Package storage keeps uploaded recipe images and avatars.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize bounds a decoded upload.
const MaxImageSize = 5 << 20

var ErrInvalidImage = errors.New("invalid image")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

// ImageStore persists images and returns the URL they are served from.
type ImageStore interface {
	Save(ctx context.Context, folder string, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}
	contentType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageSize)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	return &Image{ContentType: contentType, Ext: ext, Data: data}, nil
}

// objectKey names a new object under folder.
func objectKey(folder string, img *Image) string {
	return path.Join(folder, uuid.NewString()+"."+img.Ext)
}

// keyFromURL returns the object key of url relative to base, or "" when url
// was not issued by the store.
func keyFromURL(base, url string) string {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	key := strings.TrimPrefix(url, prefix)
	if strings.Contains(key, "..") {
		return ""
	}
	return key
}
