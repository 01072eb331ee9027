// Package storage contains media storage abstractions: a CDN backend
// (Cloudinary) and an S3-compatible backend (MinIO). Implementations stream
// uploads and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrUnavailable is returned when the backend is failing fast after repeated errors.
var ErrUnavailable = errors.New("media storage unavailable")

const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size         int64
	ContentType  string
	ResourceType string
	Metadata     map[string]string
}

// ObjectInfo describes a stored media object.
type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	ContentType  string
	ResourceType string
	Format       string
	Width        int
	Height       int
}

// ObjectRef identifies an object for deletion. Cloudinary needs the resource
// type to address the right asset namespace.
type ObjectRef struct {
	Key          string
	ResourceType string
}

// Storage is the media storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, ref ObjectRef) error
	// Driver names the backend for logs and metrics.
	Driver() string
}

// ResourceTypeFor maps a MIME type to the media resource type.
func ResourceTypeFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return ResourceImage
	case strings.HasPrefix(contentType, "video/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}
