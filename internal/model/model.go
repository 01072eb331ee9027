package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Base carries the identity and audit fields shared by every stored entity.
// It is embedded (inlined) in each entity so both JSON and BSON flatten it.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Meta exposes the embedded Base so generic code can stamp ids and times.
func (b *Base) Meta() *Base { return b }

// Entity is implemented by pointers to every persisted content type.
type Entity[T any] interface {
	*T
	Meta() *Base
	Validate() error
	Assets() []Asset
}

// Asset is a media file held by the media store (Cloudinary or S3).
type Asset struct {
	URL          string `json:"url" bson:"url"`
	PublicID     string `json:"public_id" bson:"public_id"`
	ResourceType string `json:"resource_type,omitempty" bson:"resource_type,omitempty"`
	Format       string `json:"format,omitempty" bson:"format,omitempty"`
	Width        int    `json:"width,omitempty" bson:"width,omitempty"`
	Height       int    `json:"height,omitempty" bson:"height,omitempty"`
	Bytes        int64  `json:"bytes,omitempty" bson:"bytes,omitempty"`
}

// IsZero reports whether no media is attached.
func (a Asset) IsZero() bool { return a.URL == "" && a.PublicID == "" }

const (
	ResourceImage = "image"
	ResourceVideo = "video"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func requireAsset(field string, a Asset) error {
	if a.IsZero() {
		return invalid(field, "is required")
	}
	return checkAsset(field, a)
}

func checkAsset(field string, a Asset) error {
	if a.IsZero() {
		return nil
	}
	if a.URL == "" {
		return invalid(field+".url", "is required")
	}
	if a.PublicID == "" {
		return invalid(field+".public_id", "is required")
	}
	switch a.ResourceType {
	case "", ResourceImage, ResourceVideo:
	default:
		return invalid(field+".resource_type", "must be image or video")
	}
	return nil
}

// checkLink accepts absolute http(s) URLs, site-relative paths, mailto: and tel: links.
func checkLink(field, v string) error {
	if err := required(field, v); err != nil {
		return err
	}
	if strings.HasPrefix(v, "/") {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil {
		return invalid(field, "must be a valid URL")
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return invalid(field, "must be a valid URL")
		}
		return nil
	case "mailto", "tel":
		if u.Opaque == "" {
			return invalid(field, "must be a valid URL")
		}
		return nil
	}
	return invalid(field, "must be an http(s) URL or a site path")
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// collect gathers the non-empty assets.
func collect(assets ...Asset) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if !a.IsZero() {
			out = append(out, a)
		}
	}
	return out
}
