package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"studioapi/internal/config"
)

// cloudinaryStorage implements Storage on the Cloudinary upload API.
// Object keys become public IDs under the configured root folder.
type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary-backed media store.
func NewCloudinary(cfg config.CloudinaryConfig) (Storage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary cloud name and credentials are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return newCloudinary(cld, cfg.Folder), nil
}

func newCloudinary(cld *cloudinary.Cloudinary, folder string) *cloudinaryStorage {
	return &cloudinaryStorage{cld: cld, folder: strings.Trim(folder, "/")}
}

func (s *cloudinaryStorage) Driver() string { return config.MediaCloudinary }

// publicID drops the file extension (Cloudinary tracks format separately)
// and prefixes the root folder.
func (s *cloudinaryStorage) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

// Put streams the object to Cloudinary.
func (s *cloudinaryStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	resourceType := opt.ResourceType
	if resourceType == "" {
		resourceType = "auto"
	}

	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     s.publicID(key),
		ResourceType: resourceType,
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return ObjectInfo{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return ObjectInfo{
		Key:          res.PublicID,
		URL:          res.SecureURL,
		Size:         int64(res.Bytes),
		ETag:         res.Etag,
		ContentType:  opt.ContentType,
		ResourceType: res.ResourceType,
		Format:       res.Format,
		Width:        res.Width,
		Height:       res.Height,
	}, nil
}

// Delete destroys an asset and invalidates CDN caches. "not found" counts as success.
func (s *cloudinaryStorage) Delete(ctx context.Context, ref ObjectRef) error {
	if ref.Key == "" {
		return errors.New("cloudinary destroy: public id is required")
	}
	resourceType := ref.ResourceType
	if resourceType == "" {
		resourceType = ResourceImage
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     ref.Key,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy: unexpected result %q", res.Result)
	}
}
