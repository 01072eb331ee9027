package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studioapi/internal/metrics"
	"studioapi/internal/model"
	"studioapi/internal/storage"
)

// UploadFile is one file of a multipart upload. Open is called once, inside
// the upload goroutine.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Media defines the media use cases.
type Media interface {
	// Upload stores all files or none of them.
	Upload(ctx context.Context, folder string, files []UploadFile) ([]model.Asset, error)
	// Delete destroys the given assets and reports every failure.
	Delete(ctx context.Context, assets []model.Asset) error
	AssetRemover
}

// MediaService uploads to and destroys from the configured media backend.
type MediaService struct {
	store       storage.Storage
	maxBytes    int64
	concurrency int
	folders     []string
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewMediaService constructs a MediaService. Uploads run at most concurrency
// at a time and each file may be at most maxBytes.
func NewMediaService(store storage.Storage, maxBytes int64, concurrency int, m *metrics.Metrics, logger *zap.Logger) *MediaService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{
		store:       store,
		maxBytes:    maxBytes,
		concurrency: concurrency,
		folders:     model.MediaFolders(),
		metrics:     m,
		logger:      logger,
	}
}

func (s *MediaService) Upload(ctx context.Context, folder string, files []UploadFile) ([]model.Asset, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if !slices.Contains(s.folders, folder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
	}
	for _, f := range files {
		if s.maxBytes > 0 && f.Size > s.maxBytes {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
		if f.Open == nil {
			return nil, fmt.Errorf("upload %s: file is not readable", f.Name)
		}
	}

	assets := make([]model.Asset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range files {
		g.Go(func() error {
			a, err := s.uploadOne(gctx, folder, f)
			s.metrics.MediaUpload(s.store.Driver(), err)
			if err != nil {
				return err
			}
			assets[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []model.Asset
		for _, a := range assets {
			if !a.IsZero() {
				uploaded = append(uploaded, a)
			}
		}
		if len(uploaded) > 0 {
			s.logger.Warn("upload_rollback", zap.Int("files", len(uploaded)), zap.Error(err))
			s.Remove(context.WithoutCancel(ctx), uploaded...)
		}
		return nil, err
	}
	return assets, nil
}

func (s *MediaService) uploadOne(ctx context.Context, folder string, f UploadFile) (model.Asset, error) {
	rc, err := f.Open()
	if err != nil {
		return model.Asset{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 512)
	contentType, err := detectContentType(f.ContentType, br)
	if err != nil {
		return model.Asset{}, fmt.Errorf("read %s: %w", f.Name, err)
	}
	resourceType := storage.ResourceTypeFor(contentType)
	if resourceType == storage.ResourceRaw {
		return model.Asset{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedMedia, f.Name, contentType)
	}

	key := folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(f.Name))
	info, err := s.store.Put(ctx, key, br, storage.PutObjectOptions{
		Size:         f.Size,
		ContentType:  contentType,
		ResourceType: resourceType,
		Metadata:     map[string]string{"original-filename": f.Name},
	})
	if err != nil {
		return model.Asset{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	s.logger.Info("media_uploaded",
		zap.String("driver", s.store.Driver()),
		zap.String("public_id", info.Key),
		zap.Int64("bytes", info.Size),
	)
	return model.Asset{
		URL:          info.URL,
		PublicID:     info.Key,
		ResourceType: resourceType,
		Format:       info.Format,
		Width:        info.Width,
		Height:       info.Height,
		Bytes:        info.Size,
	}, nil
}

// detectContentType trusts a specific declared type and sniffs otherwise.
func detectContentType(declared string, br *bufio.Reader) (string, error) {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	return http.DetectContentType(head), nil
}

// Remove destroys assets, logging failures. It implements AssetRemover.
func (s *MediaService) Remove(ctx context.Context, assets ...model.Asset) {
	_ = s.destroy(ctx, assets)
}

func (s *MediaService) Delete(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return ErrNoFiles
	}
	return s.destroy(ctx, assets)
}

func (s *MediaService) destroy(ctx context.Context, assets []model.Asset) error {
	errs := make([]error, len(assets))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, a := range assets {
		if a.PublicID == "" {
			continue
		}
		g.Go(func() error {
			err := s.store.Delete(ctx, storage.ObjectRef{Key: a.PublicID, ResourceType: a.ResourceType})
			s.metrics.MediaDelete(s.store.Driver(), err)
			if err != nil {
				s.logger.Warn("media_delete_failed", zap.String("public_id", a.PublicID), zap.Error(err))
				errs[i] = fmt.Errorf("delete %s: %w", a.PublicID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
