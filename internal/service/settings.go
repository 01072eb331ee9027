package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"studioapi/internal/model"
	"studioapi/internal/repository"
	"studioapi/internal/revalidate"
)

// Settings defines the site settings use cases.
type Settings interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, s *model.Settings) (*model.Settings, error)
}

// SettingsService stores the single site settings record.
type SettingsService struct {
	repo     repository.Repository[model.Settings]
	media    AssetRemover
	notifier revalidate.Notifier
	clock    clockwork.Clock
	defaults model.Settings
	logger   *zap.Logger
}

// NewSettingsService constructs a SettingsService. defaults is returned by
// Get until the first Update.
func NewSettingsService(repo repository.Repository[model.Settings], defaults model.Settings, opts ...Option) *SettingsService {
	o := options{notifier: revalidate.Noop{}, logger: zap.NewNop(), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	defaults.ID = model.SettingsID
	return &SettingsService{
		repo:     repo,
		media:    o.media,
		notifier: o.notifier,
		clock:    o.clock,
		defaults: defaults,
		logger:   o.logger,
	}
}

func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	cur, err := s.repo.FindByID(ctx, model.SettingsID)
	if errors.Is(err, repository.ErrNotFound) {
		d := s.defaults
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return cur, nil
}

// Update upserts the settings record.
func (s *SettingsService) Update(ctx context.Context, next *model.Settings) (*model.Settings, error) {
	if err := next.Validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	next.ID = model.SettingsID
	next.UpdatedAt = now

	cur, err := s.repo.FindByID(ctx, model.SettingsID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		next.CreatedAt = now
		saved, err := s.repo.Create(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("create settings: %w", err)
		}
		s.notifier.Notify(ctx, model.KindSettings)
		return saved, nil
	case err != nil:
		return nil, fmt.Errorf("get settings: %w", err)
	}

	next.CreatedAt = cur.CreatedAt
	saved, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	s.notifier.Notify(ctx, model.KindSettings)
	if s.media != nil {
		if dropped := droppedAssets(cur.Assets(), next.Assets()); len(dropped) > 0 {
			s.media.Remove(context.WithoutCancel(ctx), dropped...)
		}
	}
	return saved, nil
}
