package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"studioapi/internal/cache"
	"studioapi/internal/metrics"
	"studioapi/internal/model"
	"studioapi/internal/repository"
	"studioapi/internal/revalidate"
	"studioapi/internal/theme"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams are the caller-facing list options.
type ListParams struct {
	Limit  int
	Offset int
	Sort   string
	Filter map[string]string
}

// ListResult is the service-level DTO for paginated content.
type ListResult[T any] struct {
	Items  []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Content defines the use cases shared by every content kind.
type Content[T any] interface {
	Kind() string
	List(ctx context.Context, p ListParams) (*ListResult[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) (*T, error)
	// Update replaces the record but keeps its id and created_at.
	Update(ctx context.Context, id string, item *T) (*T, error)
	// Patch merges a JSON object onto the stored record.
	Patch(ctx context.Context, id string, patch []byte) (*T, error)
	Delete(ctx context.Context, id string) error
	// Prune deletes the oldest records beyond the retention limit.
	Prune(ctx context.Context) (int, error)
}

// AssetRemover destroys media files that are no longer referenced.
// Failures are the remover's to log; callers never fail on them.
type AssetRemover interface {
	Remove(ctx context.Context, assets ...model.Asset)
}

// SaveHook runs after validation and before a record is written. prev is the
// stored record, nil on create.
type SaveHook[T any] func(ctx context.Context, prev, next *T) error

type options struct {
	retain   int
	cache    cache.Cache
	cacheTTL time.Duration
	notifier revalidate.Notifier
	media    AssetRemover
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    clockwork.Clock
	filters  []string
	newID    func() string
}

// Option configures a ContentService.
type Option func(*options)

// WithRetention keeps at most n records; zero disables pruning.
func WithRetention(n int) Option { return func(o *options) { o.retain = n } }

// WithCache caches list and item reads for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) { o.cache, o.cacheTTL = c, ttl }
}

func WithNotifier(n revalidate.Notifier) Option { return func(o *options) { o.notifier = n } }

func WithMedia(m AssetRemover) Option { return func(o *options) { o.media = m } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithFilters whitelists the equality filters List accepts.
func WithFilters(keys ...string) Option { return func(o *options) { o.filters = keys } }

// WithIDGenerator overrides uuid ids, mostly for tests.
func WithIDGenerator(fn func() string) Option { return func(o *options) { o.newID = fn } }

// ContentService implements Content for one kind on a generic repository.
type ContentService[T any, PT model.Entity[T]] struct {
	kind    string
	repo    repository.Repository[T]
	opts    options
	filters map[string]struct{}
	hooks   []SaveHook[T]
	log     *zap.Logger
}

// NewContentService constructs the service for kind.
func NewContentService[T any, PT model.Entity[T]](kind string, repo repository.Repository[T], opts ...Option) *ContentService[T, PT] {
	o := options{
		notifier: revalidate.Noop{},
		logger:   zap.NewNop(),
		clock:    clockwork.NewRealClock(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	filters := make(map[string]struct{}, len(o.filters))
	for _, k := range o.filters {
		filters[k] = struct{}{}
	}
	return &ContentService[T, PT]{
		kind:    kind,
		repo:    repo,
		opts:    o,
		filters: filters,
		log:     o.logger.With(zap.String("kind", kind)),
	}
}

// OnSave registers a hook run on create, update and patch.
func (s *ContentService[T, PT]) OnSave(h SaveHook[T]) { s.hooks = append(s.hooks, h) }

func (s *ContentService[T, PT]) Kind() string { return s.kind }

// Retention is the configured record cap.
func (s *ContentService[T, PT]) Retention() int { return s.opts.retain }

func (s *ContentService[T, PT]) List(ctx context.Context, p ListParams) (*ListResult[T], error) {
	pq, err := s.pageQuery(p)
	if err != nil {
		return nil, err
	}

	key := s.listKey(ctx, pq)
	var cached ListResult[T]
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := s.repo.List(ctx, pq)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind, err)
	}
	items := res.Items
	if items == nil {
		items = []T{}
	}
	out := &ListResult[T]{Items: items, Total: res.Total, Limit: pq.Limit, Offset: pq.Offset}
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *ContentService[T, PT]) pageQuery(p ListParams) (repository.PageQuery, error) {
	pq := repository.PageQuery{Limit: p.Limit, Offset: p.Offset, Sort: p.Sort}
	if pq.Limit <= 0 {
		pq.Limit = DefaultLimit
	}
	if pq.Limit > MaxLimit {
		pq.Limit = MaxLimit
	}
	if pq.Offset < 0 {
		pq.Offset = 0
	}
	switch pq.Sort {
	case "":
		pq.Sort = repository.SortNewest
	case repository.SortNewest, repository.SortOldest, repository.SortOrder:
	default:
		return pq, fmt.Errorf("%w: %q", ErrInvalidSort, p.Sort)
	}

	for k, v := range p.Filter {
		// "category" is accepted as a convenience for its normalized slug.
		if k == "category" {
			k, v = "category_slug", theme.Normalize(v)
		}
		if _, ok := s.filters[k]; !ok {
			return pq, fmt.Errorf("%w: %q", ErrInvalidFilter, k)
		}
		if pq.Filter == nil {
			pq.Filter = make(map[string]string, len(p.Filter))
		}
		pq.Filter[k] = v
	}
	return pq, nil
}

func (s *ContentService[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	key := s.itemKey(ctx, id)
	var cached T
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrap("get", err)
	}
	s.cacheSet(ctx, key, item)
	return item, nil
}

func (s *ContentService[T, PT]) Create(ctx context.Context, item *T) (*T, error) {
	p := PT(item)
	now := s.opts.clock.Now().UTC()
	meta := p.Meta()
	meta.ID = s.opts.newID()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if err := s.prepare(ctx, nil, item); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	s.opts.metrics.ContentWrite(s.kind, "create")
	s.changed(ctx)

	if s.opts.retain > 0 {
		if _, err := s.prune(ctx, meta.ID); err != nil {
			s.log.Warn("prune_failed", zap.Error(err))
		}
	}
	return created, nil
}

func (s *ContentService[T, PT]) Update(ctx context.Context, id string, item *T) (*T, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrap("update", err)
	}
	return s.replace(ctx, existing, item, "update")
}

func (s *ContentService[T, PT]) Patch(ctx context.Context, id string, patch []byte) (*T, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return nil, ErrInvalidPatch
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrap("patch", err)
	}

	// Round-trip through JSON so the merge never aliases existing slices.
	raw, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", s.kind, err)
	}
	merged := new(T)
	if err := json.Unmarshal(raw, merged); err != nil {
		return nil, fmt.Errorf("patch %s: %w", s.kind, err)
	}
	if err := json.Unmarshal(patch, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return s.replace(ctx, existing, merged, "patch")
}

// replace writes next over existing, keeping identity fields and destroying
// media that next no longer references.
func (s *ContentService[T, PT]) replace(ctx context.Context, existing, next *T, op string) (*T, error) {
	old := PT(existing).Meta()
	meta := PT(next).Meta()
	meta.ID = old.ID
	meta.CreatedAt = old.CreatedAt
	meta.UpdatedAt = s.opts.clock.Now().UTC()

	if err := s.prepare(ctx, existing, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, s.wrap(op, err)
	}
	s.opts.metrics.ContentWrite(s.kind, op)
	s.changed(ctx)
	s.removeAssets(ctx, droppedAssets(PT(existing).Assets(), PT(next).Assets()))
	return updated, nil
}

func (s *ContentService[T, PT]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.wrap("delete", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	s.opts.metrics.ContentWrite(s.kind, "delete")
	s.changed(ctx)
	s.removeAssets(ctx, PT(existing).Assets())
	return nil
}

func (s *ContentService[T, PT]) Prune(ctx context.Context) (int, error) {
	return s.prune(ctx, "")
}

// prune deletes the oldest records past the retention limit, skipping keep.
// Records created in the same instant tie on created_at, so keep may sort
// among the oldest.
func (s *ContentService[T, PT]) prune(ctx context.Context, keep string) (int, error) {
	if s.opts.retain <= 0 {
		return 0, nil
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune %s: count: %w", s.kind, err)
	}
	excess := total - s.opts.retain
	if excess <= 0 {
		return 0, nil
	}

	fetch := excess
	if keep != "" {
		fetch++
	}
	oldest, err := s.repo.Oldest(ctx, fetch)
	if err != nil {
		return 0, fmt.Errorf("prune %s: oldest: %w", s.kind, err)
	}
	victims := make([]T, 0, excess)
	for i := range oldest {
		if len(victims) == excess {
			break
		}
		if PT(&oldest[i]).Meta().ID == keep {
			continue
		}
		victims = append(victims, oldest[i])
	}

	pruned := 0
	var assets []model.Asset
	for i := range victims {
		p := PT(&victims[i])
		if err := s.repo.Delete(ctx, p.Meta().ID); err != nil {
			s.opts.metrics.ContentPruned(s.kind, pruned)
			return pruned, fmt.Errorf("prune %s: delete %s: %w", s.kind, p.Meta().ID, err)
		}
		pruned++
		assets = append(assets, p.Assets()...)
	}

	s.opts.metrics.ContentPruned(s.kind, pruned)
	s.log.Info("content_pruned", zap.Int("count", pruned), zap.Int("retain", s.opts.retain))
	s.changed(ctx)
	s.removeAssets(ctx, assets)
	return pruned, nil
}

// prepare derives fields, validates and runs save hooks.
func (s *ContentService[T, PT]) prepare(ctx context.Context, prev, item *T) error {
	p := PT(item)
	if n, ok := any(p).(model.Normalizer); ok {
		n.Normalize()
	}
	if err := p.Validate(); err != nil {
		return err
	}
	for _, h := range s.hooks {
		if err := h(ctx, prev, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *ContentService[T, PT]) wrap(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, s.kind, err)
}

func (s *ContentService[T, PT]) changed(ctx context.Context) {
	s.invalidate(ctx)
	s.opts.notifier.Notify(ctx, s.kind)
}

func (s *ContentService[T, PT]) removeAssets(ctx context.Context, assets []model.Asset) {
	if s.opts.media == nil || len(assets) == 0 {
		return
	}
	s.opts.media.Remove(context.WithoutCancel(ctx), assets...)
}

// droppedAssets returns the assets in before whose public id is absent from after.
func droppedAssets(before, after []model.Asset) []model.Asset {
	keep := make(map[string]struct{}, len(after))
	for _, a := range after {
		keep[a.PublicID] = struct{}{}
	}
	var out []model.Asset
	for _, a := range before {
		if a.PublicID == "" {
			continue
		}
		if _, ok := keep[a.PublicID]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// filterSignature renders a filter map deterministically for cache keys.
func filterSignature(f map[string]string) string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(f[k])
		b.WriteByte('&')
	}
	return b.String()
}
