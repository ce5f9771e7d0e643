package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vedx/vedx-site/internal/content"
	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
	"github.com/vedx/vedx-site/pkg/cache"
	"github.com/vedx/vedx-site/pkg/events"
	"github.com/vedx/vedx-site/pkg/logger"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type ContentService interface {
	// Static returns one embedded marketing section as raw JSON.
	Static(ctx context.Context, section string) (json.RawMessage, error)

	List(ctx context.Context, kind domain.ContentKind) (json.RawMessage, error)
	Get(ctx context.Context, kind domain.ContentKind, id string) (json.RawMessage, error)
	Create(ctx context.Context, kind domain.ContentKind, body []byte) (json.RawMessage, error)
	Update(ctx context.Context, kind domain.ContentKind, id string, body []byte) (json.RawMessage, error)
	Delete(ctx context.Context, kind domain.ContentKind, id string) error

	// HandleChange drops cached listings named by a content.changed event.
	HandleChange(msg *events.Message)
}

type contentService struct {
	contentRepo repo.ContentRepository
	cache       cache.Cache
	eventBus    events.Publisher
	ttl         time.Duration
	now         func() time.Time
	group       singleflight.Group

	// gens counts evictions per cache key. A fill only stores its result if no
	// eviction happened since it started reading.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewContentService(
	contentRepo repo.ContentRepository,
	cache cache.Cache,
	eventBus events.Publisher,
	ttl time.Duration,
	now func() time.Time,
) ContentService {
	if now == nil {
		now = time.Now
	}
	return &contentService{
		contentRepo: contentRepo,
		cache:       cache,
		eventBus:    eventBus,
		ttl:         ttl,
		now:         now,
		gens:        make(map[string]uint64),
	}
}

func staticKey(section string) string { return "static:" + section }

func listKey(kind domain.ContentKind) string { return "list:" + string(kind) }

func (s *contentService) Static(ctx context.Context, section string) (json.RawMessage, error) {
	return s.cached(ctx, staticKey(section), func() ([]byte, error) {
		raw, err := content.Load(section)
		if errors.Is(err, content.ErrUnknownSection) {
			return nil, domain.ErrNotFound
		}
		return raw, err
	})
}

func (s *contentService) List(ctx context.Context, kind domain.ContentKind) (json.RawMessage, error) {
	if _, ok := domain.ParseContentKind(string(kind)); !ok {
		return nil, domain.ErrNotFound
	}
	return s.cached(ctx, listKey(kind), func() ([]byte, error) {
		items, err := s.contentRepo.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}
		parts := make([][]byte, len(items))
		for i, item := range items {
			parts[i] = item.Data
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		buf.Write(bytes.Join(parts, []byte(",")))
		buf.WriteByte(']')
		return buf.Bytes(), nil
	})
}

// cached reads key through the cache. Concurrent misses for one key share a
// single fill. Cache failures degrade to a direct load.
func (s *contentService) cached(ctx context.Context, key string, load func() ([]byte, error)) (json.RawMessage, error) {
	if s.cache != nil {
		v, found, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "Content cache read failed", "key", key, "error", err)
		} else if found {
			return v, nil
		}
	}

	gen := s.generation(key)
	v, err, _ := s.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		raw, err := load()
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, gen, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *contentService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

// store caches raw unless key was evicted after the fill at gen began.
func (s *contentService) store(ctx context.Context, key string, gen uint64, raw []byte) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		logger.DebugContext(ctx, "Dropping stale content fill", "key", key)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		logger.WarnContext(ctx, "Content cache write failed", "key", key, "error", err)
	}
}

func (s *contentService) Get(ctx context.Context, kind domain.ContentKind, id string) (json.RawMessage, error) {
	if _, ok := domain.ParseContentKind(string(kind)); !ok {
		return nil, domain.ErrNotFound
	}
	item, err := s.contentRepo.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item.Data, nil
}

func (s *contentService) Create(ctx context.Context, kind domain.ContentKind, body []byte) (json.RawMessage, error) {
	entity, err := domain.DecodeEntity(kind, body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := uuid.NewString()
	entity.Stamp(id, now, now)
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	item := &domain.ContentItem{ID: id, Kind: kind, Data: data, CreatedAt: now, UpdatedAt: now}
	if err := s.contentRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	s.changed(ctx, kind, id, ActionCreate)
	return data, nil
}

func (s *contentService) Update(ctx context.Context, kind domain.ContentKind, id string, body []byte) (json.RawMessage, error) {
	entity, err := domain.DecodeEntity(kind, body)
	if err != nil {
		return nil, err
	}

	existing, err := s.contentRepo.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	now := s.now()
	entity.Stamp(id, existing.CreatedAt, now)
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	ok, err := s.contentRepo.Update(ctx, &domain.ContentItem{ID: id, Kind: kind, Data: data, CreatedAt: existing.CreatedAt, UpdatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	s.changed(ctx, kind, id, ActionUpdate)
	return data, nil
}

func (s *contentService) Delete(ctx context.Context, kind domain.ContentKind, id string) error {
	if _, ok := domain.ParseContentKind(string(kind)); !ok {
		return domain.ErrNotFound
	}
	ok, err := s.contentRepo.Delete(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	s.changed(ctx, kind, id, ActionDelete)
	return nil
}

// changed evicts the local listing and tells other instances to do the same.
func (s *contentService) changed(ctx context.Context, kind domain.ContentKind, id, action string) {
	s.evict(ctx, kind)
	logger.InfoContext(ctx, "Content changed", "kind", kind, "id", id, "action", action)

	if s.eventBus == nil {
		return
	}
	ev := events.ContentChangedEvent{Kind: string(kind), ID: id, Action: action, At: s.now()}
	if err := s.eventBus.Publish(ctx, events.ContentChanged, ev); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", events.ContentChanged, "error", err)
	}
}

func (s *contentService) evict(ctx context.Context, kind domain.ContentKind) {
	key := listKey(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.WarnContext(ctx, "Content cache evict failed", "kind", kind, "error", err)
	}
}

func (s *contentService) HandleChange(msg *events.Message) {
	var ev events.ContentChangedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Warn("Ignoring malformed content event", "error", err)
		return
	}
	kind, ok := domain.ParseContentKind(ev.Kind)
	if !ok {
		return
	}
	s.evict(context.Background(), kind)
}
