package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
)

type ContentRepository struct {
	mu    sync.RWMutex
	items map[domain.ContentKind]map[string]domain.ContentItem
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{items: make(map[domain.ContentKind]map[string]domain.ContentItem)}
}

func (r *ContentRepository) List(_ context.Context, kind domain.ContentKind) ([]domain.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ContentItem, 0, len(r.items[kind]))
	for _, item := range r.items[kind] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ContentRepository) Get(_ context.Context, kind domain.ContentKind, id string) (*domain.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if item, ok := r.items[kind][id]; ok {
		return &item, nil
	}
	return nil, nil
}

func (r *ContentRepository) Create(_ context.Context, item *domain.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.items[item.Kind]
	if !ok {
		bucket = make(map[string]domain.ContentItem)
		r.items[item.Kind] = bucket
	}
	if _, exists := bucket[item.ID]; exists {
		return repo.ErrDuplicate
	}
	bucket[item.ID] = *item
	return nil
}

func (r *ContentRepository) Update(_ context.Context, item *domain.ContentItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.Kind][item.ID]
	if !ok {
		return false, nil
	}
	updated := *item
	updated.CreatedAt = existing.CreatedAt
	r.items[item.Kind][item.ID] = updated
	return true, nil
}

func (r *ContentRepository) Delete(_ context.Context, kind domain.ContentKind, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[kind][id]; !ok {
		return false, nil
	}
	delete(r.items[kind], id)
	return true, nil
}
