package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo/memory"
	"github.com/vedx/vedx-site/pkg/cache"
	"github.com/vedx/vedx-site/pkg/events"
)

// countingRepo counts List calls so cache hits are observable.
type countingRepo struct {
	*memory.ContentRepository
	lists atomic.Int32
}

func (r *countingRepo) List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentItem, error) {
	r.lists.Add(1)
	return r.ContentRepository.List(ctx, kind)
}

// stallingRepo holds its first List call after reading, until release is closed.
type stallingRepo struct {
	*memory.ContentRepository
	stall   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (r *stallingRepo) List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentItem, error) {
	items, err := r.ContentRepository.List(ctx, kind)
	if r.stall.CompareAndSwap(true, false) {
		close(r.entered)
		<-r.release
	}
	return items, err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}
func (brokenCache) Delete(context.Context, ...string) error { return errors.New("redis down") }

func newContentFixture() (ContentService, *countingRepo, *events.LocalEventBus) {
	r := &countingRepo{ContentRepository: memory.NewContentRepository()}
	bus := events.NewLocalEventBus()
	svc := NewContentService(r, cache.NewMemoryCache(1024*1024), bus, time.Minute, func() time.Time { return t0 })
	return svc, r, bus
}

func TestContentService_Static(t *testing.T) {
	svc, _, _ := newContentFixture()

	raw, err := svc.Static(context.Background(), "faqs")
	require.NoError(t, err)
	var faqs []map[string]string
	require.NoError(t, json.Unmarshal(raw, &faqs))
	assert.NotEmpty(t, faqs)
	assert.NotEmpty(t, faqs[0]["question"])

	_, err = svc.Static(context.Background(), "pricing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentService_CRUD(t *testing.T) {
	svc, _, _ := newContentFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.KindBlogs, []byte(`{"id":"client-id","title":"Hello Go","content":"body"}`))
	require.NoError(t, err)

	var post domain.BlogPost
	require.NoError(t, json.Unmarshal(created, &post))
	assert.NotEqual(t, "client-id", post.ID)
	assert.Equal(t, "hello-go", post.Slug)
	assert.Equal(t, t0, post.CreatedAt)

	got, err := svc.Get(ctx, domain.KindBlogs, post.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(created), string(got))

	updated, err := svc.Update(ctx, domain.KindBlogs, post.ID, []byte(`{"title":"Hello Again","content":"new"}`))
	require.NoError(t, err)
	var after domain.BlogPost
	require.NoError(t, json.Unmarshal(updated, &after))
	assert.Equal(t, post.ID, after.ID)
	assert.Equal(t, "Hello Again", after.Title)

	list, err := svc.List(ctx, domain.KindBlogs)
	require.NoError(t, err)
	var posts []domain.BlogPost
	require.NoError(t, json.Unmarshal(list, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello Again", posts[0].Title)

	require.NoError(t, svc.Delete(ctx, domain.KindBlogs, post.ID))
	assert.ErrorIs(t, svc.Delete(ctx, domain.KindBlogs, post.ID), domain.ErrNotFound)
	_, err = svc.Get(ctx, domain.KindBlogs, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err = svc.List(ctx, domain.KindBlogs)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(list))
}

func TestContentService_Validation(t *testing.T) {
	svc, _, _ := newContentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindContacts, []byte(`{"name":"A","email":"bad"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, domain.ContentKind("careers"), []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, domain.KindBanners, "missing", []byte(`{"title":"x"}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.List(ctx, domain.ContentKind("careers"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentService_ListIsCachedAndEvictedOnWrite(t *testing.T) {
	svc, r, _ := newContentFixture()
	ctx := context.Background()

	_, err := svc.List(ctx, domain.KindIndustries)
	require.NoError(t, err)
	_, err = svc.List(ctx, domain.KindIndustries)
	require.NoError(t, err)
	assert.Equal(t, int32(1), r.lists.Load())

	_, err = svc.Create(ctx, domain.KindIndustries, []byte(`{"name":"Retail","icon":"CartIcon"}`))
	require.NoError(t, err)

	list, err := svc.List(ctx, domain.KindIndustries)
	require.NoError(t, err)
	assert.Equal(t, int32(2), r.lists.Load())
	assert.Contains(t, string(list), `"icon":"cart"`)
}

func TestContentService_HandleChangeEvicts(t *testing.T) {
	svc, r, bus := newContentFixture()
	ctx := context.Background()
	require.NoError(t, bus.Subscribe(events.ContentChanged, svc.HandleChange))

	_, err := svc.List(ctx, domain.KindServices)
	require.NoError(t, err)

	// Another instance wrote directly to the shared store.
	require.NoError(t, r.ContentRepository.Create(ctx, &domain.ContentItem{ID: "x", Kind: domain.KindServices, Data: []byte(`{"id":"x","title":"Cloud"}`), CreatedAt: t0}))
	require.NoError(t, bus.Publish(ctx, events.ContentChanged, events.ContentChangedEvent{Kind: "services", ID: "x", Action: ActionCreate}))

	list, err := svc.List(ctx, domain.KindServices)
	require.NoError(t, err)
	assert.Contains(t, string(list), `"Cloud"`)

	svc.HandleChange(&events.Message{Data: []byte("not json")})
}

func TestContentService_CacheFailureFallsBack(t *testing.T) {
	r := memory.NewContentRepository()
	svc := NewContentService(r, brokenCache{}, nil, time.Minute, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.KindBanners, []byte(`{"title":"Launch"}`))
	require.NoError(t, err)

	list, err := svc.List(ctx, domain.KindBanners)
	require.NoError(t, err)
	assert.Contains(t, string(list), "Launch")

	raw, err := svc.Static(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}

func TestContentService_ConcurrentStatic(t *testing.T) {
	svc, _, _ := newContentFixture()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := svc.Static(context.Background(), "metrics")
			assert.NoError(t, err)
			assert.True(t, json.Valid(raw))
		}()
	}
	wg.Wait()
}

func TestContentService_WriteDuringFillIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	r := &stallingRepo{
		ContentRepository: memory.NewContentRepository(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	r.stall.Store(true)
	svc := NewContentService(r, cache.NewMemoryCache(1024*1024), nil, time.Minute, func() time.Time { return t0 })

	done := make(chan json.RawMessage)
	go func() {
		raw, _ := svc.List(ctx, domain.KindBlogs)
		done <- raw
	}()

	<-r.entered
	_, err := svc.Create(ctx, domain.KindBlogs, []byte(`{"title":"Fresh","content":"body"}`))
	require.NoError(t, err)
	close(r.release)
	assert.JSONEq(t, `[]`, string(<-done), "the in-flight read saw the old listing")

	raw, err := svc.List(ctx, domain.KindBlogs)
	require.NoError(t, err)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &items))
	assert.Len(t, items, 1, "the old listing was not cached")
}
