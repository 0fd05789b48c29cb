package usecase_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipstash/clipstash/internal/usecase"
)

// fakeRepo is a map-backed Repository.
type fakeRepo struct {
	mu          sync.Mutex
	assets      map[uuid.UUID]usecase.Asset
	collections map[uuid.UUID]usecase.Collection
	members     map[uuid.UUID][]uuid.UUID
	tagCounts   []usecase.TagCount
	events      []usecase.AssetEvent
	syncCalls   int

	listErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assets:      make(map[uuid.UUID]usecase.Asset),
		collections: make(map[uuid.UUID]usecase.Collection),
		members:     make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (r *fakeRepo) Close() error              { return nil }

func (r *fakeRepo) CreateAsset(_ context.Context, a usecase.Asset) (usecase.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.assets[a.ID] = a
	return a, nil
}

func (r *fakeRepo) GetAssetByID(_ context.Context, id uuid.UUID) (usecase.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return usecase.Asset{}, &usecase.NotFoundError{Resource: "asset"}
	}
	return a, nil
}

func (r *fakeRepo) ListAssets(_ context.Context, _ usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []usecase.Asset
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (r *fakeRepo) UpdateAsset(_ context.Context, id uuid.UUID, up usecase.AssetUpdate) (usecase.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return usecase.Asset{}, &usecase.NotFoundError{Resource: "asset"}
	}
	if up.Title != nil {
		a.Title = *up.Title
	}
	if up.Description != nil {
		a.Description = *up.Description
	}
	if up.Tags != nil {
		a.Tags = *up.Tags
	}
	if up.TagQuality != nil {
		a.TagQualityScore = *up.TagQuality
	}
	if up.ThumbnailPath != nil {
		a.ThumbnailPath = *up.ThumbnailPath
	}
	if up.DurationSeconds != nil {
		a.DurationSeconds = up.DurationSeconds
	}
	if up.Width != nil {
		a.Width = up.Width
	}
	if up.Height != nil {
		a.Height = up.Height
	}
	if up.FileSizeBytes != nil {
		a.FileSizeBytes = up.FileSizeBytes
	}
	if up.Colors != nil {
		a.Colors = up.Colors
	}
	a.UpdatedAt = time.Now()
	r.assets[id] = a
	return a, nil
}

func (r *fakeRepo) DeleteAsset(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; !ok {
		return &usecase.NotFoundError{Resource: "asset"}
	}
	delete(r.assets, id)
	return nil
}

func (r *fakeRepo) IncrementDownloadCount(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return &usecase.NotFoundError{Resource: "asset"}
	}
	a.DownloadCount++
	r.assets[id] = a
	return nil
}

func (r *fakeRepo) CreateCollection(_ context.Context, c usecase.Collection) (usecase.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.collections[c.ID] = c
	return c, nil
}

func (r *fakeRepo) GetCollectionByID(_ context.Context, id uuid.UUID) (usecase.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collections[id]
	if !ok {
		return usecase.Collection{}, &usecase.NotFoundError{Resource: "collection"}
	}
	c.AssetCount = len(r.members[id])
	return c, nil
}

func (r *fakeRepo) AddCollectionAssets(_ context.Context, id uuid.UUID, assetIDs uuid.UUIDs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = append(r.members[id], assetIDs...)
	return nil
}

func (r *fakeRepo) ListCollectionAssets(_ context.Context, id uuid.UUID) ([]usecase.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []usecase.Asset
	for _, aid := range r.members[id] {
		if a, ok := r.assets[aid]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPopularTags(_ context.Context, _ usecase.ListPopularTagsOption) ([]usecase.TagCount, error) {
	return r.tagCounts, nil
}

func (r *fakeRepo) SyncTagUsage(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncCalls++
	return nil
}

func (r *fakeRepo) PublishAssetEvent(_ context.Context, ev usecase.AssetEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) SubscribeAssetEvents(context.Context, chan<- usecase.AssetEvent) error   { return nil }
func (r *fakeRepo) UnsubscribeAssetEvents(context.Context, chan<- usecase.AssetEvent) error { return nil }

// fakeStorage keeps blobs in memory.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	getErrFor map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:   make(map[string][]byte),
		getErrFor: make(map[string]error),
	}
}

func (f *fakeStorage) GetUploadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.test/upload/" + key, nil
}

func (f *fakeStorage) GetDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.test/get/" + key, nil
}

func (f *fakeStorage) PutObject(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) GetObject(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErrFor[key]; err != nil {
		return nil, 0, err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, 0, &usecase.NotFoundError{Resource: "object"}
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeStorage) RemoveObjects(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.objects, k)
	}
	return nil
}

// fakeProber reports fixed metadata and renders a real JPEG so the palette
// step has something to decode.
type fakeProber struct {
	duration *float64
	width    int
	height   int

	probeErr   error
	extractErr error

	extractedAt []float64
}

func (p *fakeProber) Probe(_ context.Context, path string) (usecase.ProbeResult, error) {
	if p.probeErr != nil {
		return usecase.ProbeResult{}, p.probeErr
	}
	info, err := os.Stat(path)
	if err != nil {
		return usecase.ProbeResult{}, err
	}
	w, h := p.width, p.height
	return usecase.ProbeResult{
		DurationSeconds: p.duration,
		Width:           &w,
		Height:          &h,
		FileSizeBytes:   info.Size(),
	}, nil
}

func (p *fakeProber) ExtractFrame(_ context.Context, path string, atSeconds float64, scaleWidth int) (string, error) {
	if p.extractErr != nil {
		return "", p.extractErr
	}
	p.extractedAt = append(p.extractedAt, atSeconds)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	out := filepath.Join(filepath.Dir(path), "thumbnail.jpg")
	fh, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	if err := jpeg.Encode(fh, img, nil); err != nil {
		return "", err
	}
	return out, nil
}

type enqueued struct {
	taskType string
	payload  []byte
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []enqueued
	err   error
}

func (q *fakeQueue) EnqueueTask(_ context.Context, taskType string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, enqueued{taskType: taskType, payload: payload})
	return nil
}

type fakeTagCache struct {
	mu          sync.Mutex
	entries     map[string][]usecase.TagCount
	hits        int
	misses      int
	invalidated int
}

func newFakeTagCache() *fakeTagCache {
	return &fakeTagCache{entries: make(map[string][]usecase.TagCount)}
}

func (c *fakeTagCache) key(category string, limit int) string {
	return fmt.Sprintf("%s:%d", category, limit)
}

func (c *fakeTagCache) GetPopularTags(_ context.Context, category string, limit int) ([]usecase.TagCount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tags, ok := c.entries[c.key(category, limit)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return tags, ok
}

func (c *fakeTagCache) SetPopularTags(_ context.Context, category string, limit int, tags []usecase.TagCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(category, limit)] = tags
}

func (c *fakeTagCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]usecase.TagCount)
	c.invalidated++
}
