package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

func New(
	repo Repository,
	fsp FileStorageProvider,
	prober MediaProber,
	qc QueueClient,
	tc TagCache,
	workDir string,
) Usecase {
	return Usecase{
		repo:                repo,
		fileStorageProvider: fsp,
		prober:              prober,
		queueClient:         qc,
		tagCache:            tc,
		workDir:             workDir,
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	CreateAsset(context.Context, Asset) (Asset, error)
	GetAssetByID(context.Context, uuid.UUID) (Asset, error)
	ListAssets(context.Context, ListAssetsOption) ([]Asset, int, error)
	UpdateAsset(context.Context, uuid.UUID, AssetUpdate) (Asset, error)
	DeleteAsset(context.Context, uuid.UUID) error
	IncrementDownloadCount(context.Context, uuid.UUID) error

	CreateCollection(context.Context, Collection) (Collection, error)
	GetCollectionByID(context.Context, uuid.UUID) (Collection, error)
	AddCollectionAssets(context.Context, uuid.UUID, uuid.UUIDs) error
	ListCollectionAssets(context.Context, uuid.UUID) ([]Asset, error)

	ListPopularTags(context.Context, ListPopularTagsOption) ([]TagCount, error)
	SyncTagUsage(context.Context) error

	PublishAssetEvent(context.Context, AssetEvent) error
	SubscribeAssetEvents(context.Context, chan<- AssetEvent) error
	UnsubscribeAssetEvents(context.Context, chan<- AssetEvent) error
}

// FileStorageProvider is the narrow object store surface: blob CRUD plus
// time-limited capability URLs for direct client transfer.
type FileStorageProvider interface {
	GetUploadURL(ctx context.Context, key string, expire time.Duration) (string, error)
	GetDownloadURL(ctx context.Context, key string, expire time.Duration) (string, error)
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error)
	RemoveObjects(ctx context.Context, keys []string) error
}

// ProbeResult carries the technical metadata of one local media file.
// Duration and dimensions are absent for formats that don't report them
// (plain images probed as single-frame inputs still report dimensions).
type ProbeResult struct {
	DurationSeconds *float64
	Width           *int
	Height          *int
	FileSizeBytes   int64
}

// MediaProber abstracts the external media tool. Implementations may shell
// out, bind a library, or call a remote service; the pipeline depends only
// on these two operations.
type MediaProber interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
	// ExtractFrame renders a single frame at atSeconds, scaled to
	// scaleWidth (height proportional), and returns the local path of the
	// encoded JPEG.
	ExtractFrame(ctx context.Context, path string, atSeconds float64, scaleWidth int) (string, error)
}

type QueueClient interface {
	EnqueueTask(ctx context.Context, taskType string, payload []byte) error
}

// TagCache is the read-through cache in front of the popular-tag counters.
type TagCache interface {
	GetPopularTags(ctx context.Context, category string, limit int) ([]TagCount, bool)
	SetPopularTags(ctx context.Context, category string, limit int, tags []TagCount)
	Invalidate(ctx context.Context)
}

type Usecase struct {
	repo                Repository
	fileStorageProvider FileStorageProvider
	prober              MediaProber
	queueClient         QueueClient
	tagCache            TagCache
	workDir             string
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}
