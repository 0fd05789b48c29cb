package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/clipstash/clipstash/internal/cache"
	"github.com/clipstash/clipstash/internal/config"
	"github.com/clipstash/clipstash/internal/database"
	"github.com/clipstash/clipstash/internal/filestorage"
	"github.com/clipstash/clipstash/internal/prober"
	"github.com/clipstash/clipstash/internal/queue"
	"github.com/clipstash/clipstash/internal/usecase"
)

// Service is the application surface the handlers talk to.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	RequestUpload(context.Context, usecase.RequestUploadOption) (usecase.UploadTarget, error)

	GetAssetByID(context.Context, uuid.UUID) (usecase.Asset, error)
	SearchAssets(context.Context, usecase.ListAssetsOption) ([]usecase.Asset, int, error)
	UpdateAsset(context.Context, uuid.UUID, usecase.UpdateAssetOption) (usecase.Asset, error)
	DeleteAsset(context.Context, uuid.UUID) error
	DownloadAsset(context.Context, uuid.UUID) (usecase.Download, error)
	GetThumbnail(context.Context, uuid.UUID) (io.ReadCloser, int64, error)

	ProcessAsset(context.Context, uuid.UUID) error
	EnqueueProcessAsset(context.Context, uuid.UUID) error

	PopularTags(context.Context, usecase.ListPopularTagsOption) ([]usecase.TagCount, error)

	CreateCollection(context.Context, usecase.Collection, uuid.UUIDs) (usecase.Collection, error)
	GetCollectionByID(context.Context, uuid.UUID) (usecase.Collection, error)
	AddCollectionAssets(context.Context, uuid.UUID, uuid.UUIDs) error
	ExportCollection(context.Context, uuid.UUID, io.Writer) error

	StreamAssetEvents(context.Context) (<-chan usecase.AssetEvent, error)
}

type Server struct {
	port int

	server    Service
	validator *validator.Validate
}

// NewServer assembles the API process: repository with a dedicated LISTEN
// connection for the event stream, object store, prober, queue client and
// tag cache, all behind the usecase.
func NewServer(app *App) *http.Server {
	v := validator.New()

	port, _ := strconv.Atoi(os.Getenv(config.ENV_KEY_PORT))
	s := &Server{
		port:      port,
		server:    app.Usecase,
		validator: v,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(app.Logger),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		// Downloads and archive exports stream for as long as the client
		// reads; no server-side write deadline.
		WriteTimeout: 0,
	}
}

// App bundles the wired dependencies so main can close them on shutdown.
type App struct {
	Usecase usecase.Usecase
	Logger  *slog.Logger

	repo        interface{ Close() error }
	queueClient *queue.Client
	tagCache    *cache.TagCache
}

// NewApp wires the dependency graph for the API process.
func NewApp(ctx context.Context, logger *slog.Logger) (*App, error) {
	gormDB, err := database.Open(logger)
	if err != nil {
		return nil, err
	}

	// Dedicated connection for LISTEN; gorm's pool multiplexes and cannot
	// hold a session open for notifications.
	eventConn, err := pgx.Connect(ctx, database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect event listener: %w", err)
	}

	repo, err := database.New(gormDB, eventConn)
	if err != nil {
		return nil, err
	}

	fsp, err := filestorage.NewMinIOStorage(
		os.Getenv(config.ENV_KEY_MINIO_ENDPOINT),
		os.Getenv(config.ENV_KEY_MINIO_ACCESS_KEY),
		os.Getenv(config.ENV_KEY_MINIO_SECRET_KEY),
		os.Getenv(config.ENV_KEY_MINIO_BUCKET),
		os.Getenv(config.ENV_KEY_MINIO_SECURE) == "true",
	)
	if err != nil {
		repo.Close()
		return nil, err
	}

	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
	redisPassword := os.Getenv(config.ENV_KEY_REDIS_PASSWORD)

	qc := queue.NewClient(redisAddr, redisPassword)
	tc := cache.NewTagCache(redisAddr, redisPassword)

	uc := usecase.New(repo, fsp, prober.New(), qc, tc, os.Getenv(config.ENV_KEY_WORK_DIR))

	return &App{
		Usecase:     uc,
		Logger:      logger,
		repo:        repo,
		queueClient: qc,
		tagCache:    tc,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(
		a.queueClient.Close(),
		a.tagCache.Close(),
		a.repo.Close(),
	)
}
