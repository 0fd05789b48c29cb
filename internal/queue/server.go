package queue

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/clipstash/clipstash/internal/cache"
	"github.com/clipstash/clipstash/internal/config"
	"github.com/clipstash/clipstash/internal/database"
	"github.com/clipstash/clipstash/internal/filestorage"
	"github.com/clipstash/clipstash/internal/prober"
	"github.com/clipstash/clipstash/internal/queue/handlers"
	"github.com/clipstash/clipstash/internal/usecase"
)

// Worker is the background process consuming queued tasks.
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	repo        interface{ Close() error }
}

// NewWorker builds the worker with its full dependency graph. Workers do
// not enqueue, so the usecase gets a nil queue client; they publish events
// through the repository but never subscribe, so the repository gets no
// LISTEN connection either.
func NewWorker(logger *slog.Logger) (*Worker, error) {
	gormDB, err := database.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo, err := database.New(gormDB, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
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
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}

	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
	redisPassword := os.Getenv(config.ENV_KEY_REDIS_PASSWORD)

	tc := cache.NewTagCache(redisAddr, redisPassword)

	uc := usecase.New(repo, fsp, prober.New(), nil, tc, os.Getenv(config.ENV_KEY_WORK_DIR))

	concurrency := 10
	if wc := os.Getenv(config.ENV_KEY_WORKER_CONCURRENCY); wc != "" {
		if n, err := strconv.Atoi(wc); err == nil && n > 0 {
			concurrency = n
		}
	}

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	h := handlers.NewHandlers(uc)

	mux := asynq.NewServeMux()
	mux.HandleFunc(usecase.TaskAssetProcess, h.HandleAssetProcess)
	mux.HandleFunc(usecase.TaskTagsSync, h.HandleTagsSync)

	return &Worker{
		asynqServer: asynqServer,
		mux:         mux,
		repo:        repo,
	}, nil
}

// Start starts the worker server
func (w *Worker) Start() error {
	slog.Info("worker started")
	return w.asynqServer.Start(w.mux)
}

// Stop stops the worker server gracefully
func (w *Worker) Stop() {
	slog.Info("stopping worker")
	w.asynqServer.Shutdown()
	if err := w.repo.Close(); err != nil {
		slog.Error("closing repository", "error", err)
	}
}
