package queue

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/clipstash/clipstash/internal/config"
	"github.com/clipstash/clipstash/internal/usecase"
)

// Scheduler enqueues periodic tasks. The hourly tags:sync is a safety net:
// writes already enqueue a sync, so this only repairs counters after missed
// tasks or manual database edits.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: os.Getenv(config.ENV_KEY_REDIS_PASSWORD),
		},
		&asynq.SchedulerOpts{},
	)

	entryID, err := scheduler.Register("@every 1h", asynq.NewTask(usecase.TaskTagsSync, nil))
	if err != nil {
		return nil, fmt.Errorf("register tags sync schedule: %w", err)
	}
	logger.Info("registered periodic task", "entry_id", entryID, "type", usecase.TaskTagsSync)

	return &Scheduler{scheduler: scheduler}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
