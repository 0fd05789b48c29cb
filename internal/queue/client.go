package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client *asynq.Client
}

// NewClient creates a new queue client
func NewClient(redisAddr string, redisPassword string) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	return &Client{
		client: client,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueTask enqueues a task by type; the payload is the task's own
// JSON-encoded parameters.
func (c *Client) EnqueueTask(ctx context.Context, taskType string, payload []byte) error {
	task := asynq.NewTask(taskType, payload)

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	slog.InfoContext(ctx, "enqueued task", "task_id", info.ID, "type", taskType, "queue", info.Queue)
	return nil
}
