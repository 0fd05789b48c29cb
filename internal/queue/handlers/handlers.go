// Package handlers holds the queue task handlers. Each handler is a thin
// wrapper that decodes the payload and delegates to a usecase method.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Handlers struct {
	usecase usecase.Usecase
}

func NewHandlers(uc usecase.Usecase) *Handlers {
	return &Handlers{
		usecase: uc,
	}
}

// HandleAssetProcess runs the post-upload processing pipeline for one asset.
// Returning an error lets asynq retry with backoff; the pipeline is
// idempotent so retries are safe.
func (h *Handlers) HandleAssetProcess(ctx context.Context, task *asynq.Task) error {
	var payload usecase.ProcessAssetTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.ErrorContext(ctx, "parse asset process payload", "error", err)
		return err
	}

	slog.InfoContext(ctx, "processing asset", "asset_id", payload.AssetID)

	if err := h.usecase.ProcessAsset(ctx, payload.AssetID); err != nil {
		slog.ErrorContext(ctx, "process asset", "asset_id", payload.AssetID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "processed asset", "asset_id", payload.AssetID)
	return nil
}

// HandleTagsSync rebuilds the tag usage counters and drops the cached
// popular-tags entries.
func (h *Handlers) HandleTagsSync(ctx context.Context, task *asynq.Task) error {
	if err := h.usecase.SyncTagUsage(ctx); err != nil {
		slog.ErrorContext(ctx, "sync tag usage", "error", err)
		return err
	}
	slog.InfoContext(ctx, "synced tag usage")
	return nil
}
