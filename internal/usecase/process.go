package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/cenkalti/dominantcolor"
	"github.com/google/uuid"
)

const (
	thumbnailWidth        = 640
	defaultThumbnailAtSec = 3.0
	paletteSize           = 4
)

// TaskAssetProcess runs ProcessAsset in the worker; asynq's retry policy
// applies there, while the synchronous HTTP path leaves retry to the caller.
const TaskAssetProcess = "asset:process"

type ProcessAssetTaskPayload struct {
	AssetID uuid.UUID `json:"asset_id"`
}

// EnqueueProcessAsset schedules background processing for an existing asset.
func (u Usecase) EnqueueProcessAsset(ctx context.Context, id uuid.UUID) error {
	if u.queueClient == nil {
		return &StoreError{Op: "enqueue processing", Err: fmt.Errorf("queue not configured")}
	}
	if _, err := u.repo.GetAssetByID(ctx, id); err != nil {
		return err
	}
	payload, err := json.Marshal(ProcessAssetTaskPayload{AssetID: id})
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}
	if err := u.queueClient.EnqueueTask(ctx, TaskAssetProcess, payload); err != nil {
		return &StoreError{Op: "enqueue processing", Err: err}
	}
	return nil
}

// ThumbnailInstant picks the frame-extraction timestamp: 3s into the clip,
// or 10% of the duration for clips shorter than 30s, so short clips never
// request a timestamp beyond their own length. Unknown duration falls back
// to the 3s default.
func ThumbnailInstant(durationSeconds *float64) float64 {
	if durationSeconds == nil || *durationSeconds <= 0 {
		return defaultThumbnailAtSec
	}
	return math.Min(defaultThumbnailAtSec, *durationSeconds*0.1)
}

// ProcessAsset runs the post-upload pipeline for one asset: fetch the blob
// into a scoped temp dir, probe technical metadata, render a 640px-wide
// JPEG frame, extract its dominant palette, upload the thumbnail under its
// deterministic key and atomically update the catalog record.
//
// Every write is an overwrite, so the call is idempotent and safe to retry
// after any stage failure; the asset stays pending until the final update
// lands. Running it twice concurrently for one id duplicates work but is
// not unsafe. Temp files are removed on every exit path, including
// cancellation.
func (u Usecase) ProcessAsset(ctx context.Context, id uuid.UUID) error {
	asset, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(u.workDir, "process-*")
	if err != nil {
		return &PipelineError{Stage: "fetch", Err: fmt.Errorf("create work dir: %w", err)}
	}
	defer os.RemoveAll(workDir)

	inputPath, err := u.fetchToWorkDir(ctx, asset, workDir)
	if err != nil {
		return &PipelineError{Stage: "fetch", Err: err}
	}

	probe, err := u.prober.Probe(ctx, inputPath)
	if err != nil {
		return &PipelineError{Stage: "probe", Err: err}
	}

	at := ThumbnailInstant(probe.DurationSeconds)
	thumbFile, err := u.prober.ExtractFrame(ctx, inputPath, at, thumbnailWidth)
	if err != nil {
		return &PipelineError{Stage: "thumbnail", Err: err}
	}

	colors, err := thumbnailPalette(thumbFile)
	if err != nil {
		// Palette is decorative; a clip that renders a frame ffmpeg can
		// encode but image/jpeg cannot decode still gets processed.
		slog.WarnContext(ctx, "thumbnail palette extraction failed", "asset_id", id, "error", err)
		colors = nil
	}

	thumbKey := fmt.Sprintf("thumbnails/%s.jpg", id)
	if err := u.uploadThumbnail(ctx, thumbKey, thumbFile); err != nil {
		return &PipelineError{Stage: "upload", Err: err}
	}

	size := probe.FileSizeBytes
	updated, err := u.repo.UpdateAsset(ctx, id, AssetUpdate{
		ThumbnailPath:   &thumbKey,
		DurationSeconds: probe.DurationSeconds,
		Width:           probe.Width,
		Height:          probe.Height,
		FileSizeBytes:   &size,
		Colors:          colors,
	})
	if err != nil {
		return &PipelineError{Stage: "update", Err: err}
	}

	if err := u.repo.PublishAssetEvent(ctx, AssetEvent{
		Type:    EventAssetProcessed,
		AssetID: updated.ID,
		Kind:    updated.Kind,
		Title:   updated.Title,
	}); err != nil {
		slog.WarnContext(ctx, "publish asset event", "asset_id", id, "error", err)
	}

	return nil
}

func (u Usecase) fetchToWorkDir(ctx context.Context, asset Asset, workDir string) (string, error) {
	obj, _, err := u.fileStorageProvider.GetObject(ctx, asset.StoragePath)
	if err != nil {
		return "", err
	}
	defer obj.Close()

	inputPath := filepath.Join(workDir, "input"+filepath.Ext(asset.StoragePath))
	f, err := os.Create(inputPath)
	if err != nil {
		return "", fmt.Errorf("create input file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, obj); err != nil {
		return "", fmt.Errorf("download %s: %w", asset.StoragePath, err)
	}
	return inputPath, nil
}

func (u Usecase) uploadThumbnail(ctx context.Context, key, thumbFile string) error {
	f, err := os.Open(thumbFile)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat thumbnail: %w", err)
	}

	return u.fileStorageProvider.PutObject(ctx, key, f, info.Size(), "image/jpeg")
}

func thumbnailPalette(thumbFile string) ([]string, error) {
	f, err := os.Open(thumbFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}

	found := dominantcolor.FindN(img, paletteSize)
	colors := make([]string, 0, len(found))
	for _, c := range found {
		colors = append(colors, dominantcolor.Hex(c))
	}
	return colors, nil
}
