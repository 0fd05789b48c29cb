package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstash/clipstash/internal/usecase"
)

func TestThumbnailInstant(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		duration *float64
		want     float64
	}{
		{"nil duration falls back to 3s", nil, 3},
		{"zero duration falls back to 3s", f(0), 3},
		{"20s clip uses 10 percent", f(20), 2.0},
		{"long clip capped at 3s", f(120), 3},
		{"short clip uses 10 percent", f(1), 0.1},
		{"30s clip hits the cap exactly", f(30), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, usecase.ThumbnailInstant(tt.duration), 1e-9)
		})
	}
}

func TestProcessAsset(t *testing.T) {
	repo := newFakeRepo()
	fs := newFakeStorage()
	duration := 20.0
	p := &fakeProber{duration: &duration, width: 1280, height: 720}
	u := newTestUsecase(t, repo, fs, p, nil, nil)

	created, err := repo.CreateAsset(context.Background(), usecase.Asset{
		Kind:        usecase.KindVideo,
		Title:       "celebration",
		StoragePath: "uploads/1-celebration.mp4",
	})
	require.NoError(t, err)
	fs.objects["uploads/1-celebration.mp4"] = []byte("fake media bytes")

	require.NoError(t, u.ProcessAsset(context.Background(), created.ID))

	got := repo.assets[created.ID]
	wantThumbKey := fmt.Sprintf("thumbnails/%s.jpg", created.ID)
	assert.Equal(t, wantThumbKey, got.ThumbnailPath)
	assert.Equal(t, usecase.StatusProcessed, got.Status())
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, 20.0, *got.DurationSeconds)
	assert.Equal(t, 1280, *got.Width)
	assert.Equal(t, 720, *got.Height)
	assert.Equal(t, int64(len("fake media bytes")), *got.FileSizeBytes)
	assert.NotEmpty(t, got.Colors)

	// Thumbnail frame extracted at min(3, 20*0.1) = 2s.
	require.Len(t, p.extractedAt, 1)
	assert.InDelta(t, 2.0, p.extractedAt[0], 1e-9)

	// Thumbnail blob uploaded under the deterministic key.
	assert.Contains(t, fs.objects, wantThumbKey)

	// Completion event published.
	require.Len(t, repo.events, 1)
	assert.Equal(t, usecase.EventAssetProcessed, repo.events[0].Type)
	assert.Equal(t, created.ID, repo.events[0].AssetID)
}

func TestProcessAssetIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	fs := newFakeStorage()
	duration := 10.0
	p := &fakeProber{duration: &duration, width: 640, height: 480}
	u := newTestUsecase(t, repo, fs, p, nil, nil)

	created, err := repo.CreateAsset(context.Background(), usecase.Asset{
		Kind:        usecase.KindVideo,
		StoragePath: "uploads/1-a.mp4",
	})
	require.NoError(t, err)
	fs.objects["uploads/1-a.mp4"] = []byte("bytes")

	require.NoError(t, u.ProcessAsset(context.Background(), created.ID))
	first := repo.assets[created.ID]

	require.NoError(t, u.ProcessAsset(context.Background(), created.ID))
	second := repo.assets[created.ID]

	assert.Equal(t, first.ThumbnailPath, second.ThumbnailPath)
	assert.Equal(t, *first.DurationSeconds, *second.DurationSeconds)
}

func TestProcessAssetStageErrors(t *testing.T) {
	duration := 10.0

	tests := []struct {
		name      string
		prepare   func(repo *fakeRepo, fs *fakeStorage, p *fakeProber, id uuid.UUID)
		wantStage string
	}{
		{
			name: "missing blob fails the fetch stage",
			prepare: func(_ *fakeRepo, fs *fakeStorage, _ *fakeProber, _ uuid.UUID) {
				delete(fs.objects, "uploads/1-a.mp4")
			},
			wantStage: "fetch",
		},
		{
			name: "prober failure fails the probe stage",
			prepare: func(_ *fakeRepo, _ *fakeStorage, p *fakeProber, _ uuid.UUID) {
				p.probeErr = &usecase.ProbeError{Op: "ffprobe", Err: errors.New("exit 1")}
			},
			wantStage: "probe",
		},
		{
			name: "frame extraction failure fails the thumbnail stage",
			prepare: func(_ *fakeRepo, _ *fakeStorage, p *fakeProber, _ uuid.UUID) {
				p.extractErr = &usecase.ProbeError{Op: "ffmpeg", Err: errors.New("exit 1")}
			},
			wantStage: "thumbnail",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			fs := newFakeStorage()
			p := &fakeProber{duration: &duration, width: 640, height: 480}
			u := newTestUsecase(t, repo, fs, p, nil, nil)

			created, err := repo.CreateAsset(context.Background(), usecase.Asset{
				Kind:        usecase.KindVideo,
				StoragePath: "uploads/1-a.mp4",
			})
			require.NoError(t, err)
			fs.objects["uploads/1-a.mp4"] = []byte("bytes")

			tt.prepare(repo, fs, p, created.ID)

			err = u.ProcessAsset(context.Background(), created.ID)

			var pe *usecase.PipelineError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantStage, pe.Stage)

			// A failed attempt leaves the asset pending.
			assert.Equal(t, usecase.StatusPending, repo.assets[created.ID].Status())
		})
	}
}

func TestProcessAssetCleansUpWorkDir(t *testing.T) {
	repo := newFakeRepo()
	fs := newFakeStorage()
	duration := 10.0
	p := &fakeProber{duration: &duration, width: 640, height: 480}

	workDir := t.TempDir()
	u := usecase.New(repo, fs, p, nil, nil, workDir)

	created, err := repo.CreateAsset(context.Background(), usecase.Asset{
		Kind:        usecase.KindVideo,
		StoragePath: "uploads/1-a.mp4",
	})
	require.NoError(t, err)
	fs.objects["uploads/1-a.mp4"] = []byte("bytes")

	require.NoError(t, u.ProcessAsset(context.Background(), created.ID))

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnqueueProcessAsset(t *testing.T) {
	repo := newFakeRepo()
	q := &fakeQueue{}
	u := newTestUsecase(t, repo, newFakeStorage(), &fakeProber{}, q, nil)

	created, err := repo.CreateAsset(context.Background(), usecase.Asset{
		Kind:        usecase.KindVideo,
		StoragePath: "uploads/1-a.mp4",
	})
	require.NoError(t, err)

	require.NoError(t, u.EnqueueProcessAsset(context.Background(), created.ID))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, usecase.TaskAssetProcess, q.tasks[0].taskType)

	var payload usecase.ProcessAssetTaskPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].payload, &payload))
	assert.Equal(t, created.ID, payload.AssetID)
}

func TestEnqueueProcessAssetUnknownAsset(t *testing.T) {
	u := newTestUsecase(t, newFakeRepo(), newFakeStorage(), &fakeProber{}, &fakeQueue{}, nil)

	err := u.EnqueueProcessAsset(context.Background(), uuid.New())

	var nf *usecase.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
