// Package prober extracts technical metadata and preview frames from media
// files by shelling out to ffprobe and ffmpeg.
package prober

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/clipstash/clipstash/internal/config"
	"github.com/clipstash/clipstash/internal/usecase"
)

const defaultTimeout = 60 * time.Second

type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New reads binary paths and the per-invocation timeout from the
// environment, defaulting to whatever is on PATH.
func New() *FFmpeg {
	f := &FFmpeg{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		timeout:     defaultTimeout,
	}
	if p := os.Getenv(config.ENV_KEY_FFMPEG_PATH); p != "" {
		f.ffmpegPath = p
	}
	if p := os.Getenv(config.ENV_KEY_FFPROBE_PATH); p != "" {
		f.ffprobePath = p
	}
	if s := os.Getenv(config.ENV_KEY_PROBE_TIMEOUT_S); s != "" {
		if sec, err := strconv.Atoi(s); err == nil && sec > 0 {
			f.timeout = time.Duration(sec) * time.Second
		}
	}
	return f
}

// ffprobe's JSON output; only the fields we read.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe inspects the file with ffprobe. Duration is nil for still images;
// dimensions come from the first video stream (images report one).
func (f *FFmpeg) Probe(ctx context.Context, path string) (usecase.ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return usecase.ProbeResult{}, &usecase.ProbeError{Op: "ffprobe", Err: commandErr(err)}
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return usecase.ProbeResult{}, &usecase.ProbeError{Op: "ffprobe", Err: fmt.Errorf("parse output: %w", err)}
	}

	var res usecase.ProbeResult

	if d, err := strconv.ParseFloat(po.Format.Duration, 64); err == nil && d > 0 {
		res.DurationSeconds = &d
	}
	for _, st := range po.Streams {
		if st.CodecType != "video" || st.Width == 0 || st.Height == 0 {
			continue
		}
		w, h := st.Width, st.Height
		res.Width = &w
		res.Height = &h
		break
	}

	if sz, err := strconv.ParseInt(po.Format.Size, 10, 64); err == nil {
		res.FileSizeBytes = sz
	} else if info, err := os.Stat(path); err == nil {
		res.FileSizeBytes = info.Size()
	}

	return res, nil
}

// ExtractFrame renders one JPEG frame at atSeconds, scaled to scaleWidth
// with the aspect ratio preserved, and returns the written file's path.
// The frame lands next to the input so both share the caller's cleanup.
func (f *FFmpeg) ExtractFrame(ctx context.Context, path string, atSeconds float64, scaleWidth int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	outPath := filepath.Join(filepath.Dir(path), "thumbnail.jpg")

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(atSeconds, 'f', -1, 64),
		"-i", path,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", scaleWidth),
		"-q:v", "2",
		outPath,
	)
	if err := cmd.Run(); err != nil {
		return "", &usecase.ProbeError{Op: "ffmpeg", Err: commandErr(err)}
	}
	return outPath, nil
}

// commandErr surfaces stderr when the tool exited non-zero; the exit code
// alone is useless for diagnosing a bad input file.
func commandErr(err error) error {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, ee.Stderr)
	}
	return err
}
