package usecase

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var filenamePartRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

const filenamePartMaxLen = 20

type Download struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DownloadAsset streams the original blob under a descriptive filename and
// bumps the download counter. The counter increments on every request,
// repeats by the same caller included.
func (u Usecase) DownloadAsset(ctx context.Context, id uuid.UUID) (Download, error) {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return Download{}, err
	}

	body, size, err := u.fileStorageProvider.GetObject(ctx, a.StoragePath)
	if err != nil {
		return Download{}, err
	}

	if err := u.repo.IncrementDownloadCount(ctx, id); err != nil {
		slog.WarnContext(ctx, "increment download count", "asset_id", id, "error", err)
	}

	contentType := "image/jpeg"
	if a.Kind == KindVideo {
		contentType = "video/mp4"
	}

	return Download{
		Filename:    DescriptiveFilename(a),
		ContentType: contentType,
		Size:        size,
		Body:        body,
	}, nil
}

// DescriptiveFilename builds a human-readable name from the asset's leading
// tag values: identity, emotion, reaction, source (first non-empty value
// each), cleaned to alphanumerics and capped at 20 runes per part, joined
// by underscores. Falls back to the sanitized title when no tags are set.
func DescriptiveFilename(a Asset) string {
	parts := make([]string, 0, 4)
	for _, v := range []string{
		firstTag(a.Tags.Identity),
		firstTag(a.Tags.Emotion),
		firstTag(a.Tags.Reaction),
		firstTag(a.Tags.Source),
	} {
		if p := cleanFilenamePart(v); p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		if p := cleanFilenamePart(a.Title); p != "" {
			parts = append(parts, p)
		} else {
			parts = append(parts, "clip")
		}
	}

	ext := "jpg"
	if a.Kind == KindVideo {
		ext = "mp4"
	}
	return strings.Join(parts, "_") + "." + ext
}

func firstTag(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func cleanFilenamePart(s string) string {
	s = filenamePartRe.ReplaceAllString(s, "")
	if len(s) > filenamePartMaxLen {
		s = s[:filenamePartMaxLen]
	}
	return s
}
