package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstash/clipstash/internal/config"
)

const (
	KindImage = "image"
	KindVideo = "video"

	StatusPending   = "PENDING"
	StatusProcessed = "PROCESSED"
)

// TagCategories lists the fixed facet categories in canonical order.
var TagCategories = []string{
	"emotion", "reaction", "situation", "identity", "source",
	"object", "character", "action", "color", "time",
}

// TagSets holds the per-category tag values of one asset. Values within a
// category form an ordered set: lowercase, trimmed, no duplicates.
type TagSets struct {
	Emotion   []string
	Reaction  []string
	Situation []string
	Identity  []string
	Source    []string
	Object    []string
	Character []string
	Action    []string
	Color     []string
	Time      []string
}

// ByCategory returns the sets keyed by category name. The returned slices
// alias the receiver's.
func (t TagSets) ByCategory() map[string][]string {
	return map[string][]string{
		"emotion":   t.Emotion,
		"reaction":  t.Reaction,
		"situation": t.Situation,
		"identity":  t.Identity,
		"source":    t.Source,
		"object":    t.Object,
		"character": t.Character,
		"action":    t.Action,
		"color":     t.Color,
		"time":      t.Time,
	}
}

// Normalize lowercases, trims and dedupes every category, preserving first
// occurrence order. Applied at every write boundary.
func (t TagSets) Normalize() TagSets {
	return TagSets{
		Emotion:   normalizeTags(t.Emotion),
		Reaction:  normalizeTags(t.Reaction),
		Situation: normalizeTags(t.Situation),
		Identity:  normalizeTags(t.Identity),
		Source:    normalizeTags(t.Source),
		Object:    normalizeTags(t.Object),
		Character: normalizeTags(t.Character),
		Action:    normalizeTags(t.Action),
		Color:     normalizeTags(t.Color),
		Time:      normalizeTags(t.Time),
	}
}

func normalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// QualityScore is the 0-100 coverage score: 10 points per non-empty
// category. UI feedback only, never enforced.
func (t TagSets) QualityScore() int {
	score := 0
	for _, values := range t.ByCategory() {
		if len(values) > 0 {
			score += 10
		}
	}
	return score
}

func (t TagSets) values() []string {
	by := t.ByCategory()
	var out []string
	for _, c := range TagCategories {
		out = append(out, by[c]...)
	}
	return out
}

// SearchText derives the full-text source string from title, description
// and every tag value. Recomputed on every write that touches those fields.
func SearchText(title, description string, tags TagSets) string {
	parts := make([]string, 0, 2)
	if title != "" {
		parts = append(parts, title)
	}
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, tags.values()...)
	return strings.Join(parts, " ")
}

type Asset struct {
	ID              uuid.UUID
	Kind            string
	Title           string
	Description     string
	StoragePath     string
	ThumbnailPath   string
	DurationSeconds *float64
	Width           *int
	Height          *int
	FileSizeBytes   *int64
	Tags            TagSets
	Colors          []string
	TagQualityScore int
	DownloadCount   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Presigned links minted per request; never persisted.
	MediaURL     string
	ThumbnailURL string
}

// Status derives the lifecycle state: an asset is pending until the
// pipeline has stored a thumbnail and technical metadata for it.
func (a Asset) Status() string {
	if a.ThumbnailPath != "" {
		return StatusProcessed
	}
	return StatusPending
}

// AssetUpdate is a partial-fields update; nil pointers are left untouched.
type AssetUpdate struct {
	Title       *string
	Description *string
	Tags        *TagSets
	SearchText  *string
	TagQuality  *int

	ThumbnailPath   *string
	DurationSeconds *float64
	Width           *int
	Height          *int
	FileSizeBytes   *int64
	Colors          []string
}

func (u Usecase) GetAssetByID(ctx context.Context, id uuid.UUID) (Asset, error) {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	u.signAssetURLs(ctx, &a)
	return a, nil
}

type UpdateAssetOption struct {
	Title       *string
	Description *string
	Tags        *TagSets
}

// UpdateAsset applies a descriptive patch (title, description, tags) and
// recomputes the derived search text and tag quality score.
func (u Usecase) UpdateAsset(ctx context.Context, id uuid.UUID, opt UpdateAssetOption) (Asset, error) {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return Asset{}, err
	}

	title := a.Title
	if opt.Title != nil {
		title = *opt.Title
	}
	description := a.Description
	if opt.Description != nil {
		description = *opt.Description
	}
	tags := a.Tags
	if opt.Tags != nil {
		tags = opt.Tags.Normalize()
	}

	searchText := SearchText(title, description, tags)
	quality := tags.QualityScore()

	updated, err := u.repo.UpdateAsset(ctx, id, AssetUpdate{
		Title:       &title,
		Description: &description,
		Tags:        &tags,
		SearchText:  &searchText,
		TagQuality:  &quality,
	})
	if err != nil {
		return Asset{}, err
	}

	u.enqueueTagSync(ctx)
	u.signAssetURLs(ctx, &updated)
	return updated, nil
}

// DeleteAsset removes the blobs first, then the catalog record, so that a
// crash mid-operation leaves a retriable orphaned record rather than an
// unreferenced blob.
func (u Usecase) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return err
	}

	var keys []string
	if a.StoragePath != "" {
		keys = append(keys, a.StoragePath)
	}
	if a.ThumbnailPath != "" {
		keys = append(keys, a.ThumbnailPath)
	}
	if len(keys) > 0 {
		if err := u.fileStorageProvider.RemoveObjects(ctx, keys); err != nil {
			return &StoreError{Op: fmt.Sprintf("remove blobs for asset %s", id), Err: err}
		}
	}

	if err := u.repo.DeleteAsset(ctx, id); err != nil {
		return err
	}

	u.enqueueTagSync(ctx)
	return nil
}

// GetThumbnail serves the raw derived thumbnail; absent until processing
// completes.
func (u Usecase) GetThumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, int64, error) {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if a.ThumbnailPath == "" {
		return nil, 0, &NotFoundError{Resource: "thumbnail"}
	}
	return u.fileStorageProvider.GetObject(ctx, a.ThumbnailPath)
}

func (u Usecase) signAssetURLs(ctx context.Context, a *Asset) {
	expire := config.PREVIEW_URL_EXPIRE_MINUTES * time.Minute
	if a.StoragePath != "" {
		url, err := u.fileStorageProvider.GetDownloadURL(ctx, a.StoragePath, expire)
		if err != nil {
			slog.WarnContext(ctx, "sign media url", "asset_id", a.ID, "error", err)
		} else {
			a.MediaURL = url
		}
	}
	if a.ThumbnailPath != "" {
		url, err := u.fileStorageProvider.GetDownloadURL(ctx, a.ThumbnailPath, expire)
		if err != nil {
			slog.WarnContext(ctx, "sign thumbnail url", "asset_id", a.ID, "error", err)
		} else {
			a.ThumbnailURL = url
		}
	}
}
