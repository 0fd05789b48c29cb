package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipstash/clipstash/internal/config"
)

// ListAssetsOption is the retrieval query: optional websearch text, one
// containment value per facet category, kind and inclusive duration bounds,
// offset pagination.
type ListAssetsOption struct {
	Query string

	Emotion   string
	Reaction  string
	Situation string
	Identity  string
	Source    string
	Object    string
	Character string
	Action    string
	Color     string
	Time      string

	Kind        string
	MinDuration *float64
	MaxDuration *float64

	Skip  int
	Limit int
}

// SearchAssets runs the text+facet query and decorates each hit that has a
// thumbnail with a freshly minted preview URL. The URLs are a per-request
// derivation with a bounded lifetime; concurrent requests may receive
// different strings resolving to the same blob.
func (u Usecase) SearchAssets(ctx context.Context, opt ListAssetsOption) ([]Asset, int, error) {
	assets, total, err := u.repo.ListAssets(ctx, opt)
	if err != nil {
		return nil, 0, err
	}

	expire := config.PREVIEW_URL_EXPIRE_MINUTES * time.Minute
	for i := range assets {
		if assets[i].ThumbnailPath == "" {
			continue
		}
		url, err := u.fileStorageProvider.GetDownloadURL(ctx, assets[i].ThumbnailPath, expire)
		if err != nil {
			slog.WarnContext(ctx, "sign thumbnail url", "asset_id", assets[i].ID, "error", err)
			continue
		}
		assets[i].ThumbnailURL = url
	}

	return assets, total, nil
}
