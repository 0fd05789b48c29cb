package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstash/clipstash/internal/config"
)

var storageNameRe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

type RequestUploadOption struct {
	Filename    string
	ContentType string
}

type UploadTarget struct {
	AssetID     uuid.UUID
	UploadURL   string
	StoragePath string
}

// RequestUpload registers a pending asset and hands back a short-lived
// write-capable URL; the byte transfer itself is between the client and the
// object store. Storage keys embed a millisecond timestamp plus the
// sanitized filename: two calls with the same filename inside the same
// millisecond can collide, any two calls >=1ms apart cannot.
func (u Usecase) RequestUpload(ctx context.Context, opt RequestUploadOption) (UploadTarget, error) {
	if opt.Filename == "" {
		return UploadTarget{}, &ValidationError{Msg: "filename is required"}
	}
	if opt.ContentType == "" {
		return UploadTarget{}, &ValidationError{Msg: "content_type is required"}
	}

	key := fmt.Sprintf("uploads/%d-%s",
		time.Now().UnixMilli(),
		storageNameRe.ReplaceAllString(opt.Filename, "_"),
	)

	kind := KindImage
	if strings.HasPrefix(opt.ContentType, "video/") {
		kind = KindVideo
	}

	url, err := u.fileStorageProvider.GetUploadURL(ctx, key, config.UPLOAD_URL_EXPIRE_MINUTES*time.Minute)
	if err != nil {
		return UploadTarget{}, &StoreError{Op: "sign upload url", Err: err}
	}

	title := strings.TrimSuffix(opt.Filename, filepath.Ext(opt.Filename))
	asset, err := u.repo.CreateAsset(ctx, Asset{
		Kind:            kind,
		Title:           title,
		StoragePath:     key,
		TagQualityScore: 0,
	})
	if err != nil {
		return UploadTarget{}, err
	}

	return UploadTarget{
		AssetID:     asset.ID,
		UploadURL:   url,
		StoragePath: key,
	}, nil
}
