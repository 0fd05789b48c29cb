package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Asset struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind"`
	Status          string   `json:"status"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	FileSizeBytes   *int64   `json:"file_size_bytes,omitempty"`
	Tags            TagSets  `json:"tags"`
	Colors          []string `json:"colors,omitempty"`
	TagQualityScore int      `json:"tag_quality_score"`
	DownloadCount   int64    `json:"download_count"`
	MediaURL        string   `json:"media_url,omitempty"`
	ThumbnailURL    string   `json:"thumbnail_url,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type TagSets struct {
	Emotion   []string `json:"emotion,omitempty"`
	Reaction  []string `json:"reaction,omitempty"`
	Situation []string `json:"situation,omitempty"`
	Identity  []string `json:"identity,omitempty"`
	Source    []string `json:"source,omitempty"`
	Object    []string `json:"object,omitempty"`
	Character []string `json:"character,omitempty"`
	Action    []string `json:"action,omitempty"`
	Color     []string `json:"color,omitempty"`
	Time      []string `json:"time,omitempty"`
}

func (t TagSets) toUsecase() usecase.TagSets {
	return usecase.TagSets{
		Emotion:   t.Emotion,
		Reaction:  t.Reaction,
		Situation: t.Situation,
		Identity:  t.Identity,
		Source:    t.Source,
		Object:    t.Object,
		Character: t.Character,
		Action:    t.Action,
		Color:     t.Color,
		Time:      t.Time,
	}
}

func convertAsset(a usecase.Asset) Asset {
	return Asset{
		ID:              a.ID.String(),
		Kind:            a.Kind,
		Status:          a.Status(),
		Title:           a.Title,
		Description:     a.Description,
		DurationSeconds: a.DurationSeconds,
		Width:           a.Width,
		Height:          a.Height,
		FileSizeBytes:   a.FileSizeBytes,
		Tags: TagSets{
			Emotion:   a.Tags.Emotion,
			Reaction:  a.Tags.Reaction,
			Situation: a.Tags.Situation,
			Identity:  a.Tags.Identity,
			Source:    a.Tags.Source,
			Object:    a.Tags.Object,
			Character: a.Tags.Character,
			Action:    a.Tags.Action,
			Color:     a.Tags.Color,
			Time:      a.Tags.Time,
		},
		Colors:          a.Colors,
		TagQualityScore: a.TagQualityScore,
		DownloadCount:   a.DownloadCount,
		MediaURL:        a.MediaURL,
		ThumbnailURL:    a.ThumbnailURL,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}

type GetAssetByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAssetByID(ctx echo.Context) error {
	var req GetAssetByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	a, err := s.server.GetAssetByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertAsset(a)})
}

type UpdateAssetRequest struct {
	ID          string   `param:"id" validate:"required,uuid"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        *TagSets `json:"tags"`
}

func (s *Server) UpdateAsset(ctx echo.Context) error {
	var req UpdateAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	opt := usecase.UpdateAssetOption{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Tags != nil {
		tags := req.Tags.toUsecase()
		opt.Tags = &tags
	}

	id, _ := uuid.Parse(req.ID)
	a, err := s.server.UpdateAsset(ctx.Request().Context(), id, opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertAsset(a)})
}

type DeleteAssetRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) DeleteAsset(ctx echo.Context) error {
	var req DeleteAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteAsset(ctx.Request().Context(), id); err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "successfully deleted asset"})
}

type ProcessAssetRequest struct {
	ID         string `param:"id" validate:"required,uuid"`
	Background bool   `query:"background"`
}

// ProcessAsset triggers the post-upload pipeline. With ?background=true the
// work is queued and 202 returned immediately; otherwise the request blocks
// until the pipeline finishes.
func (s *Server) ProcessAsset(ctx echo.Context) error {
	var req ProcessAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	if req.Background {
		if err := s.server.EnqueueProcessAsset(ctx.Request().Context(), id); err != nil {
			return errJSON(ctx, err)
		}
		return ctx.JSON(202, Res{Message: "processing queued"})
	}

	if err := s.server.ProcessAsset(ctx.Request().Context(), id); err != nil {
		return errJSON(ctx, err)
	}

	a, err := s.server.GetAssetByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertAsset(a)})
}

type DownloadAssetRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

// DownloadAsset streams the original media under a descriptive filename.
func (s *Server) DownloadAsset(ctx echo.Context) error {
	var req DownloadAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	dl, err := s.server.DownloadAsset(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	defer dl.Body.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, dl.Filename))
	if dl.Size > 0 {
		ctx.Response().Header().Set(echo.HeaderContentLength, fmt.Sprintf("%d", dl.Size))
	}
	return ctx.Stream(200, dl.ContentType, dl.Body)
}

type GetThumbnailRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetThumbnail(ctx echo.Context) error {
	var req GetThumbnailRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	body, size, err := s.server.GetThumbnail(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	defer body.Close()

	if size > 0 {
		ctx.Response().Header().Set(echo.HeaderContentLength, fmt.Sprintf("%d", size))
	}
	ctx.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return ctx.Stream(200, "image/jpeg", body)
}
