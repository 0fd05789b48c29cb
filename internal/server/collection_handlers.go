package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Collection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AssetCount int    `json:"asset_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func convertCollection(c usecase.Collection) Collection {
	return Collection{
		ID:         c.ID.String(),
		Name:       c.Name,
		AssetCount: c.AssetCount,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  c.UpdatedAt.Format(time.RFC3339),
	}
}

type CreateCollectionRequest struct {
	Name     string   `json:"name" validate:"required"`
	AssetIDs []string `json:"asset_ids" validate:"omitempty,dive,uuid"`
}

func (s *Server) CreateCollection(ctx echo.Context) error {
	var req CreateCollectionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	assetIDs := make(uuid.UUIDs, 0, len(req.AssetIDs))
	for _, raw := range req.AssetIDs {
		id, _ := uuid.Parse(raw)
		assetIDs = append(assetIDs, id)
	}

	col, err := s.server.CreateCollection(ctx.Request().Context(), usecase.Collection{
		Name: req.Name,
	}, assetIDs)
	if err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: convertCollection(col)})
}

type GetCollectionByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetCollectionByID(ctx echo.Context) error {
	var req GetCollectionByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	col, err := s.server.GetCollectionByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertCollection(col)})
}

type AddCollectionAssetsRequest struct {
	ID       string   `param:"id" validate:"required,uuid"`
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,dive,uuid"`
}

func (s *Server) AddCollectionAssets(ctx echo.Context) error {
	var req AddCollectionAssetsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	assetIDs := make(uuid.UUIDs, 0, len(req.AssetIDs))
	for _, raw := range req.AssetIDs {
		aid, _ := uuid.Parse(raw)
		assetIDs = append(assetIDs, aid)
	}

	if err := s.server.AddCollectionAssets(ctx.Request().Context(), id, assetIDs); err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "successfully added assets to collection"})
}

type ExportCollectionRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

// ExportCollection streams the collection as a zip archive. The archive is
// produced incrementally, so the status line is committed before the last
// member is fetched; a member whose blob fetch fails is skipped rather than
// aborting the download.
func (s *Server) ExportCollection(ctx echo.Context) error {
	var req ExportCollectionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	col, err := s.server.GetCollectionByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	if col.AssetCount == 0 {
		return errJSON(ctx, &usecase.NotFoundError{Resource: "collection assets"})
	}

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "application/zip")
	w.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.zip"`, col.Name))
	w.WriteHeader(200)

	return s.server.ExportCollection(ctx.Request().Context(), id, w)
}
