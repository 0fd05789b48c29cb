package server

import (
	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type RequestUploadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

type UploadTarget struct {
	AssetID     string `json:"asset_id"`
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

// RequestUpload registers a pending asset and returns a presigned PUT URL;
// the client pushes the bytes straight to the object store and then
// triggers processing.
func (s *Server) RequestUpload(ctx echo.Context) error {
	var req RequestUploadRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	target, err := s.server.RequestUpload(ctx.Request().Context(), usecase.RequestUploadOption{
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		return errJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: UploadTarget{
		AssetID:     target.AssetID.String(),
		UploadURL:   target.UploadURL,
		StoragePath: target.StoragePath,
	}})
}
