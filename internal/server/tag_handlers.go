package server

import (
	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type TagCount struct {
	Category   string `json:"category"`
	Tag        string `json:"tag"`
	UsageCount int    `json:"usage_count"`
}

type ListPopularTagsRequest struct {
	Category string `query:"category" validate:"omitempty,oneof=emotion reaction situation identity source object character action color time"`
	Limit    int    `query:"limit" validate:"required,gte=1,lte=100"`
}

func (s *Server) ListPopularTags(ctx echo.Context) error {
	var req = ListPopularTagsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	list, err := s.server.PopularTags(ctx.Request().Context(), usecase.ListPopularTagsOption{
		Category: req.Category,
		Limit:    req.Limit,
	})
	if err != nil {
		return errJSON(ctx, err)
	}

	tags := make([]TagCount, 0, len(list))
	for _, t := range list {
		tags = append(tags, TagCount{
			Category:   t.Category,
			Tag:        t.Tag,
			UsageCount: t.UsageCount,
		})
	}

	return ctx.JSON(200, Res{Data: tags})
}

// ListTagPresets serves the fixed per-category vocabulary for tag pickers.
func (s *Server) ListTagPresets(ctx echo.Context) error {
	return ctx.JSON(200, Res{Data: usecase.TagPresets})
}
