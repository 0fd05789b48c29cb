package server

import (
	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type ListAssetsRequest struct {
	Q string `query:"q"`

	Emotion   string `query:"emotion"`
	Reaction  string `query:"reaction"`
	Situation string `query:"situation"`
	Identity  string `query:"identity"`
	Source    string `query:"source"`
	Object    string `query:"object"`
	Character string `query:"character"`
	Action    string `query:"action"`
	Color     string `query:"color"`
	Time      string `query:"time"`

	Kind        string   `query:"kind" validate:"omitempty,oneof=image video"`
	MinDuration *float64 `query:"min_duration" validate:"omitempty,gte=0"`
	MaxDuration *float64 `query:"max_duration" validate:"omitempty,gte=0"`

	Page  int `query:"page" validate:"gte=1"`
	Limit int `query:"limit" validate:"required,gte=1,lte=100"`
}

// ListAssets is the faceted search endpoint: optional websearch text plus
// one containment value per tag category. Matches are ranked by text
// relevance, then recency.
func (s *Server) ListAssets(ctx echo.Context) error {
	var req = ListAssetsRequest{Page: 1, Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	skip := (req.Page - 1) * req.Limit

	list, total, err := s.server.SearchAssets(ctx.Request().Context(), usecase.ListAssetsOption{
		Query:       req.Q,
		Emotion:     req.Emotion,
		Reaction:    req.Reaction,
		Situation:   req.Situation,
		Identity:    req.Identity,
		Source:      req.Source,
		Object:      req.Object,
		Character:   req.Character,
		Action:      req.Action,
		Color:       req.Color,
		Time:        req.Time,
		Kind:        req.Kind,
		MinDuration: req.MinDuration,
		MaxDuration: req.MaxDuration,
		Skip:        skip,
		Limit:       req.Limit,
	})
	if err != nil {
		return errJSON(ctx, err)
	}

	assets := make([]Asset, 0, len(list))
	for _, a := range list {
		assets = append(assets, convertAsset(a))
	}

	return ctx.JSON(200, Res{
		Data: assets,
		Meta: &Meta{
			Total: total,
			Skip:  skip,
			Limit: req.Limit,
		},
	})
}
