package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Meta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

type Res struct {
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// errJSON maps domain error types onto HTTP statuses. Anything the taxonomy
// doesn't name is a 500.
func errJSON(ctx echo.Context, err error) error {
	var (
		ve *usecase.ValidationError
		nf *usecase.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	case errors.As(err, &nf):
		return ctx.JSON(404, map[string]string{"error": err.Error()})
	default:
		return ctx.JSON(500, map[string]string{"error": err.Error()})
	}
}
