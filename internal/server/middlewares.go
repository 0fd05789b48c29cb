package server

import (
	"context"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/clipstash/clipstash/internal/config"
)

// AuthMiddleware gates mutating routes behind the shared client id: the
// request must present the X-Client-Id the deployment was configured with.
// The optional X-Uid header is carried into the request context for logs.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var (
			reqClientID = c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID)
			reqUID      = c.Request().Header.Get(config.HEADER_KEY_X_UID)
			clientID    = os.Getenv(config.ENV_KEY_CLIENT_ID)
		)

		if clientID == "" || reqClientID != clientID {
			return c.JSON(401, map[string]string{
				"error":   "invalid client id",
				"message": "Unauthorized",
			})
		}

		if reqUID != "" {
			ctx := context.WithValue(c.Request().Context(), config.CTX_KEY_CLIENT_UID, reqUID)
			c.SetRequest(c.Request().WithContext(ctx))
		}

		return next(c)
	}
}
