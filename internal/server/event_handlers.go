package server

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
)

type AssetEvent struct {
	Type    string `json:"type"`
	AssetID string `json:"asset_id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
}

const eventWriteTimeout = 5 * time.Second

// StreamAssetEvents upgrades to a websocket and pushes processed-asset
// events until the client goes away. Events missed while disconnected are
// not replayed; clients refetch on reconnect.
func (s *Server) StreamAssetEvents(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	reqCtx := ctx.Request().Context()
	events, err := s.server.StreamAssetEvents(reqCtx)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscription failed")
		return nil
	}

	// Reads are discarded; the socket is push-only. CloseRead surfaces the
	// client closing the connection as context cancellation.
	readCtx := conn.CloseRead(reqCtx)

	for {
		select {
		case <-readCtx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
			writeCtx, cancel := context.WithTimeout(readCtx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, AssetEvent{
				Type:    ev.Type,
				AssetID: ev.AssetID.String(),
				Kind:    ev.Kind,
				Title:   ev.Title,
			})
			cancel()
			if err != nil {
				return nil
			}
		}
	}
}
