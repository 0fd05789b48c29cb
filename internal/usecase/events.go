package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const EventAssetProcessed = "asset.processed"

// AssetEvent is the payload fanned out to event-stream subscribers when the
// pipeline finishes an asset.
type AssetEvent struct {
	Type    string    `json:"type"`
	AssetID uuid.UUID `json:"asset_id"`
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
}

// StreamAssetEvents subscribes the caller to processed-asset events until
// ctx is done. Slow consumers are dropped non-blocking rather than stalling
// the hub.
func (u Usecase) StreamAssetEvents(ctx context.Context) (<-chan AssetEvent, error) {
	inbound := make(chan AssetEvent, 10)
	if err := u.repo.SubscribeAssetEvents(ctx, inbound); err != nil {
		close(inbound)
		return nil, fmt.Errorf("subscribe to asset events: %w", err)
	}

	events := make(chan AssetEvent, 10)
	go func() {
		defer close(events)
		defer u.repo.UnsubscribeAssetEvents(ctx, inbound)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-inbound:
				if !ok {
					return
				}
				select {
				case events <- ev:
				default:
					slog.Warn("dropping asset event: subscriber channel full", "asset_id", ev.AssetID)
				}
			}
		}
	}()

	return events, nil
}
