package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/clipstash/clipstash/internal/usecase"
)

// assetEventChannel is the Postgres NOTIFY channel carrying asset events.
// Publishing goes through pg_notify so any process with a database handle
// can emit, while only processes holding a dedicated LISTEN connection
// fan events out to subscribers.
const assetEventChannel = "asset_events"

type assetEventHub struct {
	mu          sync.Mutex
	subscribers map[chan<- usecase.AssetEvent]struct{}
	conn        *pgx.Conn
	cancel      context.CancelFunc
	done        chan struct{}
}

func newAssetEventHub(conn *pgx.Conn) *assetEventHub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &assetEventHub{
		conn:        conn,
		subscribers: make(map[chan<- usecase.AssetEvent]struct{}),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go hub.listen(ctx)
	return hub
}

func (h *assetEventHub) listen(ctx context.Context) {
	defer close(h.done)

	if _, err := h.conn.Exec(ctx, "LISTEN "+assetEventChannel); err != nil {
		slog.Error("listen on asset event channel", "error", err)
		return
	}

	for {
		n, err := h.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("wait for asset event", "error", err)
			}
			return
		}
		if n == nil {
			continue
		}

		var ev usecase.AssetEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			slog.Warn("decode asset event payload", "error", err)
			continue
		}

		h.mu.Lock()
		for ch := range h.subscribers {
			select {
			case ch <- ev:
			default:
				// Never block the hub on a slow subscriber.
				slog.Warn("subscriber channel full, dropping asset event", "asset_id", ev.AssetID)
			}
		}
		h.mu.Unlock()
	}
}

func (h *assetEventHub) subscribe(ch chan<- usecase.AssetEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = struct{}{}
}

func (h *assetEventHub) unsubscribe(ch chan<- usecase.AssetEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}

func (h *assetEventHub) stop() {
	h.cancel()
	<-h.done
	_ = h.conn.Close(context.Background())
}

// Implement the repo interface:

func (s *service) PublishAssetEvent(ctx context.Context, ev usecase.AssetEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode asset event: %w", err)
	}
	err = s.db.WithContext(ctx).
		Exec("SELECT pg_notify(?, ?)", assetEventChannel, string(payload)).Error
	if err != nil {
		return &usecase.StoreError{Op: "publish asset event", Err: err}
	}
	return nil
}

func (s *service) SubscribeAssetEvents(ctx context.Context, ch chan<- usecase.AssetEvent) error {
	if s.hub == nil {
		return &usecase.StoreError{Op: "subscribe asset events", Err: fmt.Errorf("event hub not configured")}
	}
	s.hub.subscribe(ch)
	return nil
}

func (s *service) UnsubscribeAssetEvents(ctx context.Context, ch chan<- usecase.AssetEvent) error {
	if s.hub == nil {
		return &usecase.StoreError{Op: "unsubscribe asset events", Err: fmt.Errorf("event hub not configured")}
	}
	s.hub.unsubscribe(ch)
	return nil
}
