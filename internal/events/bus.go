package events

import (
	"context"
	"log/slog"
	"time"
)

// Bus delivers each event to the in-process hub and, when configured, to
// Redis. Redis failures are logged and never block a cycle.
type Bus struct {
	Hub    *Hub
	Redis  *RedisPublisher
	Logger *slog.Logger
}

func (b *Bus) Emit(ctx context.Context, reqID, typ string, data any) string {
	evt := MakeEvent(reqID, typ, 1, data)
	if b == nil {
		return evt
	}
	if b.Hub != nil {
		b.Hub.Publish(evt)
	}
	if b.Redis != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := b.Redis.Publish(pctx, evt); err != nil {
			log := b.Logger
			if log == nil {
				log = slog.Default()
			}
			log.Warn("redis publish failed", "type", typ, "err", err)
		}
	}
	return evt
}
