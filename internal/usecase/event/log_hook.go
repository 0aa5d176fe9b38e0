package event

import (
	"context"
	"log/slog"
)

// LogChannel is the one concrete Hook this system ships out of the box: it
// logs timeline events at info level. Real deployments wire an SSE or
// WebSocket hook alongside it; this repo's Non-goals exclude shipping one
// (SPEC_FULL.md §11).
type LogChannel struct {
	enabled bool
}

func NewLogChannel(enabled bool) *LogChannel {
	return &LogChannel{enabled: enabled}
}

func (c *LogChannel) Name() string    { return "log" }
func (c *LogChannel) IsEnabled() bool { return c.enabled }

func (c *LogChannel) Handle(ctx context.Context, ev TimelineEvent) error {
	attrs := []any{
		slog.String("kind", string(ev.Kind)),
		slog.Int64("channel_id", ev.ChannelID),
		slog.String("owner", ev.Owner),
	}
	if ev.Item != nil {
		attrs = append(attrs, slog.String("item_uid", ev.Item.UID), slog.String("item_url", ev.Item.URL))
	}
	slog.Info("timeline event", attrs...)
	return nil
}
