package redis

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Watch subscribes to mirrored updates and calls fn for each one until ctx is done.
// Malformed messages are logged and skipped.
func (m *Mirror) Watch(ctx context.Context, fn func(Update)) error {
	pubsub := m.rdb.Subscribe(ctx, publicationChannel)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription to be confirmed so no update is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var u Update
			if err := json.Unmarshal([]byte(msg.Payload), &u.Publication); err != nil {
				slog.Warn("Ignoring malformed publication update", "error", err)
				continue
			}
			u.Raw = msg.Payload
			fn(u)
		case <-ctx.Done():
			return nil
		}
	}
}
