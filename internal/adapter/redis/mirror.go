package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/djmonitor/internal/domain"
	"github.com/pscheid92/djmonitor/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	publicationKey     = "djmonitor:publication"
	publicationChannel = "djmonitor:publication:updates"
)

// Update is one record received from the updates channel.
type Update struct {
	Publication domain.Publication
	Raw         string
}

// Mirror stores the committed record under a key and publishes it on a channel
// for external readers. Both happen in one MULTI/EXEC.
type Mirror struct {
	rdb    *goredis.Client
	policy retry.Policy
}

var _ domain.StateMirror = (*Mirror)(nil)

func NewMirror(rdb *goredis.Client) *Mirror {
	return &Mirror{
		rdb: rdb,
		policy: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 25 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Debug("Retrying state mirror write", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// classifyMirrorError gives up on an open breaker or an expired context.
func classifyMirrorError(err error) retry.Action {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return retry.Stop
	default:
		return retry.Retry
	}
}

func (m *Mirror) Mirror(ctx context.Context, p domain.Publication) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal publication: %w", err)
	}

	err = retry.DoVoid(ctx, m.policy, classifyMirrorError, func(ctx context.Context) error {
		_, err := m.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, publicationKey, payload, 0)
			pipe.Publish(ctx, publicationChannel, payload)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror publication: %w", err)
	}
	return nil
}

// Latest returns the last mirrored record. ok is false when nothing was mirrored yet.
func (m *Mirror) Latest(ctx context.Context) (p domain.Publication, ok bool, err error) {
	raw, err := m.rdb.Get(ctx, publicationKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Publication{}, false, nil
	}
	if err != nil {
		return domain.Publication{}, false, fmt.Errorf("failed to read mirrored publication: %w", err)
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Publication{}, false, fmt.Errorf("failed to unmarshal mirrored publication: %w", err)
	}
	return p, true, nil
}

// Ping reports whether Redis is reachable. Used as a readiness check.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (m *Mirror) Close() error {
	return m.rdb.Close()
}
