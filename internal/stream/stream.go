// internal/stream/stream.go
// Change-feed bridge over Redis pub/sub. Chat and notification services
// publish change events here; live subscriptions consume them. Each
// subscription is a single ordered stream: payloads are delivered in
// publish order and delivery stops when the context is cancelled.

package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrStoreUnavailable indicates the change feed could not be reached
// after exhausting retries.
var ErrStoreUnavailable = errors.New("change feed unavailable")

// Publisher pushes change events onto a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber opens a long-lived ordered stream of change events.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Options tune subscription establishment and buffering.
type Options struct {
	BufferSize   int
	RetryMax     int
	RetryBackoff time.Duration
}

// Bus is the Redis-backed implementation of Publisher and Subscriber.
type Bus struct {
	rdb  *redis.Client
	opts Options
	log  *zap.SugaredLogger
}

// NewBus creates a change-feed bus over the given Redis client.
func NewBus(rdb *redis.Client, opts Options, log *zap.Logger) *Bus {
	if opts.BufferSize < 1 {
		opts.BufferSize = 64
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	return &Bus{
		rdb:  rdb,
		opts: opts,
		log:  log.Sugar(),
	}
}

// Publish sends one payload to every current subscriber of the channel.
// Write failures are surfaced to the caller, not retried: the caller
// already persisted the underlying record and decides what a lost live
// event means for it.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a stream for the channel. Establishing the
// subscription is retried with bounded backoff; once established,
// payloads flow until ctx is cancelled, at which point the returned
// channel is closed and the Redis subscription released.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub, err := b.open(ctx, channel)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte, b.opts.BufferSize)

	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// open establishes the Redis subscription, retrying transient failures.
func (b *Bus) open(ctx context.Context, channel string) (*redis.PubSub, error) {
	var lastErr error

	for attempt := 0; attempt <= b.opts.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.opts.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		pubsub := b.rdb.Subscribe(ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			lastErr = err
			b.log.Warnw("subscribe attempt failed",
				"channel", channel,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}
		return pubsub, nil
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, channel, lastErr)
}
