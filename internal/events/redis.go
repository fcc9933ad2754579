package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey    = "events:posts"
	DefaultMaxLen = 1000

	// BRPOP timeouts below a second are rounded up by the client
	defaultPollTimeout = time.Second
)

// ErrMalformed wraps a feed entry that could not be decoded.
var ErrMalformed = errors.New("malformed event")

// RedisFeed is a bounded Redis list of events. Publish pushes on the left,
// Pop takes the oldest entry from the right.
type RedisFeed struct {
	rdb         *redis.Client
	key         string
	maxLen      int64
	pollTimeout time.Duration
}

// NewRedisFeed connects to Redis and verifies the connection.
func NewRedisFeed(addr string) (*RedisFeed, error) {
	// ctx deadlines must bound the blocking BRPOP in Pop
	rdb := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisFeed{
		rdb:         rdb,
		key:         DefaultKey,
		maxLen:      DefaultMaxLen,
		pollTimeout: defaultPollTimeout,
	}, nil
}

// WithMaxLen changes how many events the list retains.
func (f *RedisFeed) WithMaxLen(n int64) *RedisFeed {
	if n > 0 {
		f.maxLen = n
	}
	return f
}

func (f *RedisFeed) Close() error {
	return f.rdb.Close()
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pipe := f.rdb.Pipeline()
	pipe.LPush(ctx, f.key, data)
	pipe.LTrim(ctx, f.key, 0, f.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Pop waits for the oldest event (blocking). Each BRPOP is bounded by
// pollTimeout so a cancelled ctx is noticed even without a deadline.
func (f *RedisFeed) Pop(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		result, err := f.rdb.BRPop(ctx, f.pollTimeout, f.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Event{}, ctxErr
			}
			return Event{}, err
		}

		var ev Event
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return ev, nil
	}
}
