// Package feed provides producers for long-lived bodies that relay events
// from an external source. They are meant to be looped: each invocation
// reads one batch and returns.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	gfcontext "github.com/vnykmshr/streambody/pkg/common/context"
	gferrors "github.com/vnykmshr/streambody/pkg/common/errors"
	"github.com/vnykmshr/streambody/pkg/common/validation"
	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

// XReader is the subset of a Redis client used to tail a stream.
// *redis.Client, *redis.ClusterClient and redis.UniversalClient satisfy it.
type XReader interface {
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
}

// RedisConfig controls how RedisStream reads.
type RedisConfig struct {
	// Field is the entry field written to the sink.
	// Default: "data"
	Field string `yaml:"field"`

	// StartID is the stream ID to read after. "$" only delivers entries
	// added after the first read; "0" replays the whole stream.
	// Default: "$"
	StartID string `yaml:"start_id"`

	// Block is how long one XREAD waits for new entries.
	// Default: 5s
	Block time.Duration `yaml:"block"`

	// Count caps the entries returned by one XREAD.
	// Default: 100
	Count int64 `yaml:"count"`

	// Logger overrides the global zerolog logger.
	Logger *zerolog.Logger `yaml:"-"`
}

// DefaultRedisConfig returns the default RedisStream configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Field:   "data",
		StartID: "$",
		Block:   5 * time.Second,
		Count:   100,
	}
}

func (c RedisConfig) withDefaults() RedisConfig {
	d := DefaultRedisConfig()
	if c.Field == "" {
		c.Field = d.Field
	}
	if c.StartID == "" {
		c.StartID = d.StartID
	}
	if c.Block == 0 {
		c.Block = d.Block
	}
	if c.Count == 0 {
		c.Count = d.Count
	}
	return c
}

// RedisStream returns a producer that tails a Redis stream. Each invocation
// issues one blocking XREAD and writes the configured field of every entry
// as its own chunk. A read that times out writes nothing and returns nil, so
// a looped body keeps waiting.
//
// The producer remembers the last entry it delivered and must not be shared
// between bodies.
func RedisStream(client XReader, stream string, cfg RedisConfig) (body.Producer, error) {
	if client == nil {
		return nil, gferrors.NewValidationError("feed", "client", nil, "cannot be nil")
	}
	if err := validation.ValidateNotEmpty("feed", "stream", stream); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if cfg.Block < 0 {
		return nil, gferrors.NewValidationError("feed", "block", cfg.Block, "must be non-negative").
			WithHint("use 0 for the 5s default")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().Str("component", "feed").Str("stream", stream).Logger()

	lastID := cfg.StartID

	return func(sink body.Sink) error {
		ctx := sink.Context()
		if gfcontext.IsCanceled(ctx) {
			return ctx.Err()
		}

		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   cfg.Count,
			Block:   cfg.Block,
		}).Result()
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			return gferrors.NewOperationError("feed", "xread", err).
				WithContext(fmt.Sprintf("stream=%s id=%s", stream, lastID))
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				value, ok := msg.Values[cfg.Field]
				if !ok {
					logger.Debug().Str("id", msg.ID).Str("field", cfg.Field).Msg("entry without field, skipped")
					continue
				}
				if _, err := sink.Print(value); err != nil {
					return err
				}
			}
		}
		return nil
	}, nil
}
