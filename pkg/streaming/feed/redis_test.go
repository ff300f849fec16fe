package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/streambody/pkg/common/errors"
	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

type xreadResult struct {
	streams []redis.XStream
	err     error
}

// fakeReader replays canned XREAD results and records the arguments.
type fakeReader struct {
	mu      sync.Mutex
	results []xreadResult
	calls   []redis.XReadArgs
}

func (f *fakeReader) XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, *a)
	if len(f.results) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, errors.New("no more results"))
	}
	r := f.results[0]
	f.results = f.results[1:]
	return redis.NewXStreamSliceCmdResult(r.streams, r.err)
}

func entries(stream string, msgs ...redis.XMessage) []redis.XStream {
	return []redis.XStream{{Stream: stream, Messages: msgs}}
}

func msg(id, data string) redis.XMessage {
	return redis.XMessage{ID: id, Values: map[string]interface{}{"data": data}}
}

func TestRedisStreamRelaysEntries(t *testing.T) {
	reader := &fakeReader{results: []xreadResult{
		{streams: entries("events", msg("1-0", "alpha"), msg("2-0", "beta"))},
		{err: redis.Nil},
		{streams: entries("events", msg("3-0", "gamma"))},
	}}

	producer, err := RedisStream(reader, "events", RedisConfig{Block: time.Millisecond})
	require.NoError(t, err)

	b, err := body.New(producer, body.WithLoop())
	require.NoError(t, err)

	var got []string
	err = b.Each(context.Background(), func(chunk []byte) error {
		got = append(got, string(chunk))
		return nil
	})

	// The fake runs dry after three reads; the loop ends with that error.
	require.Error(t, err)
	var opErr *gferrors.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "xread", opErr.Operation)

	require.Equal(t, []string{"alpha", "beta", "gamma"}, got)

	require.Len(t, reader.calls, 4)
	require.Equal(t, []string{"events", "$"}, reader.calls[0].Streams)
	require.Equal(t, []string{"events", "2-0"}, reader.calls[1].Streams)
	require.Equal(t, []string{"events", "2-0"}, reader.calls[2].Streams)
	require.Equal(t, []string{"events", "3-0"}, reader.calls[3].Streams)
	require.Equal(t, time.Millisecond, reader.calls[0].Block)
	require.EqualValues(t, 100, reader.calls[0].Count)
}

func TestRedisStreamSkipsEntriesWithoutField(t *testing.T) {
	reader := &fakeReader{results: []xreadResult{
		{streams: entries("events",
			redis.XMessage{ID: "1-0", Values: map[string]interface{}{"other": "x"}},
			redis.XMessage{ID: "2-0", Values: map[string]interface{}{"payload": "kept"}},
		)},
	}}

	producer, err := RedisStream(reader, "events", RedisConfig{Field: "payload", StartID: "0"})
	require.NoError(t, err)

	b, err := body.New(producer)
	require.NoError(t, err)

	var got []string
	require.NoError(t, b.Each(context.Background(), func(chunk []byte) error {
		got = append(got, string(chunk))
		return nil
	}))

	require.Equal(t, []string{"kept"}, got)
	require.Equal(t, []string{"events", "0"}, reader.calls[0].Streams)
}

func TestRedisStreamConsumerGone(t *testing.T) {
	gone := errors.New("client gone")
	reader := &fakeReader{results: []xreadResult{
		{streams: entries("events", msg("1-0", "a"), msg("2-0", "b"))},
	}}

	producer, err := RedisStream(reader, "events", RedisConfig{})
	require.NoError(t, err)

	b, err := body.New(producer, body.WithLoop())
	require.NoError(t, err)

	err = b.Each(context.Background(), func([]byte) error { return gone })
	require.ErrorIs(t, err, gone)
	require.Len(t, reader.calls, 1, "no read after the consumer left")
}

func TestRedisStreamCanceledContext(t *testing.T) {
	reader := &fakeReader{}
	producer, err := RedisStream(reader, "events", RedisConfig{})
	require.NoError(t, err)

	b, err := body.New(producer, body.WithLoop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = b.Each(ctx, func([]byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, reader.calls)
}

func TestRedisStreamValidation(t *testing.T) {
	_, err := RedisStream(nil, "events", RedisConfig{})
	require.True(t, gferrors.IsValidationError(err))

	_, err = RedisStream(&fakeReader{}, "", RedisConfig{})
	require.True(t, gferrors.IsValidationError(err))

	_, err = RedisStream(&fakeReader{}, "events", RedisConfig{Block: -time.Second})
	require.True(t, gferrors.IsValidationError(err))
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := RedisConfig{Field: "body"}.withDefaults()

	require.Equal(t, "body", cfg.Field)
	require.Equal(t, "$", cfg.StartID)
	require.Equal(t, 5*time.Second, cfg.Block)
	require.EqualValues(t, 100, cfg.Count)
}
