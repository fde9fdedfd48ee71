package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out queued payloads and reports redis.Nil once empty.
type fakeSource struct {
	mu       sync.Mutex
	payloads []string
}

func (f *fakeSource) push(t *testing.T, rec session.MoveRecord) {
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	f.mu.Lock()
	f.payloads = append(f.payloads, string(data))
	f.mu.Unlock()
}

func (f *fakeSource) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		time.Sleep(time.Millisecond)
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	p := f.payloads[0]
	f.payloads = f.payloads[1:]
	return redis.NewStringSliceResult([]string{keys[0], p}, nil)
}

// downSource fails every pop as if Redis were unreachable.
type downSource struct {
	mu    sync.Mutex
	calls int
}

func (d *downSource) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return redis.NewStringSliceResult(nil, errors.New("dial tcp: connection refused"))
}

func (d *downSource) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeSink struct {
	mu      sync.Mutex
	batches [][]session.MoveRecord
	err     error
}

func (f *fakeSink) InsertMoves(ctx context.Context, recs []session.MoveRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, recs)
	return nil
}

func (f *fakeSink) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestFlushesWhenBatchIsFull(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := &fakeSource{}
	sink := &fakeSink{}
	svc := New(src, sink, logger, Config{Queue: "moves", BatchSize: 2, FlushInterval: time.Hour})

	src.push(t, session.MoveRecord{GameID: 1, Move: "e2e4"})
	src.push(t, session.MoveRecord{GameID: 1, Move: "e7e5"})

	ctx := context.Background()
	svc.popOne(ctx)
	assert.Equal(t, 1, svc.Pending())
	assert.Equal(t, 0, sink.total())

	svc.popOne(ctx)
	assert.Equal(t, 0, svc.Pending())
	require.Len(t, sink.batches, 1)
	assert.Equal(t, "e7e5", sink.batches[0][1].Move)
}

func TestInvalidPayloadIsSkipped(t *testing.T) {
	logger, hook := test.NewNullLogger()
	src := &fakeSource{payloads: []string{"{not json"}}
	svc := New(src, &fakeSink{}, logger, Config{Queue: "moves"})

	svc.popOne(context.Background())

	assert.Equal(t, 0, svc.Pending())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "invalid move record", hook.LastEntry().Message)
}

func TestFailedFlushIsRetained(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sink := &fakeSink{err: errors.New("db down")}
	svc := New(&fakeSource{}, sink, logger, Config{Queue: "moves", BatchSize: 10})

	svc.append(context.Background(), session.MoveRecord{GameID: 1, Move: "e2e4"})
	require.Error(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, svc.Pending())

	sink.err = nil
	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 0, svc.Pending())
	assert.Equal(t, 1, sink.total())
}

func TestRunFlushesOnShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := &fakeSource{}
	sink := &fakeSink{}
	svc := New(src, sink, logger, Config{Queue: "moves", BatchSize: 100, FlushInterval: time.Hour})

	for i := 0; i < 3; i++ {
		src.push(t, session.MoveRecord{GameID: 7, Move: "a2a3"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Pending() == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("historian did not stop")
	}
	assert.Equal(t, 3, sink.total())
}

func TestRunBacksOffWhenRedisFails(t *testing.T) {
	logger, hook := test.NewNullLogger()
	src := &downSource{}
	svc := New(src, &fakeSink{}, logger, Config{Queue: "moves", FlushInterval: time.Hour, RetryDelay: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 175*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Run(ctx))

	assert.GreaterOrEqual(t, src.count(), 1)
	assert.LessOrEqual(t, src.count(), 5)
	errs := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "BLPop failed" {
			errs++
		}
	}
	assert.GreaterOrEqual(t, errs, 1)
	assert.LessOrEqual(t, errs, src.count())
}
