// Package historian drains move records from a Redis list and persists them in
// batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source is the subset of the Redis client the historian pops from.
type Source interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Sink persists a batch of move records.
type Sink interface {
	InsertMoves(ctx context.Context, recs []session.MoveRecord) error
}

type Config struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	// PopTimeout bounds each BLPop so shutdown and timed flushes are noticed.
	PopTimeout time.Duration
	// RetryDelay is how long Run waits after a failed BLPop.
	RetryDelay time.Duration
}

// Service captures move records and flushes them either when the batch is
// full or when the flush interval elapses.
type Service struct {
	src    Source
	sink   Sink
	cfg    Config
	logger *logrus.Logger

	batchMu sync.Mutex
	batch   []session.MoveRecord
}

func New(src Source, sink Sink, logger *logrus.Logger, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Service{
		src:    src,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		batch:  make([]session.MoveRecord, 0, cfg.BatchSize),
	}
}

// Run reads from the queue until ctx is cancelled, then flushes whatever is
// still buffered.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithField("queue", s.cfg.Queue).Info("historian started")
	defer s.logger.Info("historian stopped")

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Flush(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.WithError(err).Error("flush failed")
			}
		default:
			if err := s.popOne(ctx); err != nil {
				s.pause(ctx, s.cfg.RetryDelay)
			}
		}
	}
}

// popOne moves at most one record from the queue into the batch. It returns
// an error only when Redis itself failed.
func (s *Service) popOne(ctx context.Context) error {
	res, err := s.src.BLPop(ctx, s.cfg.PopTimeout, s.cfg.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil
		}
		s.logger.WithError(err).Error("BLPop failed")
		return err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil
	}

	var rec session.MoveRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		s.logger.WithError(err).Warn("invalid move record")
		return nil
	}
	s.append(ctx, rec)
	return nil
}

func (s *Service) pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) append(ctx context.Context, rec session.MoveRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		if err := s.Flush(ctx); err != nil {
			s.logger.WithError(err).Error("flush failed")
		}
	}
}

// Flush writes the buffered batch to the sink. A failed batch is put back in
// front of anything buffered since, so it is retried on the next flush.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return nil
	}
	pending := make([]session.MoveRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.InsertMoves(ctx, pending); err != nil {
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return err
	}
	s.logger.WithField("count", len(pending)).Debug("flushed moves")
	return nil
}

// Pending reports how many records are buffered.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
