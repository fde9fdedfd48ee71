// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian consumes move records from.
const DefaultQueueName = "chesslive_moves"

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Pusher is the subset of the Redis client MoveQueue needs.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// MoveQueue publishes accepted moves onto a Redis list. It implements
// session.MoveRecorder.
type MoveQueue struct {
	rdb   Pusher
	queue string
}

func NewMoveQueue(rdb Pusher, queue string) *MoveQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &MoveQueue{rdb: rdb, queue: queue}
}

// RecordMove serializes rec to JSON and pushes it to the tail of the queue.
func (q *MoveQueue) RecordMove(ctx context.Context, rec session.MoveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal move record: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}
