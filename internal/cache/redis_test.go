package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	key    string
	values []interface{}
	err    error
}

func (f *fakePusher) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(int64(len(f.values)))
	}
	return cmd
}

func TestMoveQueueRecordMove(t *testing.T) {
	p := &fakePusher{}
	q := NewMoveQueue(p, "")

	rec := session.MoveRecord{GameID: 4, Username: "alice", Move: "e2e4", Board: "fen", Timestamp: 1700000000000}
	require.NoError(t, q.RecordMove(context.Background(), rec))

	assert.Equal(t, DefaultQueueName, p.key)
	require.Len(t, p.values, 1)

	var got session.MoveRecord
	require.NoError(t, json.Unmarshal(p.values[0].([]byte), &got))
	assert.Equal(t, rec, got)
}

func TestMoveQueueRecordMoveError(t *testing.T) {
	p := &fakePusher{err: errors.New("connection refused")}
	q := NewMoveQueue(p, "moves")

	err := q.RecordMove(context.Background(), session.MoveRecord{GameID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moves")
	assert.Equal(t, "moves", p.key)
}
