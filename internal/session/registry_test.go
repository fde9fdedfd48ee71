package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddReplaces(t *testing.T) {
	r := NewRegistry()
	first, second := NewMockConn("c1"), NewMockConn("c2")

	r.Add(1, "tok", first)
	r.Add(1, "tok", second)

	entries := r.ConnectionsFor(1)
	require.Len(t, entries, 1)
	assert.Same(t, second, entries[0].Conn)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryJoinLeaveSequences(t *testing.T) {
	r := NewRegistry()
	conn := NewMockConn("c")

	steps := []func(){
		func() { r.Add(3, "a", conn) },
		func() { r.Add(3, "a", conn) },
		func() { r.Remove(3, "a") },
		func() { r.Remove(3, "a") },
		func() { r.Add(3, "a", conn) },
		func() { r.Remove(3, "a") },
		func() { r.Add(3, "a", conn) },
	}
	for i, step := range steps {
		step()
		n := 0
		for _, e := range r.ConnectionsFor(3) {
			if e.Token == "a" {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "step %d", i)
	}
	_, ok := r.Lookup(3, "a")
	assert.True(t, ok)
}

func TestRegistryRemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove(42, "nobody")

	r.Add(1, "a", NewMockConn("c"))
	r.Remove(1, "b")
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemoveConnOnlyMatchingConn(t *testing.T) {
	r := NewRegistry()
	old, fresh := NewMockConn("old"), NewMockConn("fresh")

	r.Add(1, "a", old)
	r.Add(1, "a", fresh)

	assert.False(t, r.RemoveConn(1, "a", old))
	got, ok := r.Lookup(1, "a")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	assert.True(t, r.RemoveConn(1, "a", fresh))
	assert.False(t, r.RemoveConn(9, "a", fresh))
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	r.Add(1, "a", NewMockConn("a"))
	r.Add(1, "b", NewMockConn("b"))

	snap := r.ConnectionsFor(1)
	r.Remove(1, "a")
	r.Add(1, "c", NewMockConn("c"))

	assert.Len(t, snap, 2)
	assert.Len(t, r.ConnectionsFor(1), 2)
	assert.Nil(t, r.ConnectionsFor(2))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(game, i int) {
				defer wg.Done()
				token := fmt.Sprintf("tok-%d", i)
				r.Add(game, token, NewMockConn(token))
				_ = r.ConnectionsFor(game)
				if i%2 == 0 {
					r.Remove(game, token)
				}
			}(g, i)
		}
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		assert.Len(t, r.ConnectionsFor(g), 12, "game %d", g)
	}
	assert.Equal(t, 96, r.Len())
}
