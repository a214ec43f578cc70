package agg

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(pairs ...KeyValue[string, int]) <-chan KeyValue[string, int] {
	ch := make(chan KeyValue[string, int], len(pairs))
	for _, p := range pairs {
		ch <- p
	}
	close(ch)
	return ch
}

func shardOfString(s string) int {
	h := 0
	for _, r := range s {
		h = h*31 + int(r)
	}
	return h
}

type groupSum struct {
	key   string
	total int
	count int
}

func sumReduce(key string, values []int) (groupSum, error) {
	total := 0
	for _, v := range values {
		total += v
	}
	return groupSum{key: key, total: total, count: len(values)}, nil
}

func TestShardedGroupReducerSeesWholeGroups(t *testing.T) {
	for _, shards := range []int{1, 3, 8} {
		g := NewShardedGroupReducer[string, int, groupSum](shards, shardOfString)
		res, err := g.GroupReduce(context.Background(), feed(
			KeyValue[string, int]{"a", 1},
			KeyValue[string, int]{"b", 10},
			KeyValue[string, int]{"a", 2},
			KeyValue[string, int]{"c", 100},
			KeyValue[string, int]{"a", 3},
			KeyValue[string, int]{"b", 20},
		), sumReduce)
		require.NoError(t, err)

		slices.SortFunc(res, func(x, y groupSum) int {
			if x.key < y.key {
				return -1
			}
			if x.key > y.key {
				return 1
			}
			return 0
		})
		assert.Equal(t, []groupSum{{"a", 6, 3}, {"b", 30, 2}, {"c", 100, 1}}, res)
	}
}

func TestShardedGroupReducerNilRouter(t *testing.T) {
	g := NewShardedGroupReducer[string, int, groupSum](4, nil)
	res, err := g.GroupReduce(context.Background(), feed(KeyValue[string, int]{"x", 1}, KeyValue[string, int]{"x", 2}), sumReduce)
	require.NoError(t, err)
	assert.Equal(t, []groupSum{{"x", 3, 2}}, res)
}

func TestShardedGroupReducerSkipsDroppedGroups(t *testing.T) {
	g := NewShardedGroupReducer[string, int, groupSum](2, shardOfString)
	res, err := g.GroupReduce(context.Background(), feed(
		KeyValue[string, int]{"keep", 1},
		KeyValue[string, int]{"drop", 2},
	), func(key string, values []int) (groupSum, error) {
		if key == "drop" {
			return groupSum{}, ErrDropGroup
		}
		return sumReduce(key, values)
	})
	require.NoError(t, err)
	assert.Equal(t, []groupSum{{"keep", 1, 1}}, res)
}

func TestShardedGroupReducerFatalReduceError(t *testing.T) {
	boom := errors.New("boom")
	g := NewShardedGroupReducer[string, int, groupSum](2, shardOfString)
	_, err := g.GroupReduce(context.Background(), feed(KeyValue[string, int]{"a", 1}), func(string, []int) (groupSum, error) {
		return groupSum{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestShardedGroupReducerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := make(chan KeyValue[string, int]) // never closed
	g := NewShardedGroupReducer[string, int, groupSum](2, shardOfString)
	_, err := g.GroupReduce(ctx, in, sumReduce)
	assert.ErrorIs(t, err, context.Canceled)
}
