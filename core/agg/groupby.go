package agg

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDropGroup marks a group that the reducer chose not to emit.
// Reduce errors wrapping it are skipped; any other error aborts the run.
var ErrDropGroup = errors.New("group dropped")

// KeyValue is one keyed record travelling from the map stage to the reduce stage.
type KeyValue[K comparable, V any] struct {
	Key   K
	Value V
}

// ReduceFunc turns all values of one key into a single result.
type ReduceFunc[K comparable, V, R any] func(key K, values []V) (R, error)

// GroupReducer groups keyed values and reduces each group once every value
// for that key has been seen.
type GroupReducer[K comparable, V, R any] interface {
	GroupReduce(ctx context.Context, in <-chan KeyValue[K, V], reduce ReduceFunc[K, V, R]) ([]R, error)
}

// ShardedGroupReducer is the in-process GroupReducer. Keys are routed to a
// fixed shard so each shard owns its groups exclusively; shards reduce in
// parallel after the input channel is closed.
type ShardedGroupReducer[K comparable, V, R any] struct {
	Shards  int
	ShardOf func(K) int
}

var _ GroupReducer[int, int, int] = &ShardedGroupReducer[int, int, int]{} // Compile-time check

// NewShardedGroupReducer creates a reducer with the given shard count and key router.
func NewShardedGroupReducer[K comparable, V, R any](shards int, shardOf func(K) int) *ShardedGroupReducer[K, V, R] {
	return &ShardedGroupReducer[K, V, R]{Shards: max(1, shards), ShardOf: shardOf}
}

// GroupReduce drains in, then reduces every group. The returned slice has no
// particular order. The first fatal reduce error cancels the remaining work.
func (g *ShardedGroupReducer[K, V, R]) GroupReduce(ctx context.Context, in <-chan KeyValue[K, V], reduce ReduceFunc[K, V, R]) ([]R, error) {
	shards := max(1, g.Shards)
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	shardCh := make([]chan KeyValue[K, V], shards)
	for i := range shardCh {
		shardCh[i] = make(chan KeyValue[K, V], 256)
	}
	partials := make([][]R, shards)

	var wg sync.WaitGroup
	for i := range shards {
		wg.Go(func() {
			groups := make(map[K][]V)
			for kv := range shardCh[i] {
				groups[kv.Key] = append(groups[kv.Key], kv.Value)
			}
			// Barrier reached for this shard: every value of its keys is present.
			for key, values := range groups {
				if ctx.Err() != nil {
					return
				}
				res, err := reduce(key, values)
				if errors.Is(err, ErrDropGroup) {
					continue
				}
				if err != nil {
					cancel(fmt.Errorf("reduce failed: %w", err))
					return
				}
				partials[i] = append(partials[i], res)
			}
		})
	}

	routeErr := g.route(ctx, in, shardCh)
	for _, ch := range shardCh {
		close(ch)
	}
	wg.Wait()

	if cause := context.Cause(ctx); cause != nil {
		return nil, cause
	}
	if routeErr != nil {
		return nil, routeErr
	}

	var total int
	for _, p := range partials {
		total += len(p)
	}
	results := make([]R, 0, total)
	for _, p := range partials {
		results = append(results, p...)
	}
	return results, nil
}

// route forwards every record to the shard owning its key.
func (g *ShardedGroupReducer[K, V, R]) route(ctx context.Context, in <-chan KeyValue[K, V], shardCh []chan KeyValue[K, V]) error {
	shards := len(shardCh)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case kv, ok := <-in:
			if !ok {
				return nil
			}
			idx := 0
			if g.ShardOf != nil {
				idx = g.ShardOf(kv.Key) % shards
				if idx < 0 {
					idx += shards
				}
			}
			select {
			case shardCh[idx] <- kv:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
