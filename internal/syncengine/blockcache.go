package syncengine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// blockFetcher abstracts the indexer call a range fetch ultimately makes,
// so blockCache can be tested without a live gRPC connection.
type blockFetcher func(ctx context.Context, start, end uint64) ([]walletrpc.CompactBlock, error)

// blockCache holds recently fetched ranges and deduplicates concurrent
// in-flight fetches of the same range: the first caller becomes the leader
// and performs the fetch, concurrent callers wait and then re-read from
// cache (spec §4.4.2 "leader/follower coordination").
type blockCache struct {
	mu     sync.RWMutex
	blocks map[uint64]walletrpc.CompactBlock

	group   singleflight.Group
	fetch   blockFetcher
}

func newBlockCache(fetch blockFetcher) *blockCache {
	return &blockCache{
		blocks: make(map[uint64]walletrpc.CompactBlock),
		fetch:  fetch,
	}
}

// FetchRange returns blocks [start, end], serving cached entries directly
// and coordinating a single in-flight fetch per distinct range key among
// concurrent callers.
func (c *blockCache) FetchRange(ctx context.Context, start, end uint64) ([]walletrpc.CompactBlock, error) {
	if out, ok := c.readCached(start, end); ok {
		return out, nil
	}

	key := fmt.Sprintf("%d-%d", start, end)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		blocks, err := c.fetch(ctx, start, end)
		if err != nil {
			return nil, err
		}
		c.store(blocks)
		return blocks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]walletrpc.CompactBlock), nil
}

func (c *blockCache) readCached(start, end uint64) ([]walletrpc.CompactBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]walletrpc.CompactBlock, 0, end-start+1)
	for h := start; h <= end; h++ {
		b, ok := c.blocks[h]
		if !ok {
			return nil, false
		}
		out = append(out, b)
	}
	return out, true
}

func (c *blockCache) store(blocks []walletrpc.CompactBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range blocks {
		c.blocks[b.Height] = b
	}
}

// HashAt returns the cached block hash at height, for reorg detection
// (spec §4.4.3).
func (c *blockCache) HashAt(height uint64) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[height]
	return b.Hash, ok
}

// Evict drops every cached block above height, used after a rollback so a
// stale reorged block is never served from cache again.
func (c *blockCache) Evict(above uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h := range c.blocks {
		if h > above {
			delete(c.blocks, h)
		}
	}
}
