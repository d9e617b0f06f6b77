package cache

import (
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// Cache keeps the hashes of recently delivered blocks by height.
type Cache interface {
	Get(height uint64) (common.Hash, bool)
	Set(height uint64, hash common.Hash)
	Remove(height uint64)
	Len() int
}

const DefaultCacheSize = 256

type LocalCache struct {
	*lru.Cache
}

func NewLocalCache(size uint64) (Cache, error) {
	if size == 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(int(size))
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache,
	}, nil
}

func (c *LocalCache) Get(height uint64) (common.Hash, bool) {
	value, ok := c.Cache.Get(height)
	if !ok {
		return common.Hash{}, false
	}
	return value.(common.Hash), true
}

func (c *LocalCache) Set(height uint64, hash common.Hash) {
	c.Cache.Add(height, hash)
}

func (c *LocalCache) Remove(height uint64) {
	c.Cache.Remove(height)
}
