package cache

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheEvictsOldest(t *testing.T) {
	c, err := NewLocalCache(2)
	require.NoError(t, err)

	c.Set(1, common.HexToHash("0x01"))
	c.Set(2, common.HexToHash("0x02"))
	c.Set(3, common.HexToHash("0x03"))

	_, ok := c.Get(1)
	assert.False(t, ok)
	hash, ok := c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, common.HexToHash("0x03"), hash)
	assert.Equal(t, 2, c.Len())

	c.Remove(3)
	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestLocalCacheDefaultSize(t *testing.T) {
	c, err := NewLocalCache(0)
	require.NoError(t, err)
	for i := uint64(0); i < DefaultCacheSize+10; i++ {
		c.Set(i, common.Hash{})
	}
	assert.Equal(t, DefaultCacheSize, c.Len())
}
