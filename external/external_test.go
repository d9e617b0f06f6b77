package external

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/db"
	"github.com/twarb/block-prover/types"
)

type fakeChain struct {
	mtx    sync.Mutex
	head   uint64
	blocks map[uint64]*types.Block
}

func newFakeChain() *fakeChain {
	return &fakeChain{blocks: make(map[uint64]*types.Block)}
}

// build replaces heights [from, to] with blocks whose hashes depend on fork and moves the head to to.
func (c *fakeChain) build(from, to uint64, fork byte) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for h := from; h <= to; h++ {
		b := &types.Block{
			Height:       h,
			Hash:         common.BytesToHash([]byte{fork, byte(h >> 8), byte(h)}),
			Transactions: []common.Hash{common.BytesToHash([]byte{byte(h)})},
		}
		if parent, ok := c.blocks[h-1]; ok && h > 0 {
			b.ParentHash = parent.Hash
		}
		c.blocks[h] = b
	}
	c.head = to
}

func (c *fakeChain) setHead(head uint64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.head = head
}

func (c *fakeChain) GetHeadNumber(_ context.Context) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.head, nil
}

func (c *fakeChain) GetBlock(_ context.Context, height uint64) (*types.Block, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	b, ok := c.blocks[height]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func newTestSource(t *testing.T, chain *fakeChain, next uint64) *PollingSource {
	t.Helper()
	s, err := NewPollingSource(chain, &config.ChainConfig{MaxBatchSize: 2, PollInterval: 1}, next)
	require.NoError(t, err)
	s.out = make(chan types.ChainNotification, 16)
	return s
}

func heights(blocks []*types.Block) []uint64 {
	hs := make([]uint64, len(blocks))
	for i, b := range blocks {
		hs[i] = b.Height
	}
	return hs
}

func pollOnce(t *testing.T, s *PollingSource) (types.ChainNotification, bool) {
	t.Helper()
	caughtUp, err := s.poll(context.Background())
	require.NoError(t, err)
	select {
	case n := <-s.out:
		return n, caughtUp
	default:
		t.Fatal("no notification delivered")
		return types.ChainNotification{}, caughtUp
	}
}

func TestSourceDeliversBatches(t *testing.T) {
	chain := newFakeChain()
	chain.build(0, 5, 1)
	s := newTestSource(t, chain, 1)

	n, caughtUp := pollOnce(t, s)
	assert.Equal(t, types.Committed, n.Kind)
	assert.Equal(t, []uint64{1, 2}, heights(n.Blocks))
	assert.False(t, caughtUp)

	n, _ = pollOnce(t, s)
	assert.Equal(t, []uint64{3, 4}, heights(n.Blocks))
	n, caughtUp = pollOnce(t, s)
	assert.Equal(t, []uint64{5}, heights(n.Blocks))
	assert.True(t, caughtUp)

	caughtUp, err := s.poll(context.Background())
	require.NoError(t, err)
	assert.True(t, caughtUp)
	assert.Empty(t, s.out)
}

func TestSourceDetectsReorg(t *testing.T) {
	chain := newFakeChain()
	chain.build(0, 4, 1)
	s := newTestSource(t, chain, 1)
	pollOnce(t, s)
	pollOnce(t, s)

	chain.build(3, 6, 2)
	n, _ := pollOnce(t, s)
	assert.Equal(t, types.Reorged, n.Kind)
	assert.Equal(t, types.BlockRange{From: 3, To: 4}, n.OldRange)
	assert.Equal(t, types.BlockRange{From: 3, To: 6}, n.NewRange)

	n, _ = pollOnce(t, s)
	assert.Equal(t, types.Committed, n.Kind)
	assert.Equal(t, []uint64{3, 4}, heights(n.Blocks))
	assert.Equal(t, common.BytesToHash([]byte{2, 0, 3}), n.Blocks[0].Hash)
}

func TestSourceDetectsRevert(t *testing.T) {
	chain := newFakeChain()
	chain.build(0, 4, 1)
	s := newTestSource(t, chain, 1)
	pollOnce(t, s)
	pollOnce(t, s)

	chain.setHead(2)
	n, _ := pollOnce(t, s)
	assert.Equal(t, types.Reverted, n.Kind)
	assert.Equal(t, types.BlockRange{From: 3, To: 4}, n.OldRange)
	assert.Equal(t, uint64(3), s.next)
}

func TestSourceRunClosesOnCancel(t *testing.T) {
	chain := newFakeChain()
	chain.build(0, 3, 1)
	s, err := NewPollingSource(chain, &config.ChainConfig{PollInterval: 1}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	n := <-s.Notifications()
	assert.Equal(t, []uint64{1, 2, 3}, heights(n.Blocks))
	cancel()

	select {
	case err = <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop")
	}
	_, ok := <-s.Notifications()
	assert.False(t, ok)
}

func TestToBlock(t *testing.T) {
	header := &ethtypes.Header{Number: big.NewInt(42), ParentHash: common.HexToHash("0x01")}
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000})
	block := ethtypes.NewBlockWithHeader(header).WithBody([]*ethtypes.Transaction{tx}, nil)

	b := ToBlock(block)
	assert.Equal(t, uint64(42), b.Height)
	assert.Equal(t, block.Hash(), b.Hash)
	assert.Equal(t, common.HexToHash("0x01"), b.ParentHash)
	assert.Equal(t, []common.Hash{tx.Hash()}, b.Transactions)
	assert.False(t, b.IsEmpty())

	assert.True(t, ToBlock(ethtypes.NewBlockWithHeader(header)).IsEmpty())
}

func TestCheckpointAcknowledger(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "prover.db")), &gorm.Config{})
	require.NoError(t, err)
	db.InitTables(gdb)
	dao := db.NewProofSvcDB(gdb)

	next, err := NextHeight(dao, 41)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), next)

	ack := NewCheckpointAcknowledger(dao)
	require.NoError(t, ack.FinishedHeight(context.Background(), 50))
	require.NoError(t, ack.FinishedHeight(context.Background(), 52))

	next, err = NextHeight(dao, 41)
	require.NoError(t, err)
	assert.Equal(t, uint64(53), next)
}

func TestCheckpointRewindOnlyLowers(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "prover.db")), &gorm.Config{})
	require.NoError(t, err)
	db.InitTables(gdb)
	dao := db.NewProofSvcDB(gdb)
	ack := NewCheckpointAcknowledger(dao)

	require.NoError(t, ack.Rewind(context.Background(), 10))
	_, found, err := dao.GetCheckpoint(FinishedCheckpoint)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, ack.FinishedHeight(context.Background(), 20))
	require.NoError(t, ack.Rewind(context.Background(), 25))
	next, err := NextHeight(dao, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), next)

	require.NoError(t, ack.Rewind(context.Background(), 14))
	next, err = NextHeight(dao, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), next)
}
