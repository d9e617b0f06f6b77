package external

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/twarb/block-prover/cache"
	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/types"
)

const RPCTimeout = 20 * time.Second

// PollingSource follows the chain head over RPC and turns its progress into chain notifications.
// Notifications are delivered on an unbuffered channel, so a slow consumer slows down polling.
type PollingSource struct {
	client   IClient
	hashes   cache.Cache
	window   uint64
	next     uint64
	maxBatch uint64
	interval time.Duration
	out      chan types.ChainNotification
}

// NewPollingSource starts delivering at height next.
func NewPollingSource(client IClient, cfg *config.ChainConfig, next uint64) (*PollingSource, error) {
	hashes, err := cache.NewLocalCache(cfg.GetReorgCacheSize())
	if err != nil {
		return nil, err
	}
	return &PollingSource{
		client:   client,
		hashes:   hashes,
		window:   cfg.GetReorgCacheSize(),
		next:     next,
		maxBatch: cfg.GetMaxBatchSize(),
		interval: cfg.GetPollInterval(),
		out:      make(chan types.ChainNotification),
	}, nil
}

func (s *PollingSource) Notifications() <-chan types.ChainNotification {
	return s.out
}

// Run polls until ctx is done and closes the notification channel on return.
func (s *PollingSource) Run(ctx context.Context) error {
	defer close(s.out)
	logging.Logger.Infof("start polling chain, next=%d", s.next)
	for {
		caughtUp, err := s.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Logger.Errorf("failed to poll chain, next=%d, err=%s", s.next, err.Error())
		}
		if err == nil && !caughtUp {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

// poll delivers at most one notification. It reports whether the source has caught up with the head.
func (s *PollingSource) poll(ctx context.Context) (bool, error) {
	head, err := s.headNumber(ctx)
	if err != nil {
		return true, err
	}
	if s.next > 0 && head+1 < s.next {
		old := types.BlockRange{From: head + 1, To: s.next - 1}
		logging.Logger.Warningf("chain head moved backwards, head=%d, delivered=%d", head, s.next-1)
		if err = s.emit(ctx, types.NewReverted(old)); err != nil {
			return true, err
		}
		s.forget(old)
		s.next = head + 1
		return true, nil
	}
	if head < s.next {
		return true, nil
	}

	to := head
	if to-s.next+1 > s.maxBatch {
		to = s.next + s.maxBatch - 1
	}
	blocks := make([]*types.Block, 0, to-s.next+1)
	for h := s.next; h <= to; h++ {
		block, err := s.block(ctx, h)
		if err != nil {
			return true, err
		}
		if len(blocks) > 0 {
			if block.ParentHash != blocks[len(blocks)-1].Hash {
				// the chain changed while fetching, deliver the consistent prefix
				to = h - 1
				break
			}
		} else if parent, ok := s.parent(h); ok && block.ParentHash != parent {
			return true, s.reorg(ctx, head)
		}
		blocks = append(blocks, block)
	}

	if err = s.emit(ctx, types.NewCommitted(blocks)); err != nil {
		return true, err
	}
	for _, b := range blocks {
		s.hashes.Set(b.Height, b.Hash)
	}
	s.next = to + 1
	return to == head, nil
}

// reorg finds the first delivered height that is no longer canonical, bounded by the hash window.
func (s *PollingSource) reorg(ctx context.Context, head uint64) error {
	fork := s.next
	for h := s.next - 1; ; h-- {
		cached, ok := s.hashes.Get(h)
		if !ok {
			logging.Logger.Warningf("reorg deeper than hash window, assuming fork at %d", fork)
			break
		}
		block, err := s.block(ctx, h)
		if err != nil {
			return err
		}
		if block.Hash == cached {
			break
		}
		fork = h
		if h == 0 {
			break
		}
	}
	old := types.BlockRange{From: fork, To: s.next - 1}
	newRange := types.BlockRange{From: fork, To: head}
	logging.Logger.Warningf("chain reorg detected, old=%s, new=%s", old, newRange)
	if err := s.emit(ctx, types.NewReorged(old, newRange)); err != nil {
		return err
	}
	s.forget(old)
	s.next = fork
	return nil
}

func (s *PollingSource) parent(height uint64) (common.Hash, bool) {
	if height == 0 {
		return common.Hash{}, false
	}
	return s.hashes.Get(height - 1)
}

func (s *PollingSource) forget(r types.BlockRange) {
	for h := r.To; h >= r.From && r.To-h < s.window; h-- {
		s.hashes.Remove(h)
		if h == 0 {
			break
		}
	}
}

func (s *PollingSource) emit(ctx context.Context, n types.ChainNotification) error {
	select {
	case s.out <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PollingSource) headNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, RPCTimeout)
	defer cancel()
	return s.client.GetHeadNumber(ctx)
}

func (s *PollingSource) block(ctx context.Context, height uint64) (*types.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, RPCTimeout)
	defer cancel()
	return s.client.GetBlock(ctx, height)
}
