package pipeline

import (
	"context"
	"sync"

	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/prover"
	"github.com/twarb/block-prover/types"
)

// Prover proves one block. The returned channel yields exactly one outcome.
type Prover interface {
	Dispatch(ctx context.Context, height uint64) <-chan prover.Outcome
}

// BatchState is shared by every batch of one consumer. Holding its lock for a whole batch keeps
// batches from interleaving, and batches counts the ones that ran to completion.
type BatchState struct {
	mtx     sync.Mutex
	batches uint64
}

func (s *BatchState) Batches() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.batches
}

// BatchProcessor turns the blocks of a Committed notification into tokens on a SubmissionChannel.
type BatchProcessor struct {
	prover Prover
	sink   EventSink
}

func NewBatchProcessor(p Prover, sink EventSink) *BatchProcessor {
	if sink == nil {
		sink = nopSink{}
	}
	return &BatchProcessor{
		prover: p,
		sink:   sink,
	}
}

// Process emits one Skip or Ready per block, in input order, followed by End.
// Blocks without transactions are never proved. A failed proof still yields Ready, the submitter
// decides what a missing artifact means. End is only sent when every block was handled.
func (b *BatchProcessor) Process(ctx context.Context, state *BatchState, blocks []*types.Block, ch *SubmissionChannel) error {
	state.mtx.Lock()
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			state.mtx.Unlock()
			return err
		}
		if block.IsEmpty() {
			logging.Logger.Debugf("skipping empty block, height=%d", block.Height)
			b.sink.Publish(Event{Kind: EventSkipped, Height: block.Height})
			if err := ch.Send(types.Skip(block.Height)); err != nil {
				state.mtx.Unlock()
				return err
			}
			continue
		}

		var outcome prover.Outcome
		select {
		case outcome = <-b.prover.Dispatch(ctx, block.Height):
		case <-ctx.Done():
			state.mtx.Unlock()
			return ctx.Err()
		}
		if outcome.Success() {
			logging.Logger.Infof("proved block, height=%d, proving_time=%s", block.Height, outcome.Duration)
			b.sink.Publish(Event{Kind: EventProved, Height: block.Height, Duration: outcome.Duration})
		} else {
			logging.Logger.Errorf("failed to prove block, height=%d, proving_time=%s, err=%s",
				block.Height, outcome.Duration, outcome.Err.Error())
			b.sink.Publish(Event{Kind: EventProveFailed, Height: block.Height, Duration: outcome.Duration, Err: outcome.Err})
		}
		if err := ch.Send(types.Ready(block.Height)); err != nil {
			state.mtx.Unlock()
			return err
		}
	}
	state.batches++
	total := state.batches
	state.mtx.Unlock()

	logging.Logger.Infof("processed batch, blocks=%d, batches=%d", len(blocks), total)
	return ch.Send(types.End())
}
