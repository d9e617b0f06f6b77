package pipeline

import (
	"context"
	"errors"

	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/types"
)

// Acknowledger reports a height back to the host once every block up to it has been handled.
// Rewind moves an acknowledged height back below blocks that the chain dropped.
type Acknowledger interface {
	FinishedHeight(ctx context.Context, height uint64) error
	Rewind(ctx context.Context, height uint64) error
}

// Invalidator marks stored proofs of a dropped range and returns the affected heights.
type Invalidator interface {
	InvalidateProofs(from, to uint64) ([]uint64, error)
}

// ChainEventConsumer drives the pipeline one notification at a time. A Committed batch is proved and
// submitted completely before its tip is acknowledged and the next notification is read.
type ChainEventConsumer struct {
	batch       *BatchProcessor
	submitter   Submitter
	ack         Acknowledger
	invalidator Invalidator
	sink        EventSink
	state       BatchState
}

func NewChainEventConsumer(batch *BatchProcessor, s Submitter, ack Acknowledger, invalidator Invalidator,
	sink EventSink) *ChainEventConsumer {
	if sink == nil {
		sink = nopSink{}
	}
	return &ChainEventConsumer{
		batch:       batch,
		submitter:   s,
		ack:         ack,
		invalidator: invalidator,
		sink:        sink,
	}
}

func (c *ChainEventConsumer) Batches() uint64 {
	return c.state.Batches()
}

// Run consumes notifications until the source closes or ctx is done.
func (c *ChainEventConsumer) Run(ctx context.Context, notifications <-chan types.ChainNotification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				logging.Logger.Infof("notification source closed, batches=%d", c.Batches())
				return nil
			}
			if err := c.Handle(ctx, n); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// a missed acknowledgment is superseded by the next batch's tip
				logging.Logger.Errorf("failed to handle %s notification, err=%s", n.Kind, err.Error())
			}
		}
	}
}

func (c *ChainEventConsumer) Handle(ctx context.Context, n types.ChainNotification) error {
	switch n.Kind {
	case types.Committed:
		return c.handleCommitted(ctx, n)
	case types.Reorged:
		logging.Logger.Warningf("chain reorged, old=%s, new=%s", n.OldRange, n.NewRange)
		return c.invalidate(ctx, n.OldRange)
	case types.Reverted:
		logging.Logger.Warningf("chain reverted, old=%s", n.OldRange)
		return c.invalidate(ctx, n.OldRange)
	default:
		logging.Logger.Warningf("unknown notification kind %d", n.Kind)
		return nil
	}
}

func (c *ChainEventConsumer) handleCommitted(ctx context.Context, n types.ChainNotification) error {
	tip, ok := n.Tip()
	if !ok {
		logging.Logger.Debugf("empty committed notification")
		return nil
	}

	ch := NewSubmissionChannel()
	if err := c.batch.Process(ctx, &c.state, n.Blocks, ch); err != nil {
		ch.Close()
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- Consume(ctx, ch, c.submitter, c.sink)
	}()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		if errors.Is(err, ErrAbruptTermination) {
			logging.Logger.Errorf("batch not acknowledged, tip=%d, err=%s", tip, err.Error())
		}
		return err
	}

	if c.ack != nil {
		if err = c.ack.FinishedHeight(ctx, tip); err != nil {
			return err
		}
	}
	c.sink.Publish(Event{Kind: EventBatchFinished, Height: tip})
	logging.Logger.Infof("finished batch, tip=%d, blocks=%d", tip, len(n.Blocks))
	return nil
}

func (c *ChainEventConsumer) invalidate(ctx context.Context, old types.BlockRange) error {
	if c.ack != nil && old.From > 0 {
		if err := c.ack.Rewind(ctx, old.From-1); err != nil {
			return err
		}
	}
	if c.invalidator == nil {
		return nil
	}
	heights, err := c.invalidator.InvalidateProofs(old.From, old.To)
	if err != nil {
		return err
	}
	for _, h := range heights {
		c.sink.Publish(Event{Kind: EventInvalidated, Height: h})
	}
	if len(heights) > 0 {
		logging.Logger.Warningf("invalidated proofs, range=%s, count=%d", old, len(heights))
	}
	return nil
}
