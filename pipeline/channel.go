package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/twarb/block-prover/types"
)

var ErrChannelClosed = errors.New("submission channel closed")

// SubmissionChannel is an unbounded single-producer single-consumer queue of tokens. Send never blocks,
// so the producer can fill a whole batch before the consumer starts.
type SubmissionChannel struct {
	mtx    sync.Mutex
	queue  []types.Token
	closed bool
	notify chan struct{}
}

func NewSubmissionChannel() *SubmissionChannel {
	return &SubmissionChannel{
		notify: make(chan struct{}, 1),
	}
}

func (c *SubmissionChannel) Send(token types.Token) error {
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return ErrChannelClosed
	}
	c.queue = append(c.queue, token)
	c.mtx.Unlock()
	c.wake()
	return nil
}

// Close stops further sends. Tokens already queued can still be received.
func (c *SubmissionChannel) Close() {
	c.mtx.Lock()
	c.closed = true
	c.mtx.Unlock()
	c.wake()
}

// Recv blocks until a token is queued. It returns ErrChannelClosed once the channel is closed and drained.
func (c *SubmissionChannel) Recv(ctx context.Context) (types.Token, error) {
	for {
		c.mtx.Lock()
		if len(c.queue) > 0 {
			token := c.queue[0]
			c.queue = c.queue[1:]
			c.mtx.Unlock()
			return token, nil
		}
		closed := c.closed
		c.mtx.Unlock()
		if closed {
			return types.Token{}, ErrChannelClosed
		}
		select {
		case <-c.notify:
		case <-ctx.Done():
			return types.Token{}, ctx.Err()
		}
	}
}

func (c *SubmissionChannel) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.queue)
}

func (c *SubmissionChannel) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
