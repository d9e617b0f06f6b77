package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Block is the part of a host block the pipeline cares about. Immutable once observed.
type Block struct {
	Height       uint64
	Hash         common.Hash
	ParentHash   common.Hash
	Transactions []common.Hash
}

func (b *Block) IsEmpty() bool {
	return len(b.Transactions) == 0
}

// BlockRange is an inclusive range of block heights.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r BlockRange) Contains(height uint64) bool {
	return height >= r.From && height <= r.To
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.From, r.To)
}

type NotificationKind uint8

const (
	Committed NotificationKind = iota
	Reorged
	Reverted
)

func (k NotificationKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Reorged:
		return "reorged"
	case Reverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// ChainNotification is produced by the host node. Blocks is set for Committed, OldRange for Reorged and
// Reverted, NewRange for Reorged only.
type ChainNotification struct {
	Kind     NotificationKind
	Blocks   []*Block
	OldRange BlockRange
	NewRange BlockRange
}

func NewCommitted(blocks []*Block) ChainNotification {
	return ChainNotification{Kind: Committed, Blocks: blocks}
}

func NewReorged(oldRange, newRange BlockRange) ChainNotification {
	return ChainNotification{Kind: Reorged, OldRange: oldRange, NewRange: newRange}
}

func NewReverted(old BlockRange) ChainNotification {
	return ChainNotification{Kind: Reverted, OldRange: old}
}

// Tip returns the highest block height of a Committed notification.
func (n ChainNotification) Tip() (uint64, bool) {
	if n.Kind != Committed || len(n.Blocks) == 0 {
		return 0, false
	}
	tip := n.Blocks[0].Height
	for _, b := range n.Blocks[1:] {
		if b.Height > tip {
			tip = b.Height
		}
	}
	return tip, true
}
