package external

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/types"
)

type IClient interface {
	GetHeadNumber(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, height uint64) (*types.Block, error)
}

type Client struct {
	ethClient *ethclient.Client
	cfg       *config.ChainConfig
}

func NewClient(cfg *config.ChainConfig) IClient {
	ethClient, err := ethclient.Dial(cfg.RPCAddrs[0])
	if err != nil {
		panic("new eth client error")
	}
	return &Client{
		ethClient: ethClient,
		cfg:       cfg,
	}
}

// GetHeadNumber returns the finalized head when FinalizedOnly is set, the latest block otherwise.
func (c *Client) GetHeadNumber(ctx context.Context) (uint64, error) {
	if !c.cfg.FinalizedOnly {
		return c.ethClient.BlockNumber(ctx)
	}
	header, err := c.ethClient.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

func (c *Client) GetBlock(ctx context.Context, height uint64) (*types.Block, error) {
	block, err := c.ethClient.BlockByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return nil, err
	}
	return ToBlock(block), nil
}

func ToBlock(block *ethtypes.Block) *types.Block {
	txs := make([]common.Hash, 0, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		txs = append(txs, tx.Hash())
	}
	return &types.Block{
		Height:       block.NumberU64(),
		Hash:         block.Hash(),
		ParentHash:   block.ParentHash(),
		Transactions: txs,
	}
}
