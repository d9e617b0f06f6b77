package submitter

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/proof"
)

const (
	verifyProofMethod = "verifyProof"

	VerifierABI = `[{"inputs":[{"internalType":"bytes32","name":"programVKey","type":"bytes32"},{"internalType":"bytes","name":"publicValues","type":"bytes"},{"internalType":"bytes","name":"proofBytes","type":"bytes"}],"name":"verifyProof","outputs":[],"stateMutability":"view","type":"function"}]`
)

// L1Client is the subset of ethclient.Client needed to broadcast verifier calls.
type L1Client interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// L1VerificationSubmitter sends every artifact as a verifyProof transaction to a verifier contract.
// A transaction is broadcast once, there is no receipt wait and no retry.
type L1VerificationSubmitter struct {
	client   L1Client
	store    *proof.Store
	verifier abi.ABI
	contract common.Address

	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	gasLimit  uint64
	gasFeeCap *big.Int
	gasTipCap *big.Int
	timeout   time.Duration

	// nonce is fetched once and then advanced locally after every broadcast.
	nonce *uint64
}

func NewL1VerificationSubmitter(cfg *config.L1Config, privateKey string, client L1Client, store *proof.Store,
	timeout time.Duration) (*L1VerificationSubmitter, error) {
	verifier, err := abi.JSON(strings.NewReader(VerifierABI))
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid verifier contract address %s", cfg.ContractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid l1 private key, err=%w", err)
	}
	return &L1VerificationSubmitter{
		client:    client,
		store:     store,
		verifier:  verifier,
		contract:  common.HexToAddress(cfg.ContractAddress),
		key:       key,
		from:      crypto.PubkeyToAddress(key.PublicKey),
		chainID:   new(big.Int).SetUint64(cfg.GetChainID()),
		gasLimit:  cfg.GetGasLimit(),
		gasFeeCap: big.NewInt(cfg.GetMaxFeePerGas()),
		gasTipCap: big.NewInt(cfg.GetMaxPriorityFeePerGas()),
		timeout:   timeout,
	}, nil
}

func (s *L1VerificationSubmitter) Name() string {
	return config.SinkL1
}

func (s *L1VerificationSubmitter) From() common.Address {
	return s.from
}

func (s *L1VerificationSubmitter) Submit(ctx context.Context, height uint64) Outcome {
	outcome := Outcome{Height: height}
	artifact, _, err := s.store.Load(height)
	if err != nil {
		if errors.Is(err, proof.ErrUnsupportedBackend) || errors.Is(err, proof.ErrMalformedProof) {
			outcome.Result, outcome.Err = ResultDecodeFailed, err
		} else {
			outcome.Result, outcome.Err = ResultNotFound, err
		}
		logging.Logger.Warningf("cannot load proof, height=%d, err=%s", height, err.Error())
		return outcome
	}
	call, err := artifact.VerifierCall()
	if err != nil {
		logging.Logger.Errorf("failed to decode proof, height=%d, err=%s", height, err.Error())
		outcome.Result, outcome.Err = ResultDecodeFailed, err
		return outcome
	}
	data, err := s.verifier.Pack(verifyProofMethod, call.VKey, call.PublicValues, call.ProofBytes)
	if err != nil {
		outcome.Result, outcome.Err = ResultDecodeFailed, err
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	nonce, err := s.nextNonce(sendCtx)
	if err != nil {
		outcome.Result, outcome.Err = ResultFailed, fmt.Errorf("failed to get nonce, err=%w", err)
		return outcome
	}
	tx := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: s.gasTipCap,
		GasFeeCap: s.gasFeeCap,
		Gas:       s.gasLimit,
		To:        &s.contract,
		Data:      data,
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		outcome.Result, outcome.Err = ResultFailed, err
		return outcome
	}
	outcome.Attempts = 1
	if err = s.client.SendTransaction(sendCtx, signed); err != nil {
		s.nonce = nil
		logging.Logger.Errorf("failed to send verifier transaction, height=%d, err=%s", height, err.Error())
		outcome.Result, outcome.Err = ResultFailed, err
		return outcome
	}
	next := nonce + 1
	s.nonce = &next
	outcome.Result, outcome.TxHash = ResultSubmitted, signed.Hash().Hex()
	logging.Logger.Infof("sent verifier transaction, height=%d, tx_hash=%s, nonce=%d", height, outcome.TxHash, nonce)
	return outcome
}

func (s *L1VerificationSubmitter) nextNonce(ctx context.Context) (uint64, error) {
	if s.nonce != nil {
		return *s.nonce, nil
	}
	return s.client.PendingNonceAt(ctx, s.from)
}
