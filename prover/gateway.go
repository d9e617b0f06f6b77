package prover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/proof"
	"github.com/twarb/block-prover/util"
)

var ErrProverNotFound = errors.New("prover executable not found")

// maxOutputTail bounds how much prover output ends up in an error.
const maxOutputTail = 512

// waitDelay bounds how long output pipes are drained after the prover is killed.
const waitDelay = 5 * time.Second

// Outcome is the result of proving one block. The artifact at ProofPath is only expected when Err is nil.
type Outcome struct {
	Height    uint64
	ProofPath string
	Duration  time.Duration
	Err       error
}

func (o Outcome) Success() bool {
	return o.Err == nil
}

// Gateway runs the external prover for one block at a time:
//
//	<binary> --block-number <height> --rpc-url <url> --chain-id <id> --prove
//
// The prover runs inside the proof directory and writes execution_proof_<height>.proof there.
type Gateway struct {
	binary  string
	rpcURL  string
	chainID uint64
	timeout time.Duration
	store   *proof.Store
}

// NewGateway resolves the prover binary once. A missing binary is a configuration error.
func NewGateway(cfg *config.ProverConfig, store *proof.Store) (*Gateway, error) {
	binary, err := exec.LookPath(cfg.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("%w: %s, err=%s", ErrProverNotFound, cfg.GetBinary(), err.Error())
	}
	if err = os.MkdirAll(store.Root(), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create proof dir %s, err=%w", store.Root(), err)
	}
	return &Gateway{
		binary:  binary,
		rpcURL:  cfg.RPCURL,
		chainID: cfg.ChainID,
		timeout: cfg.GetProveTimeout(),
		store:   store,
	}, nil
}

func (g *Gateway) args(height uint64) []string {
	return []string{
		"--block-number", util.Uint64ToString(height),
		"--rpc-url", g.rpcURL,
		"--chain-id", util.Uint64ToString(g.chainID),
		"--prove",
	}
}

// Prove blocks until the prover exits or the prove timeout elapses. Success is a zero exit status; the
// artifact itself is not inspected.
func (g *Gateway) Prove(ctx context.Context, height uint64) Outcome {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, g.binary, g.args(height)...)
	cmd.Dir = g.store.Root()
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()

	outcome := Outcome{
		Height:    height,
		ProofPath: g.store.Path(height),
		Duration:  time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", g.timeout, ctx.Err())
		}
		outcome.Err = fmt.Errorf("prover failed, height=%d, err=%w, output=%s", height, err, util.TailString(string(output), maxOutputTail))
	}
	return outcome
}

// Dispatch runs Prove on a dedicated goroutine. The returned channel yields exactly one Outcome.
func (g *Gateway) Dispatch(ctx context.Context, height uint64) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		done <- g.Prove(ctx, height)
	}()
	return done
}
