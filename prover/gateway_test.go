package prover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/proof"
)

// writeProver installs a fake prover script and returns its absolute path.
func writeProver(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-rsp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestGateway(t *testing.T, body string) (*Gateway, *proof.Store) {
	t.Helper()
	store := proof.NewStore(filepath.Join(t.TempDir(), "proofs"))
	g, err := NewGateway(&config.ProverConfig{
		Binary:    writeProver(t, body),
		ProofPath: store.Root(),
		RPCURL:    "http://localhost:8545/",
		ChainID:   1337,
	}, store)
	require.NoError(t, err)
	return g, store
}

func TestNewGatewayMissingBinary(t *testing.T) {
	_, err := NewGateway(&config.ProverConfig{Binary: "definitely-not-a-prover-binary"}, proof.NewStore(t.TempDir()))
	assert.True(t, errors.Is(err, ErrProverNotFound))
}

func TestProveSuccessWritesArtifact(t *testing.T) {
	g, store := newTestGateway(t, `echo "$@" > "execution_proof_$2.proof"`)

	outcome := g.Prove(context.Background(), 10)
	require.True(t, outcome.Success(), "%v", outcome.Err)
	assert.Equal(t, uint64(10), outcome.Height)
	assert.Equal(t, store.Path(10), outcome.ProofPath)

	bz, err := os.ReadFile(store.Path(10))
	require.NoError(t, err)
	assert.Equal(t, "--block-number 10 --rpc-url http://localhost:8545/ --chain-id 1337 --prove\n", string(bz))
}

func TestProveNonZeroExit(t *testing.T) {
	g, store := newTestGateway(t, "echo boom >&2\nexit 3")

	outcome := <-g.Dispatch(context.Background(), 11)
	require.False(t, outcome.Success())
	assert.Contains(t, outcome.Err.Error(), "height=11")
	assert.Contains(t, outcome.Err.Error(), "boom")
	_, err := os.Stat(store.Path(11))
	assert.True(t, os.IsNotExist(err))
}

func TestProveTimeout(t *testing.T) {
	g, _ := newTestGateway(t, "exec sleep 5")
	g.timeout = 100 * time.Millisecond

	start := time.Now()
	outcome := g.Prove(context.Background(), 12)
	require.False(t, outcome.Success())
	assert.True(t, errors.Is(outcome.Err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 4*time.Second)
}
