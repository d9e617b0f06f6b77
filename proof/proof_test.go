package proof

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plonkArtifact() *Artifact {
	vkey := [32]byte{0xde, 0xad, 0xbe, 0xef, 0x01}
	return &Artifact{
		Proof: Payload{
			Kind: KindPlonk,
			Plonk: &PlonkBn254Proof{
				PublicInputs:  [2]string{"1", "2"},
				EncodedProof:  "0badc0de",
				RawProof:      "a1b2c3",
				PlonkVkeyHash: vkey,
			},
		},
		PublicValues: NewPublicValues([]byte{0, 1, 2, 255}),
		SP1Version:   "v3.0.0",
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(10, plonkArtifact()))

	artifact, raw, err := store.Load(10)
	require.NoError(t, err)
	assert.Equal(t, KindPlonk, artifact.Proof.Kind)
	assert.Equal(t, []byte{0, 1, 2, 255}, artifact.PublicValues.Bytes())
	assert.True(t, bytes.Contains(raw, []byte(`"Plonk"`)))
	assert.True(t, bytes.Contains(raw, []byte(`"data":[0,1,2,255]`)))
}

func TestStoreNotFound(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 2; i++ {
		_, _, err := store.Load(20)
		assert.True(t, errors.Is(err, ErrProofNotFound))
	}
}

func TestStoreMalformed(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(3), []byte("not json"), 0o644))
	_, _, err := store.Load(3)
	assert.True(t, errors.Is(err, ErrMalformedProof))

	require.NoError(t, os.WriteFile(store.Path(4), []byte(`{"proof":{"Stark":{}},"public_values":{"buffer":{"data":[]}}}`), 0o644))
	_, _, err = store.Load(4)
	assert.True(t, errors.Is(err, ErrUnsupportedBackend))
}

func TestVerifierCallPlonk(t *testing.T) {
	call, err := plonkArtifact().VerifierCall()
	require.NoError(t, err)

	assert.Equal(t, plonkArtifact().Proof.Plonk.PlonkVkeyHash, call.VKey)
	assert.Equal(t, []byte{0, 1, 2, 255}, call.PublicValues)
	assert.Equal(t, "deadbeefa1b2c3", hex.EncodeToString(call.ProofBytes))
}

func TestVerifierCallGroth16(t *testing.T) {
	artifact := &Artifact{
		Proof: Payload{
			Kind:    KindGroth16,
			Groth16: &Groth16Bn254Proof{RawProof: "0x0102", Groth16VkeyHash: [32]byte{9, 8, 7, 6}},
		},
	}
	call, err := artifact.VerifierCall()
	require.NoError(t, err)
	assert.Equal(t, [32]byte{9, 8, 7, 6}, call.VKey)
	assert.Equal(t, "090807060102", hex.EncodeToString(call.ProofBytes))
}

func TestVerifierCallUnsupported(t *testing.T) {
	artifact := &Artifact{Proof: Payload{Kind: KindCompressed}}
	_, err := artifact.VerifierCall()
	assert.True(t, errors.Is(err, ErrUnsupportedBackend))

	bad := plonkArtifact()
	bad.Proof.Plonk.RawProof = "zz"
	_, err = bad.VerifierCall()
	assert.True(t, errors.Is(err, ErrMalformedProof))
}

func TestPayloadOpaqueAndHexPublicValues(t *testing.T) {
	var artifact Artifact
	err := artifactFromJSON(t, `{"proof":{"Compressed":{"vk":1}},"public_values":{"buffer":{"data":"0x0aff"}},"sp1_version":"v3"}`, &artifact)
	require.NoError(t, err)
	assert.Equal(t, KindCompressed, artifact.Proof.Kind)
	assert.JSONEq(t, `{"vk":1}`, string(artifact.Proof.Opaque))
	assert.Equal(t, []byte{0x0a, 0xff}, artifact.PublicValues.Bytes())

	bz, err := artifact.Proof.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Compressed":{"vk":1}}`, string(bz))
}

func TestPayloadRejectsMultipleTags(t *testing.T) {
	var p Payload
	err := p.UnmarshalJSON([]byte(`{"Plonk":{},"Groth16":{}}`))
	assert.True(t, errors.Is(err, ErrMalformedProof))
}

func artifactFromJSON(t *testing.T, content string, artifact *Artifact) error {
	t.Helper()
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(1), []byte(content), 0o644))
	loaded, _, err := store.Load(1)
	if err != nil {
		return err
	}
	*artifact = *loaded
	return nil
}
