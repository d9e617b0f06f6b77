package proof

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProofNotFound      = errors.New("proof not found")
	ErrMalformedProof     = errors.New("malformed proof artifact")
	ErrUnsupportedBackend = errors.New("unsupported proof backend")
)

// Kind is the proving backend that produced an artifact's payload.
type Kind uint8

const (
	KindCore Kind = iota
	KindCompressed
	KindPlonk
	KindGroth16
)

var kindNames = map[Kind]string{
	KindCore:       "Core",
	KindCompressed: "Compressed",
	KindPlonk:      "Plonk",
	KindGroth16:    "Groth16",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func parseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedBackend, name)
}

// Artifact is the persisted output of proving one block.
type Artifact struct {
	Proof        Payload      `json:"proof"`
	PublicValues PublicValues `json:"public_values"`
	SP1Version   string       `json:"sp1_version"`
}

type PublicValues struct {
	Buffer struct {
		Data ByteArray `json:"data"`
	} `json:"buffer"`
}

func NewPublicValues(data []byte) PublicValues {
	var pv PublicValues
	pv.Buffer.Data = data
	return pv
}

func (pv PublicValues) Bytes() []byte {
	return pv.Buffer.Data
}

// PlonkBn254Proof is the wrapped PLONK proof over BN254.
type PlonkBn254Proof struct {
	PublicInputs  [2]string `json:"public_inputs"`
	EncodedProof  string    `json:"encoded_proof"`
	RawProof      string    `json:"raw_proof"`
	PlonkVkeyHash [32]byte  `json:"plonk_vkey_hash"`
}

// Groth16Bn254Proof is the wrapped Groth16 proof over BN254.
type Groth16Bn254Proof struct {
	PublicInputs    [2]string `json:"public_inputs"`
	EncodedProof    string    `json:"encoded_proof"`
	RawProof        string    `json:"raw_proof"`
	Groth16VkeyHash [32]byte  `json:"groth16_vkey_hash"`
}

// Payload is a closed union over the supported backends, encoded as a single-key JSON object
// {"<Kind>": {...}}. Core and Compressed payloads are kept opaque.
type Payload struct {
	Kind    Kind
	Plonk   *PlonkBn254Proof
	Groth16 *Groth16Bn254Proof
	Opaque  json.RawMessage
}

func (p Payload) MarshalJSON() ([]byte, error) {
	var inner interface{}
	switch p.Kind {
	case KindPlonk:
		inner = p.Plonk
	case KindGroth16:
		inner = p.Groth16
	case KindCore, KindCompressed:
		if p.Opaque == nil {
			inner = json.RawMessage("null")
		} else {
			inner = p.Opaque
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBackend, p.Kind)
	}
	return json.Marshal(map[string]interface{}{p.Kind.String(): inner})
}

func (p *Payload) UnmarshalJSON(bz []byte) error {
	var variants map[string]json.RawMessage
	if err := json.Unmarshal(bz, &variants); err != nil {
		return err
	}
	if len(variants) != 1 {
		return fmt.Errorf("%w: expected exactly one backend tag, got %d", ErrMalformedProof, len(variants))
	}
	for name, raw := range variants {
		kind, err := parseKind(name)
		if err != nil {
			return err
		}
		*p = Payload{Kind: kind}
		switch kind {
		case KindPlonk:
			p.Plonk = new(PlonkBn254Proof)
			return json.Unmarshal(raw, p.Plonk)
		case KindGroth16:
			p.Groth16 = new(Groth16Bn254Proof)
			return json.Unmarshal(raw, p.Groth16)
		default:
			p.Opaque = raw
		}
	}
	return nil
}

// VerifierCall holds the arguments of verifyProof(bytes32 programVKey, bytes publicValues, bytes proofBytes).
type VerifierCall struct {
	VKey         [32]byte
	PublicValues []byte
	ProofBytes   []byte
}

// VerifierCall decodes the artifact into on-chain call arguments. The proof bytes are prefixed with the
// first four bytes of the backend vkey hash, which verifier gateways use as a route selector.
func (a *Artifact) VerifierCall() (*VerifierCall, error) {
	var (
		vkeyHash [32]byte
		rawProof string
	)
	switch a.Proof.Kind {
	case KindPlonk:
		if a.Proof.Plonk == nil {
			return nil, fmt.Errorf("%w: empty plonk payload", ErrMalformedProof)
		}
		vkeyHash, rawProof = a.Proof.Plonk.PlonkVkeyHash, a.Proof.Plonk.RawProof
	case KindGroth16:
		if a.Proof.Groth16 == nil {
			return nil, fmt.Errorf("%w: empty groth16 payload", ErrMalformedProof)
		}
		vkeyHash, rawProof = a.Proof.Groth16.Groth16VkeyHash, a.Proof.Groth16.RawProof
	default:
		return nil, fmt.Errorf("%w: %s cannot be verified on chain", ErrUnsupportedBackend, a.Proof.Kind)
	}
	proofBz, err := hex.DecodeString(strings.TrimPrefix(rawProof, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: raw proof is not hex, err=%s", ErrMalformedProof, err.Error())
	}
	// programVKey carries the backend vkey hash as-is, not the SP1 program vkey.
	return &VerifierCall{
		VKey:         vkeyHash,
		PublicValues: a.PublicValues.Bytes(),
		ProofBytes:   append(append(make([]byte, 0, 4+len(proofBz)), vkeyHash[:4]...), proofBz...),
	}, nil
}

// ByteArray is a byte string encoded as a JSON array of numbers. A 0x-prefixed hex string is accepted on input.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

func (b *ByteArray) UnmarshalJSON(bz []byte) error {
	var hexStr string
	if err := json.Unmarshal(bz, &hexStr); err == nil {
		decoded, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedProof, err.Error())
		}
		*b = decoded
		return nil
	}
	var ints []uint16
	if err := json.Unmarshal(bz, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v > 0xff {
			return fmt.Errorf("%w: byte value %d out of range", ErrMalformedProof, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
