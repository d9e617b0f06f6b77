package proof

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/twarb/block-prover/types"
)

// Store resolves artifacts by block height under a root directory. The pipeline never deletes them.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Path(height uint64) string {
	return filepath.Join(s.root, types.GetProofName(height))
}

// Load reads and parses the artifact of height. It also returns the file contents as read, so they can be
// forwarded verbatim.
func (s *Store) Load(height uint64) (*Artifact, []byte, error) {
	bz, err := os.ReadFile(s.Path(height))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: height=%d", ErrProofNotFound, height)
		}
		return nil, nil, err
	}
	var artifact Artifact
	if err = json.Unmarshal(bz, &artifact); err != nil {
		if errors.Is(err, ErrUnsupportedBackend) || errors.Is(err, ErrMalformedProof) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: height=%d, err=%s", ErrMalformedProof, height, err.Error())
	}
	return &artifact, bz, nil
}

// Save writes an artifact for height. The prover normally does this itself.
func (s *Store) Save(height uint64, artifact *Artifact) error {
	bz, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(s.root, os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(s.Path(height), bz, 0o644)
}
