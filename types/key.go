package types

import (
	"fmt"
	"strings"

	"github.com/twarb/block-prover/util"
)

const (
	proofNamePrefix = "execution_proof_"
	proofNameSuffix = ".proof"
)

func GetProofName(height uint64) string {
	return fmt.Sprintf("%s%d%s", proofNamePrefix, height, proofNameSuffix)
}

func ParseProofName(name string) (height uint64, err error) {
	if !strings.HasPrefix(name, proofNamePrefix) || !strings.HasSuffix(name, proofNameSuffix) {
		return 0, fmt.Errorf("invalid proof name %s", name)
	}
	return util.StringToUint64(strings.TrimSuffix(strings.TrimPrefix(name, proofNamePrefix), proofNameSuffix))
}
