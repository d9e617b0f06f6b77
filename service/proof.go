package service

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"github.com/twarb/block-prover/db"
	"github.com/twarb/block-prover/proof"
	"github.com/twarb/block-prover/util"
)

type ProofInfo struct {
	Height      uint64 `json:"height"`
	Status      string `json:"status"`
	ProvingTime int64  `json:"proving_time_ms"`
	Attempts    int    `json:"attempts"`
	TxHash      string `json:"tx_hash,omitempty"`
	Error       string `json:"error,omitempty"`
	HasArtifact bool   `json:"has_artifact"`
	UpdatedTime int64  `json:"updated_time"`
}

type Proof interface {
	GetProof(height uint64) (*ProofInfo, error)
	GetLatestProof() (*ProofInfo, error)
}

type ProofService struct {
	proofDB db.ProofDB
	store   *proof.Store
}

func NewProofService(proofDB db.ProofDB, store *proof.Store) Proof {
	return &ProofService{
		proofDB: proofDB,
		store:   store,
	}
}

func (s *ProofService) GetProof(height uint64) (*ProofInfo, error) {
	record, err := s.proofDB.GetProof(height)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundErr.Enrich(util.Uint64ToString(height))
		}
		return nil, err
	}
	return s.toInfo(record), nil
}

func (s *ProofService) GetLatestProof() (*ProofInfo, error) {
	record, err := s.proofDB.GetLatestProof()
	if err != nil {
		return nil, err
	}
	if record.Id == 0 {
		return nil, NotFoundErr
	}
	return s.toInfo(record), nil
}

func (s *ProofService) toInfo(record *db.Proof) *ProofInfo {
	_, statErr := os.Stat(s.store.Path(record.Height))
	return &ProofInfo{
		Height:      record.Height,
		Status:      record.Status.String(),
		ProvingTime: record.ProvingTime,
		Attempts:    record.Attempts,
		TxHash:      record.TxHash,
		Error:       record.Error,
		HasArtifact: statErr == nil,
		UpdatedTime: record.UpdatedTime,
	}
}
