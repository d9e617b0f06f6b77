package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type ProofDao interface {
	ProofDB
	CheckpointDB
}

type ProofSvcDB struct {
	db *gorm.DB
}

func NewProofSvcDB(db *gorm.DB) ProofDao {
	return &ProofSvcDB{
		db,
	}
}

type ProofDB interface {
	GetProof(height uint64) (*Proof, error)
	GetLatestProof() (*Proof, error)
	GetProofsInRange(from, to uint64) ([]*Proof, error)
	SaveProvingResult(height uint64, status ProofStatus, provingTime int64, errMsg string) error
	SaveSubmissionResult(height uint64, status ProofStatus, attempts int, txHash, errMsg string) error
	InvalidateProofs(from, to uint64) ([]uint64, error)
}

// GetProof returns gorm.ErrRecordNotFound when the height was never seen.
func (d *ProofSvcDB) GetProof(height uint64) (*Proof, error) {
	proof := Proof{}
	err := d.db.Model(&Proof{}).Where("height = ?", height).Take(&proof).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (d *ProofSvcDB) GetLatestProof() (*Proof, error) {
	proof := Proof{}
	err := d.db.Model(&Proof{}).Order("height desc").Take(&proof).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return &proof, nil
}

func (d *ProofSvcDB) GetProofsInRange(from, to uint64) ([]*Proof, error) {
	proofs := make([]*Proof, 0)
	if err := d.db.Where("height >= ? and height <= ?", from, to).Order("height asc").Find(&proofs).Error; err != nil {
		return proofs, err
	}
	return proofs, nil
}

func (d *ProofSvcDB) SaveProvingResult(height uint64, status ProofStatus, provingTime int64, errMsg string) error {
	return d.upsert(height, map[string]interface{}{
		"status":       status,
		"proving_time": provingTime,
		"error":        truncate(errMsg),
	})
}

func (d *ProofSvcDB) SaveSubmissionResult(height uint64, status ProofStatus, attempts int, txHash, errMsg string) error {
	return d.upsert(height, map[string]interface{}{
		"status":   status,
		"attempts": attempts,
		"tx_hash":  txHash,
		"error":    truncate(errMsg),
	})
}

func (d *ProofSvcDB) upsert(height uint64, updates map[string]interface{}) error {
	now := time.Now().Unix()
	updates["updated_time"] = now
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		err := dbTx.Model(&Proof{}).Where("height = ?", height).Take(&Proof{}).Error
		if err == nil {
			return dbTx.Model(&Proof{}).Where("height = ?", height).Updates(updates).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		for column, zero := range map[string]interface{}{
			"status": Skipped, "proving_time": int64(0), "attempts": 0, "tx_hash": "", "error": "",
		} {
			if _, ok := updates[column]; !ok {
				updates[column] = zero
			}
		}
		updates["height"] = height
		updates["created_time"] = now
		return dbTx.Model(&Proof{}).Create(updates).Error
	})
}

// InvalidateProofs marks every proved or submitted record within [from, to] as Invalidated and returns
// the affected heights.
func (d *ProofSvcDB) InvalidateProofs(from, to uint64) ([]uint64, error) {
	heights := make([]uint64, 0)
	err := d.db.Transaction(func(dbTx *gorm.DB) error {
		query := dbTx.Model(&Proof{}).
			Where("height >= ? and height <= ?", from, to).
			Where("status not in (?)", []ProofStatus{Skipped, Invalidated})
		if err := query.Order("height asc").Pluck("height", &heights).Error; err != nil {
			return err
		}
		if len(heights) == 0 {
			return nil
		}
		return dbTx.Model(&Proof{}).Where("height in (?)", heights).Updates(map[string]interface{}{
			"status":       Invalidated,
			"updated_time": time.Now().Unix(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return heights, nil
}

type CheckpointDB interface {
	GetCheckpoint(name string) (height uint64, found bool, err error)
	SaveCheckpoint(name string, height uint64) error
}

func (d *ProofSvcDB) GetCheckpoint(name string) (uint64, bool, error) {
	checkpoint := Checkpoint{}
	err := d.db.Model(&Checkpoint{}).Where("name = ?", name).Take(&checkpoint).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return checkpoint.Height, true, nil
}

func (d *ProofSvcDB) SaveCheckpoint(name string, height uint64) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		now := time.Now().Unix()
		err := dbTx.Create(&Checkpoint{Name: name, Height: height, UpdatedTime: now}).Error
		if err == nil || !IsDuplicateEntry(err) {
			return err
		}
		return dbTx.Model(&Checkpoint{}).Where("name = ?", name).Updates(map[string]interface{}{
			"height":       height,
			"updated_time": now,
		}).Error
	})
}

func InitTables(db *gorm.DB) {
	var err error
	if err = db.AutoMigrate(&Proof{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&Checkpoint{}); err != nil {
		panic(err)
	}
}

const maxErrorLen = 1024

func truncate(msg string) string {
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}
