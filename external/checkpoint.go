package external

import (
	"context"

	"github.com/twarb/block-prover/db"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/metrics"
)

const FinishedCheckpoint = "finished_height"

// CheckpointAcknowledger persists the finished height, so a restart resumes right after it.
type CheckpointAcknowledger struct {
	dao db.CheckpointDB
}

func NewCheckpointAcknowledger(dao db.CheckpointDB) *CheckpointAcknowledger {
	return &CheckpointAcknowledger{dao: dao}
}

func (a *CheckpointAcknowledger) FinishedHeight(_ context.Context, height uint64) error {
	if err := a.dao.SaveCheckpoint(FinishedCheckpoint, height); err != nil {
		logging.Logger.Errorf("failed to save checkpoint, height=%d, err=%s", height, err.Error())
		return err
	}
	metrics.FinishedHeightGauge.Set(float64(height))
	return nil
}

// Rewind lowers the checkpoint to height if it is ahead of it. Heights above it are delivered again after a restart.
func (a *CheckpointAcknowledger) Rewind(_ context.Context, height uint64) error {
	current, found, err := a.dao.GetCheckpoint(FinishedCheckpoint)
	if err != nil {
		return err
	}
	if !found || current <= height {
		return nil
	}
	if err = a.dao.SaveCheckpoint(FinishedCheckpoint, height); err != nil {
		logging.Logger.Errorf("failed to rewind checkpoint, from=%d, to=%d, err=%s", current, height, err.Error())
		return err
	}
	metrics.FinishedHeightGauge.Set(float64(height))
	logging.Logger.Warningf("rewound checkpoint, from=%d, to=%d", current, height)
	return nil
}

// NextHeight is the first height to deliver: one past the checkpoint, or one past startHeight when
// nothing was acknowledged yet.
func NextHeight(dao db.CheckpointDB, startHeight uint64) (uint64, error) {
	height, found, err := dao.GetCheckpoint(FinishedCheckpoint)
	if err != nil {
		return 0, err
	}
	if !found {
		height = startHeight
	}
	return height + 1, nil
}
