package pipeline

import (
	"github.com/twarb/block-prover/db"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/metrics"
)

// Recorder writes pipeline events into the proof ledger and the prometheus collectors.
type Recorder struct {
	dao db.ProofDB
}

func NewRecorder(dao db.ProofDB) *Recorder {
	return &Recorder{dao: dao}
}

func (r *Recorder) Publish(e Event) {
	var err error
	switch e.Kind {
	case EventSkipped:
		err = r.dao.SaveProvingResult(e.Height, db.Skipped, 0, "")
	case EventProved:
		metrics.ProvedHeightGauge.Set(float64(e.Height))
		metrics.ProvingDurationHistogram.Observe(e.Duration.Seconds())
		metrics.ProvingResultCounter.WithLabelValues("success").Inc()
		err = r.dao.SaveProvingResult(e.Height, db.Proved, e.Duration.Milliseconds(), "")
	case EventProveFailed:
		metrics.ProvingDurationHistogram.Observe(e.Duration.Seconds())
		metrics.ProvingResultCounter.WithLabelValues("failure").Inc()
		err = r.dao.SaveProvingResult(e.Height, db.ProveFailed, e.Duration.Milliseconds(), errString(e.Err))
	case EventSubmitted:
		metrics.SubmissionResultCounter.WithLabelValues(e.Sink, "success").Inc()
		err = r.dao.SaveSubmissionResult(e.Height, db.Submitted, e.Attempts, e.TxHash, "")
	case EventSubmitFailed:
		metrics.SubmissionResultCounter.WithLabelValues(e.Sink, "failure").Inc()
		err = r.dao.SaveSubmissionResult(e.Height, db.SubmitFailed, e.Attempts, e.TxHash, errString(e.Err))
	case EventProofMissing:
		metrics.SubmissionResultCounter.WithLabelValues(e.Sink, "missing").Inc()
		err = r.dao.SaveSubmissionResult(e.Height, db.ProofMissing, 0, "", errString(e.Err))
	case EventInvalidated:
		// the ledger row was already updated by the invalidation itself
		metrics.InvalidatedProofCounter.Inc()
	case EventBatchFinished:
		metrics.BatchCounter.Inc()
	}
	if err != nil {
		logging.Logger.Errorf("failed to record %s event, height=%d, err=%s", e.Kind, e.Height, err.Error())
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
