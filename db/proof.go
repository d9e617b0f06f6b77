package db

type ProofStatus int

const (
	Skipped      ProofStatus = 0 // the block had no transactions, nothing was proved
	Proved       ProofStatus = 1
	ProveFailed  ProofStatus = 2
	Submitted    ProofStatus = 3
	SubmitFailed ProofStatus = 4
	ProofMissing ProofStatus = 5 // the artifact was not found or could not be decoded at submission time
	Invalidated  ProofStatus = 6 // the block was reorged or reverted after proving
)

func (s ProofStatus) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Proved:
		return "proved"
	case ProveFailed:
		return "prove_failed"
	case Submitted:
		return "submitted"
	case SubmitFailed:
		return "submit_failed"
	case ProofMissing:
		return "proof_missing"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

type Proof struct {
	Id          int64
	Height      uint64      `gorm:"NOT NULL;uniqueIndex:idx_proof_height"`
	Status      ProofStatus `gorm:"NOT NULL;index:idx_proof_status"`
	ProvingTime int64       // milliseconds spent in the prover
	Attempts    int         // submission attempts
	TxHash      string      `gorm:"size:66"`
	Error       string      `gorm:"size:1024"`
	CreatedTime int64       `gorm:"NOT NULL"`
	UpdatedTime int64       `gorm:"NOT NULL"`
}

func (*Proof) TableName() string {
	return "proof"
}

type Checkpoint struct {
	Id          int64
	Name        string `gorm:"NOT NULL;uniqueIndex:idx_checkpoint_name;size:64"`
	Height      uint64 `gorm:"NOT NULL"`
	UpdatedTime int64  `gorm:"NOT NULL"`
}

func (*Checkpoint) TableName() string {
	return "checkpoint"
}
