package submitter

import "errors"

var ErrRetriesExhausted = errors.New("submission retries exhausted")

type Result uint8

const (
	ResultSubmitted Result = iota
	// ResultNotFound means the artifact was missing or unreadable, the submission is skipped.
	ResultNotFound
	// ResultDecodeFailed means the artifact could not be turned into a verifier call.
	ResultDecodeFailed
	// ResultExhausted means every attempt up to the retry ceiling failed.
	ResultExhausted
	// ResultFailed is a failure that is not retried (signing, broadcast, cancellation).
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSubmitted:
		return "submitted"
	case ResultNotFound:
		return "not_found"
	case ResultDecodeFailed:
		return "decode_failed"
	case ResultExhausted:
		return "exhausted"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports what happened to one submission. Attempts counts outbound requests actually made.
type Outcome struct {
	Height   uint64
	Result   Result
	Attempts int
	TxHash   string
	Err      error
}
