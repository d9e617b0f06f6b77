package pipeline

import (
	"context"
	"errors"

	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/submitter"
	"github.com/twarb/block-prover/types"
)

var ErrAbruptTermination = errors.New("submission channel closed before end of batch")

// Submitter delivers the artifact of one height to a sink.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, height uint64) submitter.Outcome
}

// Consume drains ch until End, submitting every Ready height in order. Skip tokens are ignored.
// If the channel closes without End it returns ErrAbruptTermination.
func Consume(ctx context.Context, ch *SubmissionChannel, s Submitter, sink EventSink) error {
	if sink == nil {
		sink = nopSink{}
	}
	for {
		token, err := ch.Recv(ctx)
		if err != nil {
			if errors.Is(err, ErrChannelClosed) {
				logging.Logger.Errorf("submission channel closed without end token")
				return ErrAbruptTermination
			}
			return err
		}
		switch token.Kind {
		case types.TokenSkip:
			continue
		case types.TokenEnd:
			return nil
		case types.TokenReady:
			sink.Publish(submissionEvent(s.Name(), s.Submit(ctx, token.Height)))
		}
	}
}

func submissionEvent(sink string, outcome submitter.Outcome) Event {
	e := Event{
		Height:   outcome.Height,
		Sink:     sink,
		Attempts: outcome.Attempts,
		TxHash:   outcome.TxHash,
		Err:      outcome.Err,
	}
	switch outcome.Result {
	case submitter.ResultSubmitted:
		e.Kind = EventSubmitted
	case submitter.ResultNotFound:
		e.Kind = EventProofMissing
	default:
		e.Kind = EventSubmitFailed
	}
	return e
}
