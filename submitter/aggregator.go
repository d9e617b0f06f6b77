package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/retry"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/proof"
)

const (
	MethodSendProof = "twarb_sendProof"
	ProofTypeSP1    = "SP1Proof"

	jsonRPCVersion = "2.0"
	maxBodyInError = 256
)

type SendProofParams struct {
	Type       string          `json:"type"`
	Identifier string          `json:"identifier"`
	Proof      json.RawMessage `json:"proof"`
}

type JSONRPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	ID      int               `json:"id"`
	Params  []SendProofParams `json:"params"`
}

// AggregatorSubmitter posts artifacts to a remote aggregator as twarb_sendProof JSON-RPC requests.
// Non-2xx responses and transport errors are both retried, up to maxRetries after the first attempt.
type AggregatorSubmitter struct {
	hc            *http.Client
	url           string
	identifier    string
	store         *proof.Store
	maxRetries    int
	retryInterval time.Duration
}

func NewAggregatorSubmitter(cfg *config.SubmitterConfig, store *proof.Store) *AggregatorSubmitter {
	transport := &http.Transport{
		DisableCompression:  true,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &http.Client{
		Timeout:   cfg.GetRequestTimeout(),
		Transport: transport,
	}
	return &AggregatorSubmitter{
		hc:            client,
		url:           cfg.AggregatorURL,
		identifier:    cfg.Identifier,
		store:         store,
		maxRetries:    cfg.GetMaxRetries(),
		retryInterval: cfg.GetRetryInterval(),
	}
}

func (s *AggregatorSubmitter) Name() string {
	return config.SinkAggregator
}

func (s *AggregatorSubmitter) Submit(ctx context.Context, height uint64) Outcome {
	outcome := Outcome{Height: height}
	_, artifact, err := s.store.Load(height)
	if err != nil {
		logging.Logger.Warningf("proof not found, height=%d, err=%s", height, err.Error())
		outcome.Result, outcome.Err = ResultNotFound, err
		return outcome
	}
	body, err := json.Marshal(&JSONRPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  MethodSendProof,
		ID:      1,
		Params: []SendProofParams{{
			Type:       ProofTypeSP1,
			Identifier: s.identifier,
			Proof:      artifact,
		}},
	})
	if err != nil {
		outcome.Result, outcome.Err = ResultNotFound, err
		return outcome
	}

	_, err = retry.Do(ctx, s.maxRetries+1, retry.Fixed(s.retryInterval), func() (struct{}, error) {
		outcome.Attempts++
		postErr := s.post(ctx, body)
		if postErr != nil {
			logging.Logger.Warningf("failed to send proof to aggregator, height=%d, attempt=%d, err=%s",
				height, outcome.Attempts, postErr.Error())
		}
		return struct{}{}, postErr
	})
	switch {
	case err == nil:
		outcome.Result = ResultSubmitted
		logging.Logger.Infof("sent proof to aggregator, height=%d, attempts=%d", height, outcome.Attempts)
	case ctx.Err() != nil:
		outcome.Result, outcome.Err = ResultFailed, ctx.Err()
	default:
		outcome.Result = ResultExhausted
		outcome.Err = fmt.Errorf("%w after %d attempts: %s", ErrRetriesExhausted, outcome.Attempts, err.Error())
		logging.Logger.Errorf("giving up sending proof to aggregator, height=%d, err=%s", height, outcome.Err.Error())
	}
	return outcome
}

func (s *AggregatorSubmitter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBz, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyInError))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("received non-2xx response status: %s, body=%s", resp.Status, string(respBz))
	}
	return nil
}
