package service

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/metrics"
	"github.com/twarb/block-prover/util"
)

const (
	ProofPath       = "/proofs/{height}"
	LatestProofPath = "/proofs/latest"
)

type ProofResponse struct {
	Code    int64      `json:"code"`
	Message string     `json:"message"`
	Data    *ProofInfo `json:"data,omitempty"`
}

// Mount adds the proof routes to the metrics server. The latest route goes first so it is not read as a height.
func Mount(m *metrics.Metrics, svc Proof) {
	m.Handle(LatestProofPath, HandleGetLatestProof(svc), http.MethodGet)
	m.Handle(ProofPath, HandleGetProof(svc), http.MethodGet)
}

func HandleGetProof(svc Proof) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		height, err := util.StringToUint64(mux.Vars(r)["height"])
		if err != nil {
			writeProof(w, nil, BadRequestErr.Enrich(err.Error()))
			return
		}
		info, err := svc.GetProof(height)
		writeProof(w, info, err)
	}
}

func HandleGetLatestProof(svc Proof) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.GetLatestProof()
		writeProof(w, info, err)
	}
}

func writeProof(w http.ResponseWriter, info *ProofInfo, err error) {
	code, message := Error(err)
	payload := ProofResponse{
		Code:    code,
		Message: message,
	}
	status := http.StatusOK
	if err == nil {
		payload.Data = info
	} else {
		status = int(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err = json.NewEncoder(w).Encode(&payload); err != nil {
		logging.Logger.Errorf("failed to write response, err=%s", err.Error())
	}
}
