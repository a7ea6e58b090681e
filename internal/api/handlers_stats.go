package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleOracleStats(w http.ResponseWriter, r *http.Request) {
	if s.oracles.EncoderLatency == nil {
		jsonError(w, "oracle stats unavailable", http.StatusServiceUnavailable)
		return
	}

	body := map[string]any{
		"encoder": map[string]any{
			"backend": s.oracles.EncoderBackend,
			"stats":   s.oracles.EncoderLatency.Snapshot(),
		},
	}
	if s.oracles.Verifier != nil && s.oracles.VerifierLatency != nil {
		body["verifier"] = map[string]any{
			"backend": s.oracles.VerifierBackend,
			"stats":   s.oracles.VerifierLatency.Snapshot(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
