package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fraud-risk-engine/internal/domain/fraud"
)

// ModelScorer calls an external model inference endpoint. It satisfies the
// same fraud.Scorer contract as the fallback; the engine swaps between them
// at construction time, not at runtime.
type ModelScorer struct {
	endpoint     string
	modelVersion string
	client       *http.Client
}

// NewModelScorer creates a scorer backed by a remote inference service.
func NewModelScorer(endpoint, modelVersion string, timeout time.Duration) *ModelScorer {
	return &ModelScorer{
		endpoint:     endpoint,
		modelVersion: modelVersion,
		client:       &http.Client{Timeout: timeout},
	}
}

// ModelVersion returns the configured model version tag.
func (s *ModelScorer) ModelVersion() string {
	return s.modelVersion
}

type inferenceRequest struct {
	ModelVersion string    `json:"model_version"`
	Features     []float64 `json:"features"`
}

type inferenceResponse struct {
	Score float64 `json:"score"`
}

// Score implements fraud.Scorer. Any transport error, non-200 response or
// out-of-range score is returned as an error; the engine treats all of them
// as "use the fallback".
func (s *ModelScorer) Score(ctx context.Context, features fraud.FeatureVector) (float64, error) {
	body, err := json.Marshal(inferenceRequest{
		ModelVersion: s.modelVersion,
		Features:     features,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inference service returned status %d: %w", resp.StatusCode, fraud.ErrScorerUnavailable)
	}

	var out inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode inference response: %w", err)
	}
	if out.Score < 0 || out.Score > 1 {
		return 0, fmt.Errorf("inference score %f out of range [0,1]", out.Score)
	}
	return out.Score, nil
}
