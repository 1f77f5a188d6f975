package ml_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-risk-engine/internal/domain/fraud"
	"fraud-risk-engine/internal/infrastructure/ml"
)

func TestModelScorer_Success(t *testing.T) {
	var gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModelVersion string    `json:"model_version"`
			Features     []float64 `json:"features"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotVersion = req.ModelVersion
		assert.Len(t, req.Features, fraud.FeatureCount)

		json.NewEncoder(w).Encode(map[string]float64{"score": 0.72})
	}))
	defer server.Close()

	scorer := ml.NewModelScorer(server.URL, "v2.1.0", time.Second)

	score, err := scorer.Score(context.Background(), make(fraud.FeatureVector, fraud.FeatureCount))
	require.NoError(t, err)
	assert.InDelta(t, 0.72, score, 1e-9)
	assert.Equal(t, "v2.1.0", gotVersion)
	assert.Equal(t, "v2.1.0", scorer.ModelVersion())
}

func TestModelScorer_Non200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	scorer := ml.NewModelScorer(server.URL, "v1", time.Second)

	_, err := scorer.Score(context.Background(), make(fraud.FeatureVector, fraud.FeatureCount))
	assert.ErrorIs(t, err, fraud.ErrScorerUnavailable)
}

func TestModelScorer_OutOfRangeScoreIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"score": 1.7})
	}))
	defer server.Close()

	scorer := ml.NewModelScorer(server.URL, "v1", time.Second)

	_, err := scorer.Score(context.Background(), make(fraud.FeatureVector, fraud.FeatureCount))
	assert.Error(t, err)
}

func TestModelScorer_UnreachableEndpoint(t *testing.T) {
	scorer := ml.NewModelScorer("http://127.0.0.1:1", "v1", 200*time.Millisecond)

	_, err := scorer.Score(context.Background(), make(fraud.FeatureVector, fraud.FeatureCount))
	assert.Error(t, err)
}
