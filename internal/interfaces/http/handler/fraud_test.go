package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-risk-engine/internal/application/dto"
	fraudapp "fraud-risk-engine/internal/application/fraud"
	"fraud-risk-engine/internal/domain/fraud"
	"fraud-risk-engine/internal/infrastructure/http/router"
	"fraud-risk-engine/internal/infrastructure/ml"
	"fraud-risk-engine/internal/infrastructure/rules"
	"fraud-risk-engine/internal/interfaces/http/handler"
)

type stubRepo struct {
	mu     sync.Mutex
	stored map[uuid.UUID]*fraud.FraudAssessment
}

func (r *stubRepo) Save(_ context.Context, a *fraud.FraudAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[a.TransactionID] = a
	return nil
}

func (r *stubRepo) FindByTransactionID(_ context.Context, id uuid.UUID) (*fraud.FraudAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.stored[id]; ok {
		return a, nil
	}
	return nil, fraud.ErrAssessmentNotFound
}

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, string, string, any) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *stubRepo) {
	t.Helper()

	repo := &stubRepo{stored: make(map[uuid.UUID]*fraud.FraudAssessment)}
	ruleEngine := rules.NewEngine(nil)

	engine := fraudapp.NewDetectionEngine(fraudapp.Params{
		Extractor:  ml.NewFeatureExtractor(),
		Rules:      ruleEngine,
		Calculator: fraud.NewRiskScoreCalculator(),
		Fallback:   ml.NewFallbackScorer(),
		Repository: repo,
		Publisher:  stubPublisher{},
		Options: fraudapp.Options{
			AssessmentsTopic: "fraud-assessments",
			HighRiskTopic:    "high-risk-transactions",
			FeedbackTopic:    "model-feedback",
		},
	})
	t.Cleanup(engine.Close)

	ruleInfos := make([]handler.RuleInfo, 0)
	for _, rule := range ruleEngine.Rules() {
		ruleInfos = append(ruleInfos, handler.RuleInfo{ID: rule.ID, Weight: rule.Weight, Blocking: rule.Blocking})
	}

	assessmentHandler := handler.NewAssessmentHandler(engine, repo, ruleInfos)
	healthHandler := handler.NewHealthHandler("test")

	server := httptest.NewServer(router.NewRouter(assessmentHandler, healthHandler, "/metrics"))
	t.Cleanup(server.Close)
	return server, repo
}

func assessBody(transactionID uuid.UUID) []byte {
	req := dto.AssessTransactionRequest{
		TransactionID:         transactionID.String(),
		UserID:                uuid.New().String(),
		Amount:                "50",
		Timestamp:             time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		TransactionCountToday: 1,
	}
	body, _ := json.Marshal(req)
	return body
}

func TestAssessEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	transactionID := uuid.New()
	resp, err := http.Post(server.URL+"/api/v1/fraud/assess", "application/json", bytes.NewReader(assessBody(transactionID)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.AssessmentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, transactionID, out.TransactionID)
	assert.Equal(t, "LOW", out.RiskLevel)
	assert.Equal(t, "APPROVED", out.Status)
	assert.Equal(t, "PROCEED", out.RecommendedAction)
}

func TestAssessEndpoint_RejectsBadPayload(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/v1/fraud/assess", "application/json", bytes.NewReader([]byte(`{"transaction_id":"not-a-uuid","amount":"50"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatchEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	var batch dto.AssessBatchRequest
	for i := 0; i < 3; i++ {
		var req dto.AssessTransactionRequest
		require.NoError(t, json.Unmarshal(assessBody(uuid.New()), &req))
		batch.Transactions = append(batch.Transactions, req)
	}
	body, _ := json.Marshal(batch)

	resp, err := http.Post(server.URL+"/api/v1/fraud/assess/batch", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Assessments []dto.AssessmentResponse `json:"assessments"`
		Count       int                      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 3, out.Count)
	assert.Len(t, out.Assessments, 3)
}

func TestBatchEndpoint_RejectsEmptyBatch(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/v1/fraud/assess/batch", "application/json", bytes.NewReader([]byte(`{"transactions":[]}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAssessmentEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	transactionID := uuid.New()
	resp, err := http.Post(server.URL+"/api/v1/fraud/assess", "application/json", bytes.NewReader(assessBody(transactionID)))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/fraud/assessments/" + transactionID.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.AssessmentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, transactionID, out.TransactionID)
}

func TestGetAssessmentEndpoint_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/fraud/assessments/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewEndpoint(t *testing.T) {
	server, repo := newTestServer(t)

	// Seed a flagged assessment directly
	transactionID := uuid.New()
	a := &fraud.FraudAssessment{
		ID:            uuid.New(),
		TransactionID: transactionID,
		RiskScore:     0.45,
		RiskLevel:     fraud.RiskLevelMedium,
		Status:        fraud.StatusFlagged,
	}
	require.NoError(t, repo.Save(context.Background(), a))

	body := fmt.Sprintf(`{"reviewer_id":%q,"verdict":"FALSE_POSITIVE"}`, uuid.NewString())
	resp, err := http.Post(
		server.URL+"/api/v1/fraud/assessments/"+transactionID.String()+"/review",
		"application/json",
		bytes.NewReader([]byte(body)),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.AssessmentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "FALSE_POSITIVE", out.Status)
	assert.NotNil(t, out.ReviewedBy)
}

func TestReviewEndpoint_RejectsApprovedAssessment(t *testing.T) {
	server, _ := newTestServer(t)

	transactionID := uuid.New()
	resp, err := http.Post(server.URL+"/api/v1/fraud/assess", "application/json", bytes.NewReader(assessBody(transactionID)))
	require.NoError(t, err)
	resp.Body.Close()

	body := fmt.Sprintf(`{"reviewer_id":%q,"verdict":"CONFIRMED_FRAUD"}`, uuid.NewString())
	resp, err = http.Post(
		server.URL+"/api/v1/fraud/assessments/"+transactionID.String()+"/review",
		"application/json",
		bytes.NewReader([]byte(body)),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFeedbackEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body := fmt.Sprintf(`{"transaction_id":%q,"outcome":"FAILED"}`, uuid.NewString())
	resp, err := http.Post(server.URL+"/api/v1/fraud/feedback", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestFeedbackEndpoint_RejectsUnknownOutcome(t *testing.T) {
	server, _ := newTestServer(t)

	body := fmt.Sprintf(`{"transaction_id":%q,"outcome":"MAYBE"}`, uuid.NewString())
	resp, err := http.Post(server.URL+"/api/v1/fraud/feedback", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRuleAndFeatureIntrospection(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/fraud/rules")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rulesOut struct {
		Rules []handler.RuleInfo `json:"rules"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rulesOut))
	assert.Equal(t, 17, rulesOut.Count)

	resp, err = http.Get(server.URL + "/api/v1/fraud/features")
	require.NoError(t, err)
	defer resp.Body.Close()

	var featuresOut struct {
		Features []string `json:"features"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&featuresOut))
	assert.Equal(t, fraud.FeatureCount, featuresOut.Count)
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
