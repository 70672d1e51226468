package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Scorecard/internal/broker"
	"github.com/MikeSquared-Agency/Scorecard/internal/config"
	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
	"github.com/MikeSquared-Agency/Scorecard/internal/store"
)

// MockStore implements store.Store for handler tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveReport(ctx context.Context, r *report.Report) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockStore) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockStore) ListReports(ctx context.Context, filter store.ReportFilter) ([]*report.Report, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.Report), args.Error(1)
}

func (m *MockStore) GetStats(ctx context.Context) (*store.ReportStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ReportStats), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// MockHermes implements hermes.Client.
type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}

func (m *MockHermes) Close() {}

func setupTestRouter(t *testing.T) (http.Handler, *MockStore, *MockHermes) {
	t.Helper()
	ms := &MockStore{}
	mh := &MockHermes{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := report.NewAssembler(report.DefaultPipelines(), scoring.DefaultLadders(), logger)
	require.NoError(t, err)
	b := broker.New(ms, mh, a, nil, &config.Config{}, logger)
	return NewRouter(ms, b, "test-token", 0, logger), ms, mh
}

func do(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const assetBody = `{
	"pipeline": "asset",
	"subject": "manhattan-office-complex",
	"inputs": {
		"valuation": {"confidence": 86.4},
		"risk": {"market_volatility": 35, "liquidity_risk": 35, "regulatory_risk": 35,
			"operational_risk": 35, "credit_risk": 35, "technology_risk": 35, "environmental_risk": 35},
		"market": {"liquidity": 80, "demand": 75}
	}
}`

func TestAggregate(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, "POST", "/api/v1/aggregate",
		`{"scores":{"a":80,"b":60,"extra":10},"weights":{"a":0.75,"b":0.25}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AggregateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.InDelta(t, 75.0, resp.Score, 1e-9)
	assert.Equal(t, 75.0, resp.Rounded)
	assert.Len(t, resp.Factors, 3)
}

func TestAggregateErrors(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{"scores":`, http.StatusBadRequest},
		{"empty scores", `{"scores":{},"weights":{"a":1}}`, http.StatusUnprocessableEntity},
		{"no overlap", `{"scores":{"x":50},"weights":{"a":1}}`, http.StatusUnprocessableEntity},
		{"negative weight", `{"scores":{"a":50},"weights":{"a":-1}}`, http.StatusUnprocessableEntity},
		{"weight sum overflows", `{"scores":{"a":50,"b":50},"weights":{"a":1e308,"b":1e308}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/api/v1/aggregate", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestClassify(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, "POST", "/api/v1/classify", `{"score":35,"ladder":"risk"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, ClassifyResponse{Label: "Medium", Rank: 1, NextLabel: "High", PointsNeeded: 26}, resp)
}

func TestClassifyInlineThresholds(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, "POST", "/api/v1/classify",
		`{"score":95,"thresholds":[{"lower":0,"label":"F"},{"lower":90,"label":"A"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "A", resp.Label)
	assert.Empty(t, resp.NextLabel)
}

func TestClassifyErrors(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing score", `{"ladder":"risk"}`, http.StatusBadRequest},
		{"no ladder", `{"score":10}`, http.StatusBadRequest},
		{"both", `{"score":10,"ladder":"risk","thresholds":[{"lower":0,"label":"x"}]}`, http.StatusBadRequest},
		{"unknown ladder", `{"score":10,"ladder":"grades"}`, http.StatusNotFound},
		{"duplicate bound", `{"score":10,"thresholds":[{"lower":0,"label":"A"},{"lower":0,"label":"B"}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/api/v1/classify", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestLaddersAndPipelines(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, "GET", "/api/v1/ladders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ladders map[string][]scoring.Threshold
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ladders))
	assert.Equal(t, []scoring.Threshold{{Lower: 0, Label: "Low"}, {Lower: 31, Label: "Medium"}, {Lower: 61, Label: "High"}}, ladders["risk"])

	w = do(router, "GET", "/api/v1/pipelines", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pipelines []report.Pipeline
	require.NoError(t, json.NewDecoder(w.Body).Decode(&pipelines))
	require.Len(t, pipelines, 3)
	assert.Equal(t, report.PipelineAsset, pipelines[0].Name)
}

func TestCreateReport(t *testing.T) {
	router, ms, mh := setupTestRouter(t)
	ms.On("SaveReport", mock.Anything, mock.AnythingOfType("*report.Report")).Return(nil)
	mh.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	w := do(router, "POST", "/api/v1/reports", assetBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rep report.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
	assert.NotEqual(t, uuid.Nil, rep.ID)
	assert.Equal(t, 80.0, rep.OverallScore)
	assert.Equal(t, scoring.RecommendationStrongBuy, rep.Label)
	assert.Len(t, rep.Stages, 5)

	ms.AssertExpectations(t)
	mh.AssertNumberOfCalls(t, "Publish", 2)
}

func TestCreateReportWithIDAndTime(t *testing.T) {
	router, ms, mh := setupTestRouter(t)
	id := uuid.New()
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	ms.On("SaveReport", mock.Anything, mock.MatchedBy(func(r *report.Report) bool {
		return r.ID == id && r.CreatedAt.Equal(at)
	})).Return(nil)
	mh.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body := fmt.Sprintf(`{"id":%q,"created_at":%q,"pipeline":"compliance","subject":"a","inputs":{"compliance":{"kyc_aml":100}}}`,
		id, at.Format(time.RFC3339))
	w := do(router, "POST", "/api/v1/reports", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ms.AssertExpectations(t)
}

func TestCreateReportErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		saveErr error
		want    int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"no pipeline", `{"subject":"a"}`, nil, http.StatusBadRequest},
		{"invalid id", `{"id":"nope","pipeline":"asset"}`, nil, http.StatusBadRequest},
		{"unknown pipeline", `{"pipeline":"bonds","inputs":{"x":{"a":1}}}`, nil, http.StatusNotFound},
		{"missing input", `{"pipeline":"asset","inputs":{"valuation":{"confidence":90}}}`, nil, http.StatusUnprocessableEntity},
		{"duplicate id", assetBody, fmt.Errorf("%w: x", store.ErrReportExists), http.StatusConflict},
		{"store down", assetBody, fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, ms, mh := setupTestRouter(t)
			ms.On("SaveReport", mock.Anything, mock.Anything).Return(tt.saveErr)
			mh.On("Publish", mock.Anything, mock.Anything).Return(nil)

			w := do(router, "POST", "/api/v1/reports", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			mh.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestListReports(t *testing.T) {
	router, ms, _ := setupTestRouter(t)
	want := store.ReportFilter{Pipeline: "asset", Label: "BUY", Limit: 10, Offset: 5}
	ms.On("ListReports", mock.Anything, want).Return([]*report.Report{{ID: uuid.New(), Pipeline: "asset"}}, nil)

	w := do(router, "GET", "/api/v1/reports?pipeline=asset&label=BUY&limit=10&offset=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reports []report.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reports))
	assert.Len(t, reports, 1)
	ms.AssertExpectations(t)
}

func TestListReportsEmpty(t *testing.T) {
	router, ms, _ := setupTestRouter(t)
	ms.On("ListReports", mock.Anything, store.ReportFilter{}).Return(nil, nil)

	w := do(router, "GET", "/api/v1/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListReportsInvalidLimit(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	for _, q := range []string{"limit=ten", "offset=-1"} {
		w := do(router, "GET", "/api/v1/reports?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetReport(t *testing.T) {
	router, ms, _ := setupTestRouter(t)
	found := &report.Report{ID: uuid.New(), Pipeline: "eco", Label: "Silver"}
	missing := uuid.New()
	ms.On("GetReport", mock.Anything, found.ID).Return(found, nil)
	ms.On("GetReport", mock.Anything, missing).Return(nil, nil)

	w := do(router, "GET", "/api/v1/reports/"+found.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got report.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Silver", got.Label)

	w = do(router, "GET", "/api/v1/reports/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, "GET", "/api/v1/reports/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsRequiresAdminToken(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatsWithToken(t *testing.T) {
	router, ms, _ := setupTestRouter(t)
	ms.On("GetStats", mock.Anything).Return(&store.ReportStats{TotalReports: 4, AvgOverallScore: 61.5}, nil)

	w := do(router, "GET", "/api/v1/stats", "", "Authorization", "Bearer test-token")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats store.ReportStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 4, stats.TotalReports)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewMetricsRouter()
	w := do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	do(router, "POST", "/api/v1/aggregate", `{"scores":{},"weights":{"a":1}}`)

	w := do(NewMetricsRouter(), "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `scorecard_scoring_errors_total{kind="invalid_input"}`)
}
