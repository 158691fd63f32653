package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"decision-service/internal/models"
	"decision-service/internal/repository"
	"decision-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return f.text, f.err
}

type fakeDecider struct {
	result models.DecisionResult
	err    error
	panic  bool
}

func (f *fakeDecider) Decide(prosA, consA, prosB, consB []string, mindset models.Mindset) (models.DecisionResult, error) {
	if f.panic {
		panic("index out of range")
	}
	return f.result, f.err
}

type fakeFeedback struct {
	saved []models.DatasetRecord
}

func (f *fakeFeedback) SaveRecord(ctx context.Context, rec *models.DatasetRecord) error {
	rec.ID = "fb-1"
	f.saved = append(f.saved, *rec)
	return nil
}

func (f *fakeFeedback) GetStats(ctx context.Context) (*repository.FeedbackStats, error) {
	return &repository.FeedbackStats{Total: len(f.saved)}, nil
}

func newRouter(t *testing.T, llm service.TextGenerator, decider service.Decider, feedback service.FeedbackStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var generator *service.Generator
	if llm != nil {
		generator = service.NewGenerator(llm, 0, zap.NewNop())
	}
	advisor, err := service.NewAdvisor(generator, decider, feedback, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	NewHandler(advisor, zap.NewNop()).RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var generateBody = map[string]string{
	"topic":    "Job offer",
	"option_a": "Startup",
	"option_b": "Big company",
	"mindset":  "practical",
}

func TestGenerate(t *testing.T) {
	llm := &fakeLLM{text: "PROS_A: fast growth | equity\nCONS_A: risk\nPROS_B: stability\nCONS_B: slow promotions"}
	r := newRouter(t, llm, &fakeDecider{}, nil)

	w := do(r, http.MethodPost, "/api/v1/generate", generateBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"fast growth", "equity"}, resp.ProsA)
	assert.Equal(t, []string{"risk"}, resp.ConsA)
	assert.Equal(t, []string{"stability"}, resp.ProsB)
	assert.Equal(t, []string{"slow promotions"}, resp.ConsB)
	assert.Equal(t, llm.text, resp.Raw)
}

func TestGenerate_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		llm     service.TextGenerator
		wantRaw string
	}{
		{name: "provider error", llm: &fakeLLM{err: errors.New("quota exceeded")}, wantRaw: "quota exceeded"},
		{name: "generation disabled", llm: nil, wantRaw: service.ErrGenerationDisabled.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.llm, &fakeDecider{}, nil)

			w := do(r, http.MethodPost, "/generate", generateBody)
			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			for _, key := range []string{"pros_a", "cons_a", "pros_b", "cons_b"} {
				assert.Equal(t, []interface{}{}, body[key], key)
			}
			assert.Contains(t, body["raw"], tt.wantRaw)
		})
	}
}

func TestGenerate_BadRequest(t *testing.T) {
	r := newRouter(t, &fakeLLM{}, &fakeDecider{}, nil)

	w := do(r, http.MethodPost, "/api/v1/generate", map[string]string{"topic": "only a topic"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/generate", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecide(t *testing.T) {
	decider := &fakeDecider{result: models.DecisionResult{
		Winner:     "B",
		Confidence: 0.8,
		ClassProbs: map[string]float64{"A": 0.2, "B": 0.8},
	}}
	r := newRouter(t, nil, decider, nil)

	w := do(r, http.MethodPost, "/api/v1/decide", models.DecideRequest{
		ProsA:   []string{"cheap"},
		ProsB:   []string{"fast"},
		Mindset: models.MindsetEmotional,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got models.DecisionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, decider.result, got)
}

func TestDecide_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		decider *fakeDecider
	}{
		{name: "error", decider: &fakeDecider{err: errors.New("feature vector has 3 values, model expects 4")}},
		{name: "panic", decider: &fakeDecider{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, nil, tt.decider, nil)

			w := do(r, http.MethodPost, "/decide", map[string]interface{}{"pros_a": []string{"x"}})
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"winner":"A","confidence":0.5,"class_probs":{}}`, w.Body.String())
		})
	}
}

func TestDecide_BadRequest(t *testing.T) {
	r := newRouter(t, nil, &fakeDecider{}, nil)

	w := do(r, http.MethodPost, "/api/v1/decide", `{"pros_a": "not a list"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedback(t *testing.T) {
	store := &fakeFeedback{}
	r := newRouter(t, nil, &fakeDecider{}, store)

	w := do(r, http.MethodPost, "/api/v1/feedback", map[string]interface{}{
		"pros_a":         []string{"cheap"},
		"final_decision": "B",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.saved, 1)
	assert.Equal(t, models.MindsetMixed, store.saved[0].Mindset)
	assert.Equal(t, "B", store.saved[0].FinalDecision)

	w = do(r, http.MethodPost, "/api/v1/feedback", map[string]interface{}{"final_decision": "C"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/feedback/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":1,"by_decision":null,"by_mindset":null}`, w.Body.String())
}

func TestFeedback_Disabled(t *testing.T) {
	r := newRouter(t, nil, &fakeDecider{}, nil)

	w := do(r, http.MethodPost, "/api/v1/feedback", map[string]string{"final_decision": "A"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/api/v1/feedback/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(t, nil, &fakeDecider{}, nil)

	w := do(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["generation_enabled"])
}

func TestRequestID(t *testing.T) {
	r := newRouter(t, nil, &fakeDecider{}, nil)

	w := do(r, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, nil, &fakeDecider{err: errors.New("boom")}, nil)
	do(r, http.MethodPost, "/decide", map[string]interface{}{})

	w := do(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `decision_service_degraded_total{operation="decide"}`)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(nil))
	r.POST("/decide", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/decide", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
