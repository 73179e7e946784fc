package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/history"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pkg/dsl"
	"github.com/rushteam/carprice/pricing"
)

func testArtifact() *model.Artifact {
	return &model.Artifact{
		NumericalFeatures:   []string{"year", "km_driven"},
		ScalerMean:          []float64{2019, 50000},
		ScalerStd:           []float64{1, 10000},
		CategoricalFeatures: []string{"fuel"},
		EncoderCategories:   []model.Vocabulary{{"Diesel", "Petrol"}},
		RidgeCoefficients:   []float64{10, -2, 3},
		RidgeIntercept:      100,
		ModelVersion:        "srv-1",
	}
}

type testEnv struct {
	engine  *gin.Engine
	holder  *pricing.Holder
	journal *history.Journal
}

func newTestEnv(t *testing.T, withModel bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	holder := pricing.NewHolder(nil)
	monitor := feature.NewMonitor()
	if withModel {
		e, err := pricing.NewEstimator(testArtifact(), pricing.WithLogger(zap.NewNop()), pricing.WithMonitor(monitor))
		require.NoError(t, err)
		holder.Swap(e)
	}
	journal, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	rules, err := dsl.NewRuleSet(dsl.DefaultRules())
	require.NoError(t, err)

	engine := NewEngine(Deps{
		Holder:     holder,
		Journal:    journal,
		Monitor:    monitor,
		Rules:      rules,
		Locale:     "en",
		BatchLimit: 3,
		Logger:     zap.NewNop(),
	})
	return &testEnv{engine: engine, holder: holder, journal: journal}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

const validRecord = `{"year": 2020, "km_driven": 50000, "fuel": "Бензин", "name": "Maruti"}`

func TestPredict(t *testing.T) {
	env := newTestEnv(t, true)

	code, out := env.do(t, http.MethodPost, "/api/predict", validRecord)
	require.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	require.Equal(t, 113.0, data["price"])
	require.Equal(t, "113 у.е.", data["formatted"])
	require.Equal(t, "srv-1", data["model_version"])
	require.NotContains(t, data, "contributions")

	code, out = env.do(t, http.MethodPost, "/api/predict?explain=1", validRecord)
	require.Equal(t, http.StatusOK, code)
	contributions := out["data"].(map[string]any)["contributions"].([]any)
	require.Len(t, contributions, 3)

	code, out = env.do(t, http.MethodGet, "/api/predictions?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out["data"].([]any), 2)

	code, out = env.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, code)
	stats := out["data"].([]any)
	require.Len(t, stats, 3)
	require.Equal(t, "fuel", stats[0].(map[string]any)["feature"])
	require.Equal(t, 2.0, stats[0].(map[string]any)["usage_count"])
}

func TestPredict_Errors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
		field    string
	}{
		{"malformed json", `{"year":`, http.StatusBadRequest, "invalid_json", ""},
		{"not an object", `[1,2]`, http.StatusBadRequest, "invalid_json", ""},
		{"unknown label", `{"year": 2020, "km_driven": 1, "fuel": "Электро"}`, http.StatusUnprocessableEntity, "unknown_category_label", "fuel"},
		{"missing feature", `{"year": 2020, "fuel": "Дизель"}`, http.StatusUnprocessableEntity, "missing_feature", "km_driven"},
		{"invalid value", `{"year": "new", "km_driven": 1, "fuel": "Дизель"}`, http.StatusUnprocessableEntity, "invalid_feature_value", "year"},
		{"rule violation", `{"year": 2020, "km_driven": -1, "fuel": "Дизель"}`, http.StatusBadRequest, "invalid_input", "km_driven"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := env.do(t, http.MethodPost, "/api/predict", tt.body)
			require.Equal(t, tt.wantCode, code)
			apiErr := out["error"].(map[string]any)
			require.Equal(t, tt.wantErr, apiErr["code"])
			if tt.field != "" {
				require.Equal(t, tt.field, apiErr["field"])
			}
		})
	}
}

func TestPredict_LengthMismatchIsServerError(t *testing.T) {
	env := newTestEnv(t, false)
	a := testArtifact()
	a.RidgeCoefficients = []float64{1}
	e, err := pricing.NewEstimator(a, pricing.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	env.holder.Swap(e)

	code, out := env.do(t, http.MethodPost, "/api/predict", validRecord)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "feature_vector_length_mismatch", out["error"].(map[string]any)["code"])
}

func TestNoModelLoaded(t *testing.T) {
	env := newTestEnv(t, false)

	code, out := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unavailable", out["status"])

	code, out = env.do(t, http.MethodPost, "/api/predict", validRecord)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unavailable", out["error"].(map[string]any)["code"])

	code, _ = env.do(t, http.MethodGet, "/api/model", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestPredictBatch(t *testing.T) {
	env := newTestEnv(t, true)

	body := `{"records": [` + validRecord + `, {"year": 2020, "km_driven": 1, "fuel": "???"}, {"year": 2020, "km_driven": -3, "fuel": "Дизель"}]}`
	code, out := env.do(t, http.MethodPost, "/api/predict/batch", body)
	require.Equal(t, http.StatusOK, code)

	results := out["data"].(map[string]any)["results"].([]any)
	require.Len(t, results, 3)
	require.Equal(t, 113.0, results[0].(map[string]any)["price"])
	require.NotContains(t, results[0], "error")
	require.Equal(t, "unknown_category_label", results[1].(map[string]any)["error"].(map[string]any)["code"])
	require.Equal(t, "invalid_input", results[2].(map[string]any)["error"].(map[string]any)["code"])

	code, _ = env.do(t, http.MethodPost, "/api/predict/batch", `{"records": []}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/predict/batch",
		`{"records": [`+strings.Repeat(validRecord+",", 3)+validRecord+`]}`)
	require.Equal(t, http.StatusBadRequest, code)
}

// slowPredictor 记录同时在途的估价数。
type slowPredictor struct {
	next     pricing.Predictor
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *slowPredictor) Predict(ctx context.Context, record core.Record) (*pricing.Result, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return p.next.Predict(ctx, record)
}

func (p *slowPredictor) Version() string    { return p.next.Version() }
func (p *slowPredictor) Generation() uint64 { return p.next.Generation() }

func TestPredictBatch_ConcurrencyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e, err := pricing.NewEstimator(testArtifact(), pricing.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	holder := pricing.NewHolder(e)
	slow := &slowPredictor{next: holder}

	env := &testEnv{holder: holder, engine: NewEngine(Deps{
		Holder:           holder,
		Predictor:        slow,
		BatchLimit:       10,
		BatchConcurrency: 2,
		Locale:           "en",
		Logger:           zap.NewNop(),
	})}

	body := `{"records": [` + strings.Repeat(validRecord+",", 5) + validRecord + `]}`
	code, out := env.do(t, http.MethodPost, "/api/predict/batch", body)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out["data"].(map[string]any)["results"].([]any), 6)
	require.LessOrEqual(t, slow.peak.Load(), int32(2))
	require.GreaterOrEqual(t, slow.peak.Load(), int32(1))
}

func TestOptionsModelHealth(t *testing.T) {
	env := newTestEnv(t, true)

	code, out := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", out["status"])
	require.Equal(t, "srv-1", out["model_version"])

	code, out = env.do(t, http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, code)
	opts := out["data"].(map[string]any)
	require.Len(t, opts["brands"], 30)
	require.Len(t, opts["owner"], 5)

	code, out = env.do(t, http.MethodGet, "/api/model?top=2", "")
	require.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	coefs := data["coefficients"].([]any)
	require.Len(t, coefs, 2)
	require.Equal(t, "year", coefs[0].(map[string]any)["feature"])
	require.Equal(t, "fuel_Petrol", coefs[1].(map[string]any)["feature"])
	require.Equal(t, 100.0, data["summary"].(map[string]any)["intercept"])

	code, _ = env.do(t, http.MethodGet, "/api/model?top=x", "")
	require.Equal(t, http.StatusBadRequest, code)
}
