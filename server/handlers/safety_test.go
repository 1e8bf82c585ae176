package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatrasecure/safetyscore/server/cache"
	"github.com/yatrasecure/safetyscore/server/predictor"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *SafetyHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Empty artifact dir: the service runs degraded, which is all the
	// handler layer needs.
	service := predictor.NewService(t.TempDir(), zap.NewNop())
	memCache := cache.NewMemoryCache(100, time.Minute, zap.NewNop())
	t.Cleanup(func() { memCache.Close() })

	return NewSafetyHandler(service, memCache, zap.NewNop())
}

func newTestRouter(h *SafetyHandler) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/safety/predict", h.Predict)
	router.GET("/api/v1/safety/status", h.Status)
	router.GET("/api/v1/stats", h.GetStats)
	return router
}

func postPredict(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/safety/predict", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := postPredict(t, router, `{"latitude": 15.0, "longitude": 74.0, "hour": 12}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Prediction struct {
			Score     float64  `json:"safety_score"`
			Level     string   `json:"safety_level"`
			Color     string   `json:"color"`
			Recs      []string `json:"recommendations"`
			Estimator string   `json:"estimator"`
		} `json:"prediction"`
		Degraded bool `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Degraded)
	assert.Equal(t, "fallback", resp.Prediction.Estimator)
	assert.GreaterOrEqual(t, resp.Prediction.Score, 1.0)
	assert.LessOrEqual(t, resp.Prediction.Score, 10.0)
	assert.NotEmpty(t, resp.Prediction.Level)
	assert.NotEmpty(t, resp.Prediction.Color)
	assert.Len(t, resp.Prediction.Recs, 3)
}

func TestPredictDefaultsHourToNoon(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	withHour := postPredict(t, router, `{"latitude": 28.6, "longitude": 77.2, "hour": 12}`)
	withoutHour := postPredict(t, router, `{"latitude": 28.6, "longitude": 77.2}`)

	require.Equal(t, http.StatusOK, withHour.Code)
	require.Equal(t, http.StatusOK, withoutHour.Code)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(withHour.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(withoutHour.Body.Bytes(), &b))
	assert.Equal(t, a["prediction"], b["prediction"])
}

func TestPredictMalformedBody(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := postPredict(t, router, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictOutOfRangeCoordinatesStillScored(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := postPredict(t, router, `{"latitude": -500, "longitude": 999, "hour": 3}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictWithOverrides(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	body := `{"latitude": 19.07, "longitude": 72.88, "hour": 22,
		"overrides": {"cctv_density": 0.9, "is_weekend": true, "area_classification": "tourist-hub"}}`
	w := postPredict(t, router, body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictCacheHit(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h)

	body := `{"latitude": 12.97, "longitude": 77.59, "hour": 9}`
	require.Equal(t, http.StatusOK, postPredict(t, router, body).Code)
	require.Equal(t, http.StatusOK, postPredict(t, router, body).Code)

	h.mutex.Lock()
	hits := h.stats.CacheHits
	total := h.stats.TotalRequests
	h.mutex.Unlock()

	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), total)
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/safety/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["state"])
	assert.Equal(t, true, resp["degraded"])
	assert.Contains(t, resp, "cache")
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	require.Equal(t, http.StatusOK, postPredict(t, router, `{"latitude": 1, "longitude": 2}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		System struct {
			TotalRequests int64 `json:"total_requests"`
			ProcessedOK   int64 `json:"processed_ok"`
		} `json:"system"`
		Metrics struct {
			SuccessRate float64 `json:"success_rate"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.System.TotalRequests)
	assert.Equal(t, int64(1), resp.System.ProcessedOK)
	assert.Equal(t, 100.0, resp.Metrics.SuccessRate)
}
