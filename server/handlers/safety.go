package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatrasecure/safetyscore/server/cache"
	"github.com/yatrasecure/safetyscore/server/models"
	"github.com/yatrasecure/safetyscore/server/predictor"
	"go.uber.org/zap"
)

type SafetyHandler struct {
	service *predictor.Service
	cache   cache.Cache
	logger  *zap.Logger

	mutex sync.Mutex
	stats SystemStats
}

type SystemStats struct {
	TotalRequests  int64     `json:"total_requests"`
	ProcessedOK    int64     `json:"processed_ok"`
	ProcessedError int64     `json:"processed_error"`
	CacheHits      int64     `json:"cache_hits"`
	AvgProcessTime float64   `json:"avg_process_time_ms"`
	StartTime      time.Time `json:"start_time"`
	LastUpdated    time.Time `json:"last_updated"`
}

// PredictRequest deliberately has no range validation: out-of-range
// coordinates still get a best-effort estimate.
type PredictRequest struct {
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Hour      *int              `json:"hour"`
	Overrides *models.Overrides `json:"overrides"`
}

func NewSafetyHandler(service *predictor.Service, cacheInstance cache.Cache, logger *zap.Logger) *SafetyHandler {
	return &SafetyHandler{
		service: service,
		cache:   cacheInstance,
		logger:  logger,
		stats: SystemStats{
			StartTime:   time.Now(),
			LastUpdated: time.Now(),
		},
	}
}

func (h *SafetyHandler) Predict(c *gin.Context) {
	startTime := time.Now()
	h.countRequest()

	var request PredictRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Error("Invalid request format", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		h.countError()
		return
	}

	hour := 12
	if request.Hour != nil {
		hour = *request.Hour
	}

	key := cache.PredictionKey(request.Latitude, request.Longitude, hour, request.Overrides)
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), key); err == nil {
			h.logger.Debug("Cache hit for prediction", zap.String("key", key))
			h.countHit()
			h.respond(c, cached, startTime)
			return
		}
	}

	prediction := h.service.Predict(request.Latitude, request.Longitude, hour, request.Overrides)

	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), key, &prediction); err != nil {
			h.logger.Warn("Failed to cache prediction", zap.Error(err))
		}
	}

	h.respond(c, &prediction, startTime)
}

func (h *SafetyHandler) respond(c *gin.Context, prediction *models.SafetyPrediction, startTime time.Time) {
	processingTime := time.Since(startTime)
	h.recordSuccess(processingTime)

	c.JSON(http.StatusOK, gin.H{
		"prediction":      prediction,
		"degraded":        h.service.Degraded(),
		"processing_time": processingTime.Milliseconds(),
		"timestamp":       time.Now().Unix(),
	})
}

func (h *SafetyHandler) Status(c *gin.Context) {
	status := gin.H{
		"state":    h.service.State(),
		"degraded": h.service.Degraded(),
	}

	if h.cache != nil {
		if cacheStats, err := h.cache.GetStats(c.Request.Context()); err == nil {
			status["cache"] = cacheStats
		}
	}

	c.JSON(http.StatusOK, status)
}

func (h *SafetyHandler) GetStats(c *gin.Context) {
	h.mutex.Lock()
	h.stats.LastUpdated = time.Now()
	stats := h.stats
	h.mutex.Unlock()

	var successRate float64
	if stats.TotalRequests > 0 {
		successRate = float64(stats.ProcessedOK) / float64(stats.TotalRequests) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"system": stats,
		"metrics": gin.H{
			"success_rate":   successRate,
			"uptime_seconds": time.Since(stats.StartTime).Seconds(),
		},
	})
}

func (h *SafetyHandler) countRequest() {
	h.mutex.Lock()
	h.stats.TotalRequests++
	h.mutex.Unlock()
}

func (h *SafetyHandler) countError() {
	h.mutex.Lock()
	h.stats.ProcessedError++
	h.mutex.Unlock()
}

func (h *SafetyHandler) countHit() {
	h.mutex.Lock()
	h.stats.CacheHits++
	h.mutex.Unlock()
}

func (h *SafetyHandler) recordSuccess(duration time.Duration) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.stats.ProcessedOK++

	currentTime := float64(duration.Milliseconds())
	if h.stats.AvgProcessTime == 0 {
		h.stats.AvgProcessTime = currentTime
	} else {
		alpha := 0.1
		h.stats.AvgProcessTime = alpha*currentTime + (1-alpha)*h.stats.AvgProcessTime
	}
}
