package predictor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yatrasecure/safetyscore/server/ml"
	"github.com/yatrasecure/safetyscore/server/models"
	"go.uber.org/zap"
)

// State is the service lifecycle: Uninitialized -> Loading -> Ready or
// Degraded. Both end states hold for the process lifetime; a Ready service
// can still fall back per call without transitioning.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateDegraded      State = "degraded"
)

var (
	ErrFeatureBuild = errors.New("feature build failed")
	ErrPrediction   = errors.New("model prediction failed")
)

// Service produces safety predictions from trained artifacts, degrading to
// the rule-based estimator whenever the artifacts are unusable. It is
// constructed once and injected; there is no package-level singleton.
type Service struct {
	artifactDir string
	logger      *zap.Logger

	loadOnce  sync.Once
	mu        sync.RWMutex
	state     State
	artifacts *ml.ArtifactSet
}

func NewService(artifactDir string, logger *zap.Logger) *Service {
	return &Service{
		artifactDir: artifactDir,
		logger:      logger,
		state:       StateUninitialized,
	}
}

// State reports the current lifecycle state, loading artifacts first if
// that has not happened yet.
func (s *Service) State() State {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Degraded reports whether every prediction uses the fallback estimator.
func (s *Service) Degraded() bool {
	return s.State() == StateDegraded
}

// ensureLoaded performs the single artifact load. Failure is never an
// error to the caller: the service logs and settles in Degraded.
func (s *Service) ensureLoaded() {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		s.state = StateLoading
		s.mu.Unlock()

		set, err := ml.LoadArtifacts(s.artifactDir)
		if err == nil {
			if !columnsMatch(set.Columns) {
				err = fmt.Errorf("%w: persisted feature columns do not match this build", ml.ErrArtifactCorrupt)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.state = StateDegraded
			s.logger.Warn("Safety model unavailable, using fallback estimator",
				zap.String("artifact_dir", s.artifactDir),
				zap.Error(err))
			return
		}
		s.artifacts = set
		s.state = StateReady
		s.logger.Info("Safety model loaded",
			zap.String("artifact_dir", s.artifactDir),
			zap.Int("trees", len(set.Model.Roots)),
			zap.Int("features", len(set.Columns)))
	})
}

// Predict returns a safety prediction for a coordinate and hour. It never
// fails: out-of-range inputs get a best-effort estimate, and any internal
// error routes the single call through the fallback estimator.
func (s *Service) Predict(lat, lon float64, hour int, overrides *models.Overrides) models.SafetyPrediction {
	s.ensureLoaded()

	s.mu.RLock()
	ready := s.state == StateReady
	set := s.artifacts
	s.mu.RUnlock()

	if !ready {
		return FormatPrediction(fallbackScore(lat, lon, hour), models.EstimatorFallback)
	}

	score, err := s.modelScore(set, lat, lon, hour, overrides)
	if err != nil {
		s.logger.Warn("Prediction failed, falling back for this call",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Int("hour", hour),
			zap.Error(err))
		return FormatPrediction(fallbackScore(lat, lon, hour), models.EstimatorFallback)
	}
	return FormatPrediction(score, models.EstimatorModel)
}

func (s *Service) modelScore(set *ml.ArtifactSet, lat, lon float64, hour int, overrides *models.Overrides) (float64, error) {
	vec, err := buildFeatures(set.Encoders, lat, lon, hour, overrides)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFeatureBuild, err)
	}

	scaled, err := set.Scaler.Transform(vec)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFeatureBuild, err)
	}

	raw, err := set.Model.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPrediction, err)
	}

	// The model works in the 0-100 label space; the public contract is 1-10.
	return clamp(raw/10, minScore, maxScore), nil
}

func columnsMatch(persisted []string) bool {
	want := ml.FeatureColumns()
	if len(persisted) != len(want) {
		return false
	}
	for i := range want {
		if persisted[i] != want[i] {
			return false
		}
	}
	return true
}
