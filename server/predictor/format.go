package predictor

import (
	"math"

	"github.com/yatrasecure/safetyscore/server/models"
)

var safeRecommendations = []string{
	"Generally safe for tourists",
	"Well-lit public areas recommended",
	"Use official transportation",
}

var moderateRecommendations = []string{
	"Be cautious in crowded areas",
	"Avoid isolated areas after dark",
	"Keep valuables secure",
}

var cautionRecommendations = []string{
	"Exercise extreme caution",
	"Travel in groups",
	"Inform authorities of plans",
}

// FormatPrediction maps a 1-10 score to its level, color and
// recommendations. The mapping is a pure function of the score and is
// identical for model and fallback results.
func FormatPrediction(score float64, estimator models.Estimator) models.SafetyPrediction {
	var (
		level models.SafetyLevel
		color models.SafetyColor
		recs  []string
	)
	switch {
	case score >= 7:
		level, color, recs = models.LevelSafe, models.ColorGreen, safeRecommendations
	case score >= 5:
		level, color, recs = models.LevelModerate, models.ColorYellow, moderateRecommendations
	default:
		level, color, recs = models.LevelCaution, models.ColorRed, cautionRecommendations
	}

	out := make([]string, len(recs))
	copy(out, recs)

	return models.SafetyPrediction{
		Score:           math.Round(score*100) / 100,
		Level:           level,
		Color:           color,
		Recommendations: out,
		Estimator:       estimator,
	}
}
