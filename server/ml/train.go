package ml

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/yatrasecure/safetyscore/server/models"
	"github.com/yatrasecure/safetyscore/server/synth"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

type TrainConfig struct {
	DatasetPath  string
	ArtifactDir  string
	TestFraction float64
	Seed         uint64
	Forest       ForestConfig
}

func DefaultTrainConfig(datasetPath, artifactDir string) TrainConfig {
	return TrainConfig{
		DatasetPath:  datasetPath,
		ArtifactDir:  artifactDir,
		TestFraction: 0.2,
		Seed:         42,
		Forest:       DefaultForestConfig(),
	}
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type TrainReport struct {
	Metadata
	Importances []FeatureImportance `json:"importances"`
}

// Train fits the safety model end to end: load dataset, encode, split,
// scale, fit, evaluate, persist. Metrics are diagnostic only; a model that
// fits successfully is always serialized. Nothing is written before the fit
// succeeds.
func Train(cfg TrainConfig, logger *zap.Logger) (*TrainReport, error) {
	records, err := synth.ReadDataset(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("Dataset loaded",
		zap.String("path", cfg.DatasetPath),
		zap.Int("rows", len(records)))

	encoders := fitEncoders(records)

	rows := make([][]float64, len(records))
	targets := make([]float64, len(records))
	for i := range records {
		vec, err := RecordVector(&records[i], encoders)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = vec
		targets[i] = records[i].SafetyScore
	}

	trainIdx, testIdx, err := splitIndices(len(rows), cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}

	trainX, trainY := gather(rows, targets, trainIdx)
	testX, testY := gather(rows, targets, testIdx)

	scaler := &StandardScaler{}
	if err := scaler.Fit(trainX); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	if trainX, err = scaler.TransformAll(trainX); err != nil {
		return nil, err
	}
	if testX, err = scaler.TransformAll(testX); err != nil {
		return nil, err
	}

	forest := &Forest{Config: cfg.Forest}
	start := time.Now()
	if err := forest.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	logger.Info("Model fitted",
		zap.Int("trees", forest.Config.Trees),
		zap.Duration("elapsed", time.Since(start)))

	report := &TrainReport{
		Metadata: Metadata{
			Rows:      len(records),
			TrainRows: len(trainIdx),
			TestRows:  len(testIdx),
			TrainedAt: time.Now().UTC(),
		},
		Importances: rankImportances(forest.Importances),
	}
	report.TrainMAE, report.TrainR2 = evaluate(forest, trainX, trainY)
	report.TestMAE, report.TestR2 = evaluate(forest, testX, testY)

	logger.Info("Model performance",
		zap.Float64("train_mae", report.TrainMAE),
		zap.Float64("test_mae", report.TestMAE),
		zap.Float64("train_r2", report.TrainR2),
		zap.Float64("test_r2", report.TestR2))
	for i, fi := range report.Importances {
		if i >= 10 {
			break
		}
		logger.Info("Feature importance",
			zap.Int("rank", i+1),
			zap.String("feature", fi.Feature),
			zap.Float64("importance", fi.Importance))
	}

	set := &ArtifactSet{
		Model:    forest,
		Scaler:   scaler,
		Columns:  FeatureColumns(),
		Encoders: encoders,
	}
	if err := SaveArtifacts(cfg.ArtifactDir, set, &report.Metadata); err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}
	logger.Info("Artifacts saved", zap.String("dir", cfg.ArtifactDir))

	return report, nil
}

func fitEncoders(records []models.LocationRecord) Encoders {
	values := make(map[string][]string, len(CategoricalColumns))
	for i := range records {
		r := &records[i]
		values["state"] = append(values["state"], r.State)
		values["city_district"] = append(values["city_district"], r.CityDistrict)
		values["area_classification"] = append(values["area_classification"], string(r.AreaClassification))
		values["time_of_day"] = append(values["time_of_day"], r.TimeOfDay)
		values["day_of_week"] = append(values["day_of_week"], r.DayOfWeek)
	}

	encoders := make(Encoders, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		e := &LabelEncoder{}
		e.Fit(values[col])
		encoders[col] = e
	}
	return encoders
}

// splitIndices shuffles with a fixed seed and holds out testFraction of the
// rows, so train runs are reproducible.
func splitIndices(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}
	testN := int(math.Round(float64(n) * testFraction))
	if testN == 0 || testN == n {
		return nil, nil, fmt.Errorf("dataset too small to split: %d rows", n)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[testN:], perm[:testN], nil
}

func gather(rows [][]float64, targets []float64, idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for k, i := range idx {
		x[k] = rows[i]
		y[k] = targets[i]
	}
	return x, y
}

func evaluate(forest *Forest, rows [][]float64, targets []float64) (mae, r2 float64) {
	estimates := make([]float64, len(rows))
	for i, row := range rows {
		pred, err := forest.Predict(row)
		if err != nil {
			return math.NaN(), math.NaN()
		}
		estimates[i] = pred
		mae += math.Abs(pred - targets[i])
	}
	mae /= float64(len(rows))
	r2 = stat.RSquaredFrom(estimates, targets, nil)
	return mae, r2
}

func rankImportances(importances []float64) []FeatureImportance {
	cols := FeatureColumns()
	ranked := make([]FeatureImportance, len(importances))
	for i, v := range importances {
		ranked[i] = FeatureImportance{Feature: cols[i], Importance: v}
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].Importance > ranked[b].Importance })
	return ranked
}
