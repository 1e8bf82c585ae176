package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/yatrasecure/safetyscore/server/ml"
	"go.uber.org/zap"
)

func main() {
	dataset := flag.String("dataset", "", "training dataset CSV (defaults to DATASET_PATH or data/india_safety_dataset.csv)")
	artifactDir := flag.String("artifacts", "", "artifact output directory (defaults to ARTIFACT_DIR or ml_models/saved_models)")
	trees := flag.Int("trees", 0, "number of trees in the forest (0 uses the default)")
	maxDepth := flag.Int("max-depth", 0, "maximum tree depth (0 uses the default)")
	testFraction := flag.Float64("test-fraction", 0.2, "fraction of rows held out for evaluation")
	seed := flag.Uint64("seed", 42, "random seed for the split and the forest")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()

	datasetPath := firstNonEmpty(*dataset, os.Getenv("DATASET_PATH"), "data/india_safety_dataset.csv")
	outDir := firstNonEmpty(*artifactDir, os.Getenv("ARTIFACT_DIR"), "ml_models/saved_models")

	cfg := ml.DefaultTrainConfig(datasetPath, outDir)
	cfg.TestFraction = *testFraction
	cfg.Seed = *seed
	cfg.Forest.Seed = *seed
	if *trees > 0 {
		cfg.Forest.Trees = *trees
	}
	if *maxDepth > 0 {
		cfg.Forest.MaxDepth = *maxDepth
	}

	log.WithFields(logrus.Fields{
		"dataset":   datasetPath,
		"artifacts": outDir,
		"trees":     cfg.Forest.Trees,
		"max_depth": cfg.Forest.MaxDepth,
	}).Info("Training safety model")

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize logger")
	}
	defer zapLogger.Sync()

	start := time.Now()

	report, err := ml.Train(cfg, zapLogger)
	if err != nil {
		log.WithError(err).Fatal("Training failed")
	}

	log.WithFields(logrus.Fields{
		"rows":       report.Rows,
		"train_rows": report.TrainRows,
		"test_rows":  report.TestRows,
		"train_mae":  report.TrainMAE,
		"test_mae":   report.TestMAE,
		"train_r2":   report.TrainR2,
		"test_r2":    report.TestR2,
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("Model trained and artifacts saved")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
