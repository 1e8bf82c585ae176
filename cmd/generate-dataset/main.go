package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/yatrasecure/safetyscore/server/synth"
)

func main() {
	count := flag.Int("count", 10000, "number of synthetic location records to generate")
	seed := flag.Uint64("seed", 42, "random seed for reproducible datasets")
	output := flag.String("output", "", "output CSV path (defaults to DATASET_PATH or data/india_safety_dataset.csv)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()

	path := *output
	if path == "" {
		path = os.Getenv("DATASET_PATH")
	}
	if path == "" {
		path = "data/india_safety_dataset.csv"
	}

	log.WithFields(logrus.Fields{
		"count":  *count,
		"seed":   *seed,
		"output": path,
	}).Info("Generating synthetic safety dataset")

	start := time.Now()

	generator := synth.NewGenerator(*seed)
	records, err := generator.GenerateRecords(*count)
	if err != nil {
		log.WithError(err).Fatal("Dataset generation failed")
	}

	if err := synth.WriteDataset(path, records); err != nil {
		log.WithError(err).Fatal("Failed to write dataset")
	}

	log.WithFields(logrus.Fields{
		"records": len(records),
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
		"output":  path,
	}).Info("Dataset written")
}
