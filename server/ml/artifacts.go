package ml

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Artifact file names under the artifact directory.
const (
	ModelFile    = "safety_model.gob"
	ScalerFile   = "scaler.gob"
	ColumnsFile  = "feature_columns.gob"
	EncodersFile = "label_encoders.gob"
	MetadataFile = "metadata.json"
)

var (
	ErrArtifactMissing = errors.New("artifact file missing")
	ErrArtifactCorrupt = errors.New("artifact file corrupt")
)

// ArtifactSet is everything the inference service needs, loaded read-only.
type ArtifactSet struct {
	Model    *Forest
	Scaler   *StandardScaler
	Columns  []string
	Encoders Encoders
}

// Metadata is a durable training report written next to the artifacts.
type Metadata struct {
	Rows      int       `json:"rows"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	TrainMAE  float64   `json:"train_mae"`
	TestMAE   float64   `json:"test_mae"`
	TrainR2   float64   `json:"train_r2"`
	TestR2    float64   `json:"test_r2"`
	TrainedAt time.Time `json:"trained_at"`
}

// SaveArtifacts serializes the four artifact files plus metadata. Callers
// invoke it only after a successful fit; each file is written via temp +
// rename so a crash cannot leave a truncated artifact.
func SaveArtifacts(dir string, set *ArtifactSet, meta *Metadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	if err := writeGob(filepath.Join(dir, ModelFile), set.Model); err != nil {
		return err
	}
	if err := writeGob(filepath.Join(dir, ScalerFile), set.Scaler); err != nil {
		return err
	}
	if err := writeGob(filepath.Join(dir, ColumnsFile), set.Columns); err != nil {
		return err
	}
	if err := writeGob(filepath.Join(dir, EncodersFile), set.Encoders); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return writeAtomic(filepath.Join(dir, MetadataFile), raw)
}

// LoadArtifacts reads the four artifact files. A missing or undecodable
// file is reported with the matching sentinel so the service can degrade
// instead of failing.
func LoadArtifacts(dir string) (*ArtifactSet, error) {
	set := &ArtifactSet{
		Model:    &Forest{},
		Scaler:   &StandardScaler{},
		Encoders: Encoders{},
	}

	if err := readGob(filepath.Join(dir, ModelFile), set.Model); err != nil {
		return nil, err
	}
	if err := readGob(filepath.Join(dir, ScalerFile), set.Scaler); err != nil {
		return nil, err
	}
	if err := readGob(filepath.Join(dir, ColumnsFile), &set.Columns); err != nil {
		return nil, err
	}
	if err := readGob(filepath.Join(dir, EncodersFile), &set.Encoders); err != nil {
		return nil, err
	}

	if len(set.Columns) == 0 || len(set.Model.Roots) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArtifactCorrupt, dir)
	}
	return set, nil
}

func writeGob(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
