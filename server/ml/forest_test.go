package ml

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForestLearnsSimpleFunction(t *testing.T) {
	// y = 3*x0 - 2*x1 on a dense grid; the forest should recover it with
	// small error inside the training range.
	rng := rand.New(rand.NewPCG(1, 1))
	rows := make([][]float64, 2000)
	targets := make([]float64, len(rows))
	for i := range rows {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 10
		rows[i] = []float64{x0, x1}
		targets[i] = 3*x0 - 2*x1
	}

	forest := &Forest{Config: ForestConfig{
		Trees:           50,
		MaxDepth:        12,
		MinSamplesSplit: 5,
		Workers:         2,
		Seed:            7,
	}}
	require.NoError(t, forest.Fit(rows, targets))

	mae := 0.0
	n := 200
	for i := 0; i < n; i++ {
		x0 := 1 + rng.Float64()*8
		x1 := 1 + rng.Float64()*8
		pred, err := forest.Predict([]float64{x0, x1})
		require.NoError(t, err)
		mae += math.Abs(pred - (3*x0 - 2*x1))
	}
	mae /= float64(n)
	assert.Less(t, mae, 2.0, "mae %.3f", mae)
}

func TestForestDeterministicForFixedSeed(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	rows := make([][]float64, 300)
	targets := make([]float64, len(rows))
	for i := range rows {
		rows[i] = []float64{rng.Float64(), rng.Float64()}
		targets[i] = rows[i][0] + rows[i][1]
	}

	cfg := ForestConfig{Trees: 20, MaxDepth: 8, MinSamplesSplit: 5, Workers: 4, Seed: 99}

	a := &Forest{Config: cfg}
	require.NoError(t, a.Fit(rows, targets))
	b := &Forest{Config: cfg}
	require.NoError(t, b.Fit(rows, targets))

	pa, err := a.Predict([]float64{0.3, 0.7})
	require.NoError(t, err)
	pb, err := b.Predict([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestForestImportancesNormalized(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	rows := make([][]float64, 500)
	targets := make([]float64, len(rows))
	for i := range rows {
		// x0 carries all the signal, x1 is noise.
		rows[i] = []float64{rng.Float64() * 10, rng.Float64()}
		targets[i] = 5 * rows[i][0]
	}

	forest := &Forest{Config: ForestConfig{Trees: 20, MaxDepth: 8, MinSamplesSplit: 5, Workers: 2, Seed: 1}}
	require.NoError(t, forest.Fit(rows, targets))

	require.Len(t, forest.Importances, 2)
	sum := forest.Importances[0] + forest.Importances[1]
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, forest.Importances[0], forest.Importances[1])
}

func TestForestPredictErrors(t *testing.T) {
	forest := &Forest{}
	_, err := forest.Predict([]float64{1})
	assert.Error(t, err)

	rng := rand.New(rand.NewPCG(4, 4))
	rows := make([][]float64, 50)
	targets := make([]float64, len(rows))
	for i := range rows {
		rows[i] = []float64{rng.Float64(), rng.Float64()}
		targets[i] = rows[i][0]
	}
	forest = &Forest{Config: ForestConfig{Trees: 5, MaxDepth: 4, MinSamplesSplit: 5, Workers: 1, Seed: 1}}
	require.NoError(t, forest.Fit(rows, targets))

	_, err = forest.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestForestFitErrors(t *testing.T) {
	forest := &Forest{}
	assert.Error(t, forest.Fit(nil, nil))
	assert.Error(t, forest.Fit([][]float64{{1}}, []float64{1, 2}))
}
