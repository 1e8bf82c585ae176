package ml

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// ForestConfig mirrors the usual random-forest regressor knobs: many
// bounded-depth trees, bagged samples, a minimum node size, parallel fit.
type ForestConfig struct {
	Trees           int    `json:"trees"`
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	Workers         int    `json:"workers"`
	Seed            uint64 `json:"seed"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           200,
		MaxDepth:        20,
		MinSamplesSplit: 10,
		Workers:         runtime.NumCPU(),
		Seed:            42,
	}
}

// TreeNode is one node of a regression tree. Leaves have Left == nil and
// carry the mean target of their samples in Value.
type TreeNode struct {
	Feature   int
	Threshold float64
	Value     float64
	Left      *TreeNode
	Right     *TreeNode
}

func (n *TreeNode) predict(x []float64) float64 {
	for n.Left != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Forest is a bagged ensemble of variance-reduction regression trees.
// Exported fields keep it gob-serializable.
type Forest struct {
	Config      ForestConfig
	Roots       []*TreeNode
	NumFeatures int
	Importances []float64
}

// Fit trains the ensemble. Tree construction is deterministic for a fixed
// config seed regardless of worker scheduling: each tree derives its own
// RNG from the seed and its index.
func (f *Forest) Fit(rows [][]float64, targets []float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("cannot fit forest on empty data")
	}
	if len(rows) != len(targets) {
		return fmt.Errorf("feature/target length mismatch: %d vs %d", len(rows), len(targets))
	}
	if f.Config.Trees <= 0 {
		f.Config = DefaultForestConfig()
	}

	f.NumFeatures = len(rows[0])
	f.Roots = make([]*TreeNode, f.Config.Trees)
	importances := make([][]float64, f.Config.Trees)

	workers := f.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				b := &treeBuilder{
					rows:    rows,
					targets: targets,
					cfg:     f.Config,
					rng:     rand.New(rand.NewPCG(f.Config.Seed, uint64(t)+1)),
					imp:     make([]float64, f.NumFeatures),
				}
				f.Roots[t] = b.buildRoot()
				importances[t] = b.imp
			}
		}()
	}
	for t := 0; t < f.Config.Trees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	// Impurity-based importances, normalized over the ensemble.
	f.Importances = make([]float64, f.NumFeatures)
	total := 0.0
	for _, imp := range importances {
		for j, v := range imp {
			f.Importances[j] += v
			total += v
		}
	}
	if total > 0 {
		for j := range f.Importances {
			f.Importances[j] /= total
		}
	}
	return nil
}

func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.Roots) == 0 {
		return 0, fmt.Errorf("forest is not fitted")
	}
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("forest expects %d features, got %d", f.NumFeatures, len(x))
	}
	sum := 0.0
	for _, root := range f.Roots {
		sum += root.predict(x)
	}
	return sum / float64(len(f.Roots)), nil
}

type treeBuilder struct {
	rows    [][]float64
	targets []float64
	cfg     ForestConfig
	rng     *rand.Rand
	imp     []float64
}

func (b *treeBuilder) buildRoot() *TreeNode {
	// Bootstrap sample, same size as the training set.
	idx := make([]int, len(b.rows))
	for i := range idx {
		idx[i] = b.rng.IntN(len(b.rows))
	}
	return b.build(idx, 0)
}

func (b *treeBuilder) build(idx []int, depth int) *TreeNode {
	node := &TreeNode{Value: b.mean(idx)}
	if len(idx) < b.cfg.MinSamplesSplit || depth >= b.cfg.MaxDepth {
		return node
	}

	feature, threshold, reduction := b.bestSplit(idx)
	if reduction <= 1e-12 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	b.imp[feature] += reduction
	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold with the largest sum of
// squared error reduction.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, reduction float64) {
	n := len(idx)
	totalSum, totalSq := 0.0, 0.0
	for _, i := range idx {
		totalSum += b.targets[i]
		totalSq += b.targets[i] * b.targets[i]
	}
	totalSSE := totalSq - totalSum*totalSum/float64(n)

	feature = -1
	values := make([]float64, n)
	ys := make([]float64, n)
	order := make([]int, n)

	numFeatures := len(b.rows[idx[0]])
	for f := 0; f < numFeatures; f++ {
		for k, i := range idx {
			values[k] = b.rows[i][f]
			order[k] = k
		}
		sort.Slice(order, func(a, c int) bool { return values[order[a]] < values[order[c]] })
		for k, o := range order {
			ys[k] = b.targets[idx[o]]
		}

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			y := ys[k]
			leftSum += y
			leftSq += y * y

			v, next := values[order[k]], values[order[k+1]]
			if v == next {
				continue
			}

			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if red := totalSSE - sse; red > reduction {
				feature = f
				threshold = (v + next) / 2
				reduction = red
			}
		}
	}
	if feature < 0 {
		return 0, 0, 0
	}
	return feature, threshold, reduction
}

func (b *treeBuilder) mean(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.targets[i]
	}
	return sum / float64(len(idx))
}
