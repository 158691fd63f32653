// Package forest implements a bagged random forest of CART classification trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrSingleClass is returned when the labels contain fewer than two distinct values.
	ErrSingleClass = errors.New("training labels contain fewer than 2 distinct classes")
	// ErrNoSamples is returned when fitting on an empty matrix.
	ErrNoSamples = errors.New("no training samples")
)

// Params configures forest training.
type Params struct {
	NEstimators     int
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	// MaxFeatures is the number of features tried per split; 0 means sqrt(width).
	MaxFeatures int
	Seed        int64
}

// DefaultParams returns 200 unlimited-depth trees seeded with 42.
func DefaultParams() Params {
	return Params{
		NEstimators:     200,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// Forest is a fitted classifier. It is read-only after Fit and safe for
// concurrent Predict calls.
type Forest struct {
	Classes   []string
	NFeatures int
	Trees     []Tree
}

// Prediction is the forest output for a single feature vector.
type Prediction struct {
	Label      string
	Confidence float64
	Probs      map[string]float64
}

// Fit trains a forest on X and y. Classes are sorted lexically. ctx is checked
// between trees so long fits can be cancelled.
func Fit(ctx context.Context, X [][]float64, y []string, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature matrix has %d rows but %d labels", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return nil, fmt.Errorf("feature vectors are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}

	classes := distinct(y)
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: found %v", ErrSingleClass, classes)
	}
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	yi := make([]int, len(y))
	for i, label := range y {
		yi[i] = classIndex[label]
	}

	if p.NEstimators <= 0 {
		p.NEstimators = DefaultParams().NEstimators
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	try := p.MaxFeatures
	if try <= 0 {
		try = int(math.Sqrt(float64(width)))
	}
	if try < 1 {
		try = 1
	}
	if try > width {
		try = width
	}

	rng := rand.New(rand.NewSource(p.Seed))
	builder := newTreeBuilder(X, yi, len(classes), p, try, rng)

	f := &Forest{
		Classes:   classes,
		NFeatures: width,
		Trees:     make([]Tree, 0, p.NEstimators),
	}
	bootstrap := make([]int, len(X))
	for t := 0; t < p.NEstimators; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training cancelled after %d trees: %w", t, err)
		}
		for i := range bootstrap {
			bootstrap[i] = rng.Intn(len(X))
		}
		f.Trees = append(f.Trees, builder.build(bootstrap))
	}
	return f, nil
}

// Predict averages leaf distributions across trees. Among equally probable
// classes the first in Classes order wins; this order is an implementation
// detail but stable for identical inputs.
func (f *Forest) Predict(x []float64) (Prediction, error) {
	if len(x) != f.NFeatures {
		return Prediction{}, fmt.Errorf("feature vector has %d values, model expects %d", len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return Prediction{}, fmt.Errorf("forest has no trees")
	}

	sum := make([]float64, len(f.Classes))
	for i := range f.Trees {
		for c, p := range f.Trees[i].leaf(x) {
			sum[c] += p
		}
	}

	best := 0
	probs := make(map[string]float64, len(f.Classes))
	for c := range sum {
		sum[c] /= float64(len(f.Trees))
		probs[f.Classes[c]] = sum[c]
		if sum[c] > sum[best] {
			best = c
		}
	}

	return Prediction{
		Label:      f.Classes[best],
		Confidence: sum[best],
		Probs:      probs,
	}, nil
}

// Score returns the fraction of rows whose predicted label matches y.
func (f *Forest) Score(X [][]float64, y []string) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoSamples
	}
	correct := 0
	for i, row := range X {
		pred, err := f.Predict(row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		if pred.Label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}

// StratifiedSplit partitions row indices into train and test sets, taking
// round(testFraction*n) rows from each class while keeping at least one row
// per class in train. The split depends only on y, testFraction and seed.
func StratifiedSplit(y []string, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[string][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, class := range distinct(y) {
		rows := byClass[class]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nTest := int(math.Round(testFraction * float64(len(rows))))
		if nTest >= len(rows) {
			nTest = len(rows) - 1
		}
		if nTest < 0 {
			nTest = 0
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func distinct(y []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
