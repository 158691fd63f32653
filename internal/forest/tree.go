package forest

import (
	"math/rand"
	"sort"
)

// leafFeature marks a node without a split.
const leafFeature = -1

// Node is one entry of a flattened decision tree. Samples with
// x[Feature] <= Threshold go to Left, the rest to Right.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	// Dist is the class distribution of training samples in a leaf.
	Dist []float64
}

// Tree is a CART classification tree stored as a node slice; Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// leaf walks x down the tree and returns the class distribution it lands on.
func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x          [][]float64
	y          []int
	nClasses   int
	maxDepth   int
	minSplit   int
	tryFeature int
	rng        *rand.Rand

	featureOrder []int
	pairs        []valueClass
	tree         Tree
}

type valueClass struct {
	value float64
	class int
}

func newTreeBuilder(x [][]float64, y []int, nClasses int, p Params, tryFeatures int, rng *rand.Rand) *treeBuilder {
	order := make([]int, len(x[0]))
	for i := range order {
		order[i] = i
	}
	return &treeBuilder{
		x:            x,
		y:            y,
		nClasses:     nClasses,
		maxDepth:     p.MaxDepth,
		minSplit:     p.MinSamplesSplit,
		tryFeature:   tryFeatures,
		rng:          rng,
		featureOrder: order,
	}
}

func (b *treeBuilder) build(samples []int) Tree {
	b.tree = Tree{}
	b.grow(samples, 0)
	return b.tree
}

// grow appends the subtree for samples and returns the index of its root.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}

	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: leafFeature})

	if isPure(counts) || len(samples) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.tree.Nodes[idx].Dist = normalize(counts)
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.tree.Nodes[idx].Dist = normalize(counts)
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit draws features in random order until tryFeature non-constant
// features have been scored, and returns the split with the lowest weighted Gini.
func (b *treeBuilder) bestSplit(samples []int, counts []float64) (int, float64, bool) {
	n := float64(len(samples))
	bestImpurity := gini(counts, n)
	bestFeature, bestThreshold := -1, 0.0

	visited := 0
	for i := 0; i < len(b.featureOrder) && visited < b.tryFeature; i++ {
		j := i + b.rng.Intn(len(b.featureOrder)-i)
		b.featureOrder[i], b.featureOrder[j] = b.featureOrder[j], b.featureOrder[i]
		f := b.featureOrder[i]

		lo, hi := b.x[samples[0]][f], b.x[samples[0]][f]
		for _, s := range samples[1:] {
			v := b.x[s][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo == hi {
			continue
		}
		visited++

		b.pairs = b.pairs[:0]
		for _, s := range samples {
			b.pairs = append(b.pairs, valueClass{value: b.x[s][f], class: b.y[s]})
		}
		sort.Slice(b.pairs, func(a, c int) bool { return b.pairs[a].value < b.pairs[c].value })

		left := make([]float64, b.nClasses)
		right := append([]float64(nil), counts...)
		for k := 0; k < len(b.pairs)-1; k++ {
			left[b.pairs[k].class]++
			right[b.pairs[k].class]--
			if b.pairs[k].value == b.pairs[k+1].value {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			impurity := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = midpoint(b.pairs[k].value, b.pairs[k+1].value)
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	dist := make([]float64, len(counts))
	if total == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = c / total
	}
	return dist
}
