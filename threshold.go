package topicseed

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// minClusterItems is the smallest population that can split into 2..N-1 clusters.
const minClusterItems = 3

// ThresholdOptions configures the candidate grid. Zero values select the defaults.
type ThresholdOptions struct {
	Steps   int     // number of evenly spaced candidates, default 200
	Min     float64 // default 0
	Max     float64 // default 2 when zero, the largest cosine distance
	Workers int     // concurrent candidates, default GOMAXPROCS
}

func (o ThresholdOptions) withDefaults() ThresholdOptions {
	if o.Steps <= 0 {
		o.Steps = 200
	}
	if o.Max == 0 {
		o.Max = 2
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// grid returns Steps evenly spaced values from Min to Max inclusive.
func (o ThresholdOptions) grid() []float64 {
	if o.Steps == 1 {
		return []float64{o.Min}
	}
	step := (o.Max - o.Min) / float64(o.Steps-1)
	values := make([]float64, o.Steps)
	for i := range values {
		values[i] = o.Min + float64(i)*step
	}
	values[len(values)-1] = o.Max
	return values
}

// ThresholdResult is the outcome of a threshold scan.
type ThresholdResult struct {
	Threshold  float64
	Silhouette float64
	Assignment ClusterAssignment
	// Valid is the number of candidates that produced a non-degenerate partition.
	Valid int
	Summary ClusteringSummary
}

type thresholdCandidate struct {
	threshold float64
	score     float64
	valid     bool
}

// OptimiseThreshold picks the distance threshold that maximises the cosine
// silhouette score using the default grid.
func OptimiseThreshold(m FeatureMatrix) (float64, error) {
	res, err := ThresholdOptions{}.Optimise(m)
	if err != nil {
		return 0, err
	}
	return res.Threshold, nil
}

// Optimise scans the candidate grid. Candidates yielding one cluster or N
// clusters are skipped. Ties for the best score resolve to the median of the
// tied thresholds.
func (o ThresholdOptions) Optimise(m FeatureMatrix) (*ThresholdResult, error) {
	o = o.withDefaults()
	if o.Max < o.Min {
		return nil, fmt.Errorf("%w: threshold range [%v, %v] is empty", ErrInvalidInput, o.Min, o.Max)
	}
	n := m.Len()
	if n < minClusterItems {
		return nil, fmt.Errorf("%w: %d items, need at least %d", ErrDegenerateClustering, n, minClusterItems)
	}

	dist := newDistanceMatrix(m)
	tree := buildDendrogram(dist)
	thresholds := o.grid()
	candidates := make([]thresholdCandidate, len(thresholds))

	var g errgroup.Group
	g.SetLimit(o.Workers)
	for i, t := range thresholds {
		g.Go(func() error {
			assignment := tree.Cut(t)
			candidates[i].threshold = t
			if k := assignment.NumClusters(); k <= 1 || k >= n {
				return nil
			}
			score, err := silhouetteScore(dist, assignment)
			if err != nil {
				return err
			}
			candidates[i].score = score
			candidates[i].valid = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	threshold, score, valid, err := bestThreshold(candidates)
	if err != nil {
		return nil, err
	}
	// The median of tied thresholds lies between two valid cuts, so its cut is valid too,
	// though it may differ from both when the tied candidates are not contiguous.
	assignment := tree.Cut(threshold)
	if score, err = silhouetteScore(dist, assignment); err != nil {
		return nil, err
	}
	return &ThresholdResult{
		Threshold:  threshold,
		Silhouette: score,
		Assignment: assignment,
		Valid:      valid,
		Summary:    summarize(dist, assignment, threshold, score),
	}, nil
}

// bestThreshold returns the median threshold among the valid candidates
// sharing the maximum score.
func bestThreshold(candidates []thresholdCandidate) (threshold, score float64, valid int, err error) {
	first := true
	for _, c := range candidates {
		if !c.valid {
			continue
		}
		valid++
		if first || c.score > score {
			score = c.score
			first = false
		}
	}
	if valid == 0 {
		return 0, 0, 0, fmt.Errorf("%w: no candidate threshold gives between 2 and N-1 clusters", ErrDegenerateClustering)
	}

	var tied []float64
	for _, c := range candidates {
		if c.valid && c.score == score {
			tied = append(tied, c.threshold)
		}
	}
	sort.Float64s(tied)
	mid := len(tied) / 2
	if len(tied)%2 == 1 {
		return tied[mid], score, valid, nil
	}
	return (tied[mid-1] + tied[mid]) / 2, score, valid, nil
}
