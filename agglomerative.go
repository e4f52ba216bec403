package topicseed

import (
	"fmt"
	"math"
)

// ClusterAssignment maps item index to cluster id. Ids are numbered in order of
// first appearance, so item 0 is always in cluster 0.
type ClusterAssignment []int

// NumClusters returns the number of distinct cluster ids.
func (a ClusterAssignment) NumClusters() int {
	maxID := -1
	for _, id := range a {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

// Sizes returns the number of members per cluster id.
func (a ClusterAssignment) Sizes() []int {
	sizes := make([]int, a.NumClusters())
	for _, id := range a {
		sizes[id]++
	}
	return sizes
}

// Groups collects items into cluster groups ordered by cluster id, members in
// input order.
func (a ClusterAssignment) Groups(items []LabelledSentence) ([]ClusterGroup, error) {
	if len(items) != len(a) {
		return nil, fmt.Errorf("%w: %d items for %d assignments", ErrInvalidInput, len(items), len(a))
	}
	groups := make([]ClusterGroup, a.NumClusters())
	for id := range groups {
		groups[id].ClusterID = id
	}
	for i, id := range a {
		groups[id].Sentences = append(groups[id].Sentences, items[i])
	}
	return groups, nil
}

// Merge joins the clusters represented by items A and B at the given
// average-linkage distance.
type Merge struct {
	A, B     int
	Distance float64
}

// Dendrogram is the full average-linkage merge tree under cosine distance.
// Cutting it at a threshold gives the same clusters as running agglomerative
// clustering with that distance threshold, because average linkage never
// merges at a smaller distance than a previous merge.
type Dendrogram struct {
	n      int
	merges []Merge
	dist   distanceMatrix
}

// BuildDendrogram runs agglomerative clustering to a single cluster.
func BuildDendrogram(m FeatureMatrix) *Dendrogram {
	return buildDendrogram(newDistanceMatrix(m))
}

func buildDendrogram(dist distanceMatrix) *Dendrogram {
	n := len(dist)

	// Working copy. Slot i holds the cluster whose smallest remaining representative is item i.
	d := make([][]float64, n)
	for i := range d {
		d[i] = append([]float64(nil), dist[i]...)
	}
	size := make([]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, max(n-1, 0))
	for step := 0; step < n-1; step++ {
		minDist := math.Inf(1)
		mergeI, mergeJ := -1, -1
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < minDist {
					minDist = d[i][j]
					mergeI, mergeJ = i, j
				}
			}
		}
		if mergeI == -1 {
			break
		}

		// Lance-Williams update for average linkage
		ni, nj := float64(size[mergeI]), float64(size[mergeJ])
		for k := 0; k < n; k++ {
			if !active[k] || k == mergeI || k == mergeJ {
				continue
			}
			avg := (ni*d[mergeI][k] + nj*d[mergeJ][k]) / (ni + nj)
			d[mergeI][k] = avg
			d[k][mergeI] = avg
		}
		size[mergeI] += size[mergeJ]
		active[mergeJ] = false

		merges = append(merges, Merge{A: mergeI, B: mergeJ, Distance: minDist})
	}
	return &Dendrogram{n: n, merges: merges, dist: dist}
}

// Merges returns the merge steps in the order they were performed.
func (t *Dendrogram) Merges() []Merge { return t.merges }

// Cut applies every merge whose distance is strictly below threshold.
func (t *Dendrogram) Cut(threshold float64) ClusterAssignment {
	parent := make([]int, t.n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, m := range t.merges {
		if m.Distance >= threshold {
			continue
		}
		ra, rb := find(m.A), find(m.B)
		if ra != rb {
			parent[max(ra, rb)] = min(ra, rb)
		}
	}

	assignment := make(ClusterAssignment, t.n)
	ids := make(map[int]int)
	for i := 0; i < t.n; i++ {
		root := find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		assignment[i] = id
	}
	return assignment
}

// Cluster performs average-linkage agglomerative clustering under cosine
// distance, stopping once the closest pair of clusters is at least
// distanceThreshold apart.
func Cluster(m FeatureMatrix, distanceThreshold float64) ClusterAssignment {
	return BuildDendrogram(m).Cut(distanceThreshold)
}
