package topicseed

import (
	"fmt"
	"math"
	"strings"
)

// silhouetteScore returns the mean silhouette coefficient of the assignment
// under the precomputed distances. Members of singleton clusters score 0.
// The score is only defined for 2..n-1 clusters.
func silhouetteScore(dist distanceMatrix, assignment ClusterAssignment) (float64, error) {
	n := len(assignment)
	k := assignment.NumClusters()
	if k < 2 || k > n-1 {
		return 0, fmt.Errorf("%w: silhouette undefined for %d clusters over %d items", ErrDegenerateClustering, k, n)
	}
	sizes := assignment.Sizes()

	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		own := assignment[i]
		if sizes[own] == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j != i {
				sums[assignment[j]] += dist[i][j]
			}
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own {
				continue
			}
			b = math.Min(b, sums[c]/float64(sizes[c]))
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n), nil
}

// ClusteringSummary describes one clustering run.
type ClusteringSummary struct {
	Items                int     `json:"items"`
	Clusters             int     `json:"clusters"`
	Threshold            float64 `json:"distance_threshold"`
	Silhouette           float64 `json:"silhouette_score"`
	ClusterSizes         []int   `json:"cluster_sizes"`
	IntraClusterDistance float64 `json:"avg_intra_cluster_distance"`
	InterClusterDistance float64 `json:"avg_inter_cluster_distance"`
	QualityAssessment    string  `json:"quality_assessment"`
}

func summarize(dist distanceMatrix, assignment ClusterAssignment, threshold, silhouette float64) ClusteringSummary {
	intra, inter := clusterDistances(dist, assignment)
	return ClusteringSummary{
		Items:                len(assignment),
		Clusters:             assignment.NumClusters(),
		Threshold:            threshold,
		Silhouette:           silhouette,
		ClusterSizes:         assignment.Sizes(),
		IntraClusterDistance: intra,
		InterClusterDistance: inter,
		QualityAssessment:    assessClusteringQuality(silhouette, assignment.NumClusters(), len(assignment)),
	}
}

// clusterDistances returns the mean pairwise cosine distance within clusters
// and between clusters.
func clusterDistances(dist distanceMatrix, assignment ClusterAssignment) (float64, float64) {
	var intraSum, interSum float64
	var intraCount, interCount int
	for i := range assignment {
		for j := i + 1; j < len(assignment); j++ {
			if assignment[i] == assignment[j] {
				intraSum += dist[i][j]
				intraCount++
			} else {
				interSum += dist[i][j]
				interCount++
			}
		}
	}
	var intra, inter float64
	if intraCount > 0 {
		intra = intraSum / float64(intraCount)
	}
	if interCount > 0 {
		inter = interSum / float64(interCount)
	}
	return intra, inter
}

func assessClusteringQuality(silhouette float64, numClusters, numItems int) string {
	var assessment []string

	switch {
	case silhouette > 0.7:
		assessment = append(assessment, "Excellent cluster separation")
	case silhouette > 0.5:
		assessment = append(assessment, "Good cluster separation")
	case silhouette > 0.25:
		assessment = append(assessment, "Moderate cluster separation")
	case silhouette > 0:
		assessment = append(assessment, "Weak cluster separation")
	default:
		assessment = append(assessment, "Poor cluster separation")
	}

	avgClusterSize := float64(numItems) / float64(max(numClusters, 1))
	switch {
	case avgClusterSize < 1.5:
		assessment = append(assessment, "mostly singleton clusters")
	case avgClusterSize > 10:
		assessment = append(assessment, "few broad clusters")
	default:
		assessment = append(assessment, "balanced grouping")
	}

	return strings.Join(assessment, " with ")
}
