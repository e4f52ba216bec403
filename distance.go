package topicseed

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// cosineSimilarity calculates cosine similarity between two vectors.
// A zero vector has similarity 0 to everything.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// cosineDistance is 1 - cosine similarity, clamped to [0, 2].
func cosineDistance(a, b []float64) float64 {
	d := 1 - cosineSimilarity(a, b)
	return math.Min(2, math.Max(0, d))
}

// distanceMatrix is a symmetric matrix of pairwise cosine distances.
type distanceMatrix [][]float64

func newDistanceMatrix(m FeatureMatrix) distanceMatrix {
	n := m.Len()
	dist := make(distanceMatrix, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cosineDistance(m.Row(i), m.Row(j))
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}
