package topicseed

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// fakeEmbedder returns fixed vectors for known texts and fallback for the rest.
type fakeEmbedder struct {
	vecs     map[string][]float64
	fallback []float64
	err      error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			v = f.fallback
		}
		out[i] = append([]float64(nil), v...)
	}
	return out, nil
}

func (f *fakeEmbedder) textsEmbedded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

func matrixOf(rows ...[]float64) FeatureMatrix {
	return stackRows(rows)
}

// twoGroups are three vectors near the x axis followed by three near the y axis.
var twoGroups = [][]float64{
	{1, 0, 0},
	{0.99, 0.05, 0},
	{0.98, 0, 0.05},
	{0, 1, 0},
	{0.05, 0.99, 0},
	{0, 0.98, 0.05},
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}
