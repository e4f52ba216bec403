package topicseed

import (
	"reflect"
	"testing"
)

func TestGrid(t *testing.T) {
	grid := ThresholdOptions{}.withDefaults().grid()
	if len(grid) != 200 {
		t.Fatalf("len(grid) = %d, want 200", len(grid))
	}
	if grid[0] != 0 || grid[199] != 2 {
		t.Errorf("grid spans [%v, %v], want [0, 2]", grid[0], grid[199])
	}
	if !approxEqual(grid[1], 2.0/199) {
		t.Errorf("grid[1] = %v, want %v", grid[1], 2.0/199)
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			t.Fatalf("grid not increasing at %d", i)
		}
	}
}

func TestBestThresholdMedianOfTies(t *testing.T) {
	tests := []struct {
		name       string
		candidates []thresholdCandidate
		want       float64
		wantValid  int
	}{
		{
			name: "even ties",
			candidates: []thresholdCandidate{
				{threshold: 0.5, score: 0.42, valid: true},
				{threshold: 0.6, score: 0.30, valid: true},
				{threshold: 0.7, score: 0.42, valid: true},
				{threshold: 0.8, score: 0.99, valid: false},
			},
			want:      0.6,
			wantValid: 3,
		},
		{
			name: "odd ties",
			candidates: []thresholdCandidate{
				{threshold: 0.2, score: 0.5, valid: true},
				{threshold: 0.3, score: 0.5, valid: true},
				{threshold: 0.4, score: 0.5, valid: true},
			},
			want:      0.3,
			wantValid: 3,
		},
		{
			name: "single best",
			candidates: []thresholdCandidate{
				{threshold: 0.2, score: 0.1, valid: true},
				{threshold: 0.3, score: 0.7, valid: true},
			},
			want:      0.3,
			wantValid: 2,
		},
		{
			name: "negative scores",
			candidates: []thresholdCandidate{
				{threshold: 0.2, score: -0.4, valid: true},
				{threshold: 0.3, score: -0.1, valid: true},
			},
			want:      0.3,
			wantValid: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, valid, err := bestThreshold(tt.candidates)
			if err != nil {
				t.Fatal(err)
			}
			if !approxEqual(got, tt.want) {
				t.Errorf("threshold = %v, want %v", got, tt.want)
			}
			if valid != tt.wantValid {
				t.Errorf("valid = %d, want %d", valid, tt.wantValid)
			}
		})
	}
}

func TestBestThresholdNoValidCandidate(t *testing.T) {
	_, _, _, err := bestThreshold([]thresholdCandidate{{threshold: 0.1}, {threshold: 0.2}})
	assertErrorIs(t, err, ErrDegenerateClustering)
}

func TestOptimiseTwoIdenticalSentences(t *testing.T) {
	_, err := OptimiseThreshold(matrixOf([]float64{1, 0}, []float64{1, 0}))
	assertErrorIs(t, err, ErrDegenerateClustering)
}

func TestOptimiseIdenticalRows(t *testing.T) {
	// Every cut is either all singletons or a single cluster.
	_, err := OptimiseThreshold(matrixOf([]float64{1, 0}, []float64{1, 0}, []float64{1, 0}))
	assertErrorIs(t, err, ErrDegenerateClustering)
}

func TestOptimiseTwoGroups(t *testing.T) {
	res, err := ThresholdOptions{}.Optimise(matrixOf(twoGroups...))
	if err != nil {
		t.Fatal(err)
	}
	want := ClusterAssignment{0, 0, 0, 1, 1, 1}
	if !reflect.DeepEqual(res.Assignment, want) {
		t.Errorf("assignment = %v, want %v", res.Assignment, want)
	}
	if res.Silhouette < 0.9 {
		t.Errorf("silhouette = %v, want > 0.9", res.Silhouette)
	}
	if res.Threshold <= 0 || res.Threshold >= 2 {
		t.Errorf("threshold = %v, want inside (0, 2)", res.Threshold)
	}
	if k := res.Summary.Clusters; k < 2 || k > len(twoGroups)-1 {
		t.Errorf("summary has %d clusters", k)
	}

	threshold, err := OptimiseThreshold(matrixOf(twoGroups...))
	if err != nil {
		t.Fatal(err)
	}
	if threshold != res.Threshold {
		t.Errorf("OptimiseThreshold = %v, Optimise = %v", threshold, res.Threshold)
	}
}

func TestOptimiseIndependentOfWorkers(t *testing.T) {
	m := matrixOf(twoGroups...)
	serial, err := ThresholdOptions{Workers: 1}.Optimise(m)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := ThresholdOptions{Workers: 8}.Optimise(m)
	if err != nil {
		t.Fatal(err)
	}
	if serial.Threshold != parallel.Threshold || serial.Silhouette != parallel.Silhouette {
		t.Errorf("serial %v/%v, parallel %v/%v",
			serial.Threshold, serial.Silhouette, parallel.Threshold, parallel.Silhouette)
	}
}

func TestOptimiseCustomGrid(t *testing.T) {
	res, err := ThresholdOptions{Steps: 11, Min: 0.1, Max: 1.1}.Optimise(matrixOf(twoGroups...))
	if err != nil {
		t.Fatal(err)
	}
	if res.Threshold < 0.1 || res.Threshold > 1.1 {
		t.Errorf("threshold = %v outside the grid", res.Threshold)
	}
	if res.Valid == 0 || res.Valid > 11 {
		t.Errorf("valid = %d", res.Valid)
	}
}

func TestThresholdOptionsDefaultMax(t *testing.T) {
	o := ThresholdOptions{Steps: 4, Min: 0.5}.withDefaults()
	if o.Max != 2 {
		t.Fatalf("Max = %v, want 2", o.Max)
	}
	want := []float64{0.5, 1, 1.5, 2}
	if got := o.grid(); !reflect.DeepEqual(got, want) {
		t.Errorf("grid = %v, want %v", got, want)
	}
}

func TestOptimiseEmptyRange(t *testing.T) {
	_, err := ThresholdOptions{Min: 3}.Optimise(matrixOf(twoGroups...))
	assertErrorIs(t, err, ErrInvalidInput)

	_, err = ThresholdOptions{Min: 1, Max: 0.5}.Optimise(matrixOf(twoGroups...))
	assertErrorIs(t, err, ErrInvalidInput)
}
