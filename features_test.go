package topicseed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestComposeFeaturesTextOnly(t *testing.T) {
	embedder := &fakeEmbedder{
		vecs: map[string][]float64{
			"a": {3, 4},
			"b": {0, 2},
		},
		fallback: []float64{1, 1},
	}
	items := []LabelledSentence{{SentenceText: "a"}, {SentenceText: "b"}}
	m, err := ComposeFeatures(context.Background(), embedder, items, ModeTextOnly)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := m.Dims(); r != 2 || c != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", r, c)
	}
	for i := 0; i < m.Len(); i++ {
		if norm := floats.Norm(m.Row(i), 2); !approxEqual(norm, 1) {
			t.Errorf("row %d norm = %v, want 1", i, norm)
		}
	}
	if got := m.Row(0); !approxEqual(got[0], 0.6) || !approxEqual(got[1], 0.8) {
		t.Errorf("row 0 = %v, want [0.6 0.8]", got)
	}
	if embedder.textsEmbedded() != 2 {
		t.Errorf("embedded %d texts, want 2", embedder.textsEmbedded())
	}
}

func TestComposeFeaturesTextLabelExplanation(t *testing.T) {
	embedder := &fakeEmbedder{
		vecs: map[string][]float64{
			"bonds rallied":  {1, 0, 0},
			"stocks fell":    {0, 1, 0},
			"mentions bonds": {0, 0, 2},
		},
		fallback: []float64{1, 0, 0},
	}
	items := []LabelledSentence{
		{SentenceText: "bonds rallied", Label: LabelYes, Explanation: "mentions bonds"},
		{SentenceText: "stocks fell", Label: LabelNo, Explanation: "no bonds"},
	}
	m, err := ComposeFeatures(context.Background(), embedder, items, ModeTextLabelExplanation)
	if err != nil {
		t.Fatal(err)
	}
	if _, c := m.Dims(); c != 3+len(Labels)+3 {
		t.Fatalf("width = %d, want %d", c, 3+len(Labels)+3)
	}
	want := [][]float64{
		{1, 0, 0, 1, 0, 0, 0, 1},
		{0, 1, 0, 0, 1, 1, 0, 0},
	}
	for i, row := range want {
		if !floats.EqualApprox(m.Row(i), row, 1e-12) {
			t.Errorf("row %d = %v, want %v", i, m.Row(i), row)
		}
	}
}

func TestComposeFeaturesMissingExplanations(t *testing.T) {
	embedder := &fakeEmbedder{
		vecs: map[string][]float64{
			"bonds rallied":  {1, 0, 0},
			"stocks fell":    {0, 1, 0},
			"gilts dipped":   {0, 0, 1},
			"mentions bonds": {0, 3, 4},
		},
		fallback: []float64{1, 1, 1},
	}
	items := []LabelledSentence{
		{SentenceText: "bonds rallied", Label: LabelYes, Explanation: "mentions bonds"},
		{SentenceText: "stocks fell", Label: LabelNo},
		{SentenceText: "gilts dipped", Label: LabelYes, Explanation: "  "},
	}
	m, err := ComposeFeatures(context.Background(), embedder, items, ModeTextLabelExplanation)
	if err != nil {
		t.Fatal(err)
	}
	for _, call := range embedder.calls {
		for _, text := range call {
			if strings.TrimSpace(text) == "" {
				t.Fatalf("blank text sent to embedder: %q", call)
			}
		}
	}
	if n := embedder.textsEmbedded(); n != 4 {
		t.Errorf("embedded %d texts, want 4", n)
	}
	want := [][]float64{
		{1, 0, 0, 1, 0, 0, 0.6, 0.8},
		{0, 1, 0, 0, 1, 0, 0, 0},
		{0, 0, 1, 1, 0, 0, 0, 0},
	}
	for i, row := range want {
		if !floats.EqualApprox(m.Row(i), row, 1e-12) {
			t.Errorf("row %d = %v, want %v", i, m.Row(i), row)
		}
	}
}

func TestComposeFeaturesNoExplanations(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float64{1, 2}}
	items := []LabelledSentence{
		{SentenceText: "a", Label: LabelYes},
		{SentenceText: "bb", Label: LabelNo},
	}
	m, err := ComposeFeatures(context.Background(), embedder, items, ModeTextLabelExplanation)
	if err != nil {
		t.Fatal(err)
	}
	if len(embedder.calls) != 1 {
		t.Errorf("embedder called %d times, want 1: %q", len(embedder.calls), embedder.calls)
	}
	if _, c := m.Dims(); c != 2+2+2 {
		t.Errorf("width = %d, want 6", c)
	}
}

func TestComposeFeaturesWidthIndependentOfBatch(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float64{1, 2}}
	onlyNo := []LabelledSentence{{SentenceText: "x", Label: LabelNo}}
	m, err := ComposeFeatures(context.Background(), embedder, onlyNo, ModeTextLabelExplanation)
	if err != nil {
		t.Fatal(err)
	}
	if _, c := m.Dims(); c != 2+2+2 {
		t.Errorf("width = %d, want 6", c)
	}
}

func TestComposeFeaturesZeroVector(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float64{0, 0}}
	m, err := ComposeFeatures(context.Background(), embedder, []LabelledSentence{{SentenceText: "x"}}, ModeTextOnly)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Row(0); got[0] != 0 || got[1] != 0 {
		t.Errorf("row = %v, want zero vector", got)
	}
}

func TestComposeFeaturesErrors(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{fallback: []float64{1, 0}}

	_, err := ComposeFeatures(ctx, embedder, nil, ModeTextOnly)
	assertErrorIs(t, err, ErrInvalidInput)

	_, err = ComposeFeatures(ctx, embedder, []LabelledSentence{{SentenceText: "x"}}, ModeTextLabelExplanation)
	assertErrorIs(t, err, ErrInvalidInput)

	_, err = ComposeFeatures(ctx, embedder, []LabelledSentence{{SentenceText: "x"}}, FeatureMode(9))
	assertErrorIs(t, err, ErrInvalidInput)

	backendDown := errors.New("connection refused")
	_, err = ComposeFeatures(ctx, &fakeEmbedder{err: backendDown}, []LabelledSentence{{SentenceText: "x"}}, ModeTextOnly)
	assertErrorIs(t, err, backendDown)
}

type shortEmbedder struct{}

func (shortEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return [][]float64{{1}}, nil
}

func TestComposeFeaturesCountMismatch(t *testing.T) {
	items := []LabelledSentence{{SentenceText: "a"}, {SentenceText: "b"}}
	_, err := ComposeFeatures(context.Background(), shortEmbedder{}, items, ModeTextOnly)
	assertErrorIs(t, err, ErrDependencyUnavailable)
}

func TestFeatureModeString(t *testing.T) {
	if ModeTextOnly.String() != "text_only" || ModeTextLabelExplanation.String() != "text_label_explanation" {
		t.Errorf("unexpected names %q %q", ModeTextOnly, ModeTextLabelExplanation)
	}
}
