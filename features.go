package topicseed

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FeatureMode selects how sentences are turned into clustering features.
type FeatureMode int

const (
	// ModeTextOnly embeds the sentence text alone.
	ModeTextOnly FeatureMode = iota
	// ModeTextLabelExplanation concatenates [sentence | one-hot label | explanation].
	ModeTextLabelExplanation
)

func (m FeatureMode) String() string {
	switch m {
	case ModeTextOnly:
		return "text_only"
	case ModeTextLabelExplanation:
		return "text_label_explanation"
	}
	return fmt.Sprintf("FeatureMode(%d)", int(m))
}

// FeatureMatrix holds one feature row per input item, in input order.
type FeatureMatrix struct {
	*mat.Dense
}

// Len returns the number of rows.
func (m FeatureMatrix) Len() int {
	r, _ := m.Dims()
	return r
}

// Row returns row i without copying.
func (m FeatureMatrix) Row(i int) []float64 {
	return m.RawRowView(i)
}

// ComposeFeatures builds the clustering input for items.
func ComposeFeatures(ctx context.Context, embedder Embedder, items []LabelledSentence, mode FeatureMode) (FeatureMatrix, error) {
	if len(items) == 0 {
		return FeatureMatrix{}, fmt.Errorf("%w: no sentences to embed", ErrInvalidInput)
	}

	sentences := make([]string, len(items))
	for i, item := range items {
		sentences[i] = item.SentenceText
	}
	sentenceVecs, err := embedAll(ctx, embedder, sentences)
	if err != nil {
		return FeatureMatrix{}, err
	}
	normalizeRows(sentenceVecs)

	switch mode {
	case ModeTextOnly:
		return stackRows(sentenceVecs), nil

	case ModeTextLabelExplanation:
		explanationVecs, err := embedExplanations(ctx, embedder, items, len(sentenceVecs[0]))
		if err != nil {
			return FeatureMatrix{}, err
		}

		rows := make([][]float64, len(items))
		for i, item := range items {
			onehot, err := oneHotLabel(item.Label)
			if err != nil {
				return FeatureMatrix{}, fmt.Errorf("sentence %d: %w", i, err)
			}
			row := make([]float64, 0, len(sentenceVecs[i])+len(onehot)+len(explanationVecs[i]))
			row = append(row, sentenceVecs[i]...)
			row = append(row, onehot...)
			row = append(row, explanationVecs[i]...)
			rows[i] = row
		}
		return stackRows(rows), nil
	}
	return FeatureMatrix{}, fmt.Errorf("%w: unknown feature mode %v", ErrInvalidInput, mode)
}

// embedExplanations embeds the non-empty explanations of items. Items without
// an explanation get a zero vector, which adds nothing to cosine similarity.
func embedExplanations(ctx context.Context, embedder Embedder, items []LabelledSentence, dim int) ([][]float64, error) {
	var texts []string
	var idx []int
	for i, item := range items {
		if strings.TrimSpace(item.Explanation) == "" {
			continue
		}
		texts = append(texts, item.Explanation)
		idx = append(idx, i)
	}

	vecs := make([][]float64, len(items))
	if len(texts) > 0 {
		embedded, err := embedAll(ctx, embedder, texts)
		if err != nil {
			return nil, err
		}
		normalizeRows(embedded)
		for j, i := range idx {
			vecs[i] = embedded[j]
		}
		dim = len(embedded[0])
	}
	for i := range vecs {
		if vecs[i] == nil {
			vecs[i] = make([]float64, dim)
		}
	}
	return vecs, nil
}

// oneHotLabel encodes l over the fixed vocabulary Labels, so the width does
// not depend on which labels a batch happens to contain.
func oneHotLabel(l Label) ([]float64, error) {
	v := make([]float64, len(Labels))
	for i, known := range Labels {
		if l == known {
			v[i] = 1
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: label %v is not one of Yes/No", ErrInvalidInput, l)
}

func embedAll(ctx context.Context, embedder Embedder, texts []string) ([][]float64, error) {
	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", ErrDependencyUnavailable, len(vecs), len(texts))
	}
	dim := len(vecs[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty vectors", ErrDependencyUnavailable)
	}
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDependencyUnavailable, i, len(v), dim)
		}
	}
	return vecs, nil
}

// normalizeRows scales every vector to unit L2 norm in place. Zero vectors are left as is.
func normalizeRows(vecs [][]float64) {
	for i, v := range vecs {
		norm := floats.Norm(v, 2)
		if norm == 0 {
			continue
		}
		scaled := make([]float64, len(v))
		floats.ScaleTo(scaled, 1/norm, v)
		vecs[i] = scaled
	}
}

func stackRows(rows [][]float64) FeatureMatrix {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return FeatureMatrix{Dense: m}
}
