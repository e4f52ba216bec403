package topicseed

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Clusterer clusters labelled sentences with an automatically chosen distance threshold.
type Clusterer struct {
	Embedder  Embedder
	Threshold ThresholdOptions
}

// ClusterResult is the output of clustering one population.
type ClusterResult struct {
	Groups  []ClusterGroup
	Summary ClusteringSummary
}

// ClusterSentences composes features in the given mode, optimises the distance
// threshold and groups items by cluster id in first-appearance order.
func (c *Clusterer) ClusterSentences(ctx context.Context, items []LabelledSentence, mode FeatureMode) (*ClusterResult, error) {
	if len(items) < minClusterItems {
		return nil, fmt.Errorf("%w: %d items, need at least %d", ErrDegenerateClustering, len(items), minClusterItems)
	}
	features, err := ComposeFeatures(ctx, c.Embedder, items, mode)
	if err != nil {
		return nil, fmt.Errorf("compose features: %w", err)
	}
	res, err := c.Threshold.Optimise(features)
	if err != nil {
		return nil, fmt.Errorf("optimise threshold: %w", err)
	}
	groups, err := res.Assignment.Groups(items)
	if err != nil {
		return nil, err
	}
	log.Printf("Clustered %d sentences into %d clusters (threshold %.4f, silhouette %.4f, %d valid candidates)",
		len(items), len(groups), res.Threshold, res.Silhouette, res.Valid)
	return &ClusterResult{Groups: groups, Summary: res.Summary}, nil
}

// ClusterByLabel clusters the Yes and No sub-populations independently in
// text_label_explanation mode and concatenates their groups, Yes first. Cluster
// ids of the two runs are independent; each group carries its Label.
// A sub-population too small or too uniform to cluster fails the whole call
// with a *LabelImbalanceError.
func (c *Clusterer) ClusterByLabel(ctx context.Context, items []LabelledSentence) ([]ClusterGroup, []ClusteringSummary, error) {
	partitions, err := partitionByLabel(items)
	if err != nil {
		return nil, nil, err
	}

	var groups []ClusterGroup
	var summaries []ClusteringSummary
	for _, label := range Labels {
		part := partitions[label]
		res, err := c.ClusterSentences(ctx, part, ModeTextLabelExplanation)
		if errors.Is(err, ErrDegenerateClustering) {
			return nil, nil, &LabelImbalanceError{Label: label, Count: len(part), Err: err}
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cluster %q sentences: %w", label, err)
		}
		for _, g := range res.Groups {
			g.Label = label
			groups = append(groups, g)
		}
		summaries = append(summaries, res.Summary)
	}
	return groups, summaries, nil
}

func partitionByLabel(items []LabelledSentence) (map[Label][]LabelledSentence, error) {
	partitions := make(map[Label][]LabelledSentence, len(Labels))
	for i, item := range items {
		switch item.Label {
		case LabelYes, LabelNo:
			partitions[item.Label] = append(partitions[item.Label], item)
		case LabelNone:
			return nil, fmt.Errorf("%w: sentence %d has no label", ErrInvalidInput, i)
		default:
			return nil, fmt.Errorf("%w: sentence %d has unknown label %v", ErrInvalidInput, i, item.Label)
		}
	}
	return partitions, nil
}
