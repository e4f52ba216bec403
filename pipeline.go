package topicseed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
)

// ImbalancePolicy decides what happens when one label sub-population is too
// small to cluster.
type ImbalancePolicy int

const (
	// ImbalanceFail returns the *LabelImbalanceError.
	ImbalanceFail ImbalancePolicy = iota
	// ImbalanceUnstratified clusters the whole pool at once, labels included in the features.
	ImbalanceUnstratified
	// ImbalanceIncludeAll keeps every sentence of the small sub-population as its own group.
	ImbalanceIncludeAll
)

func (p ImbalancePolicy) String() string {
	switch p {
	case ImbalanceFail:
		return "fail"
	case ImbalanceUnstratified:
		return "unstratified"
	case ImbalanceIncludeAll:
		return "include"
	}
	return fmt.Sprintf("ImbalancePolicy(%d)", int(p))
}

func ParseImbalancePolicy(s string) (ImbalancePolicy, error) {
	switch s {
	case "fail", "":
		return ImbalanceFail, nil
	case "unstratified":
		return ImbalanceUnstratified, nil
	case "include":
		return ImbalanceIncludeAll, nil
	}
	return ImbalanceFail, fmt.Errorf("%w: unknown imbalance policy %q", ErrInvalidInput, s)
}

// MaximiseRequest configures one input-maximisation run.
type MaximiseRequest struct {
	Topic TopicContext
	// HintRounds is the number of keyword/name-variation/difficult-case requests.
	HintRounds int
	// NewSentences is the number of sentences to generate.
	NewSentences int
	// Selections is the number of sentences the language model picks from the pool.
	Selections int
	// Shuffle permutes the pool with Seed before clustering.
	Shuffle     bool
	Seed        uint64
	OnImbalance ImbalancePolicy
}

// MaximiseResult bundles everything produced for a topic.
type MaximiseResult struct {
	Topic              string              `json:"topic"`
	LabelledSentences  []LabelledSentence  `json:"labelled_sentences"`
	GeneratedSentences []LabelledSentence  `json:"generated_sentences"`
	Rejected           int                 `json:"rejected_sentences"`
	Clusters           []ClusterGroup      `json:"clusters"`
	Summaries          []ClusteringSummary `json:"clustering_summaries"`
	ClusterSuggestion  []LabelledSentence  `json:"cluster_suggestion"`
	ModelSuggestion    []LabelledSentence  `json:"model_suggestion,omitempty"`
	NewKeywords        []string            `json:"new_keywords,omitempty"`
	NewNameVariations  []string            `json:"new_name_variations,omitempty"`
	NewDifficultCases  []string            `json:"new_difficult_cases,omitempty"`
}

// Maximiser augments a topic's labelled sentences and proposes a compact,
// diverse training subset.
type Maximiser struct {
	Generator SentenceGenerator
	Clusterer *Clusterer
}

func (m *Maximiser) Maximise(ctx context.Context, req MaximiseRequest) (*MaximiseResult, error) {
	if (req.HintRounds > 0 || req.NewSentences > 0 || req.Selections > 0) && m.Generator == nil {
		return nil, fmt.Errorf("%w: generation requested without a generator", ErrInvalidInput)
	}
	result := &MaximiseResult{
		Topic:             req.Topic.Name,
		LabelledSentences: req.Topic.LabelledSentences,
	}

	for i := 0; i < req.HintRounds; i++ {
		hints, err := m.Generator.GenerateHints(ctx, req.Topic)
		if err != nil {
			return nil, fmt.Errorf("generate hints: %w", err)
		}
		result.NewKeywords = append(result.NewKeywords, hints.Keywords...)
		result.NewNameVariations = append(result.NewNameVariations, hints.NameVariations...)
		result.NewDifficultCases = append(result.NewDifficultCases, hints.DifficultCases...)
	}
	if req.HintRounds > 0 {
		log.Printf("Generated %d keywords, %d name variations, %d difficult cases",
			len(result.NewKeywords), len(result.NewNameVariations), len(result.NewDifficultCases))
	}

	if req.NewSentences > 0 {
		generated, err := m.Generator.GenerateSentences(ctx, req.NewSentences, req.Topic)
		if err != nil {
			return nil, fmt.Errorf("generate sentences: %w", err)
		}
		valid, rejected := ValidateGenerated(generated)
		result.GeneratedSentences = valid
		result.Rejected = len(rejected)
		log.Printf("Generated %d sentences, %d rejected", len(generated), len(rejected))
	}

	pool := make([]LabelledSentence, 0, len(result.LabelledSentences)+len(result.GeneratedSentences))
	pool = append(pool, result.LabelledSentences...)
	pool = append(pool, result.GeneratedSentences...)
	if req.Shuffle {
		r := rand.New(rand.NewPCG(req.Seed, req.Seed))
		r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	groups, summaries, err := m.cluster(ctx, pool, req.OnImbalance)
	if err != nil {
		return nil, err
	}
	result.Clusters = groups
	result.Summaries = summaries
	result.ClusterSuggestion = ComposeSuggestion(groups, req.Topic.Name)
	log.Printf("✅ Suggested %d of %d sentences from %d clusters", len(result.ClusterSuggestion), len(pool), len(groups))

	if req.Selections > 0 {
		selected, err := m.Generator.SelectSentences(ctx, req.Selections, pool, req.Topic)
		if err != nil {
			return nil, fmt.Errorf("select sentences: %w", err)
		}
		result.ModelSuggestion = selected
	}
	return result, nil
}

func (m *Maximiser) cluster(ctx context.Context, pool []LabelledSentence, policy ImbalancePolicy) ([]ClusterGroup, []ClusteringSummary, error) {
	groups, summaries, err := m.Clusterer.ClusterByLabel(ctx, pool)
	if err == nil || !errors.Is(err, ErrLabelImbalance) {
		return groups, summaries, err
	}

	switch policy {
	case ImbalanceFail:
		return nil, nil, err

	case ImbalanceUnstratified:
		log.Printf("⚠️  %v, clustering all %d sentences together", err, len(pool))
		res, err := m.Clusterer.ClusterSentences(ctx, pool, ModeTextLabelExplanation)
		if err != nil {
			return nil, nil, fmt.Errorf("unstratified clustering: %w", err)
		}
		return res.Groups, []ClusteringSummary{res.Summary}, nil

	case ImbalanceIncludeAll:
		log.Printf("⚠️  %v, including the small sub-population unclustered", err)
		return m.clusterIncludingSmall(ctx, pool)
	}
	return nil, nil, fmt.Errorf("%w: unknown imbalance policy %v", ErrInvalidInput, policy)
}

// clusterIncludingSmall clusters each label sub-population that can be
// clustered and turns every sentence of the others into a singleton group.
func (m *Maximiser) clusterIncludingSmall(ctx context.Context, pool []LabelledSentence) ([]ClusterGroup, []ClusteringSummary, error) {
	partitions, err := partitionByLabel(pool)
	if err != nil {
		return nil, nil, err
	}
	var groups []ClusterGroup
	var summaries []ClusteringSummary
	for _, label := range Labels {
		part := partitions[label]
		res, err := m.Clusterer.ClusterSentences(ctx, part, ModeTextLabelExplanation)
		if errors.Is(err, ErrDegenerateClustering) {
			for i, s := range part {
				groups = append(groups, ClusterGroup{ClusterID: i, Label: label, Sentences: []LabelledSentence{s}})
			}
			continue
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
