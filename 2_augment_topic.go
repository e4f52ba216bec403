package topicseed

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var augmentFlags struct {
	topicID    string
	sentences  int
	hintRounds int
	dryRun     bool
}

var AugmentTopicCmd = &cobra.Command{
	Use:   "augment -t <topic-id>",
	Short: "Generate difficult sentences for a topic and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if augmentFlags.topicID == "" {
			return fmt.Errorf("flag -t is required")
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer closeStore(store)

		svc, err := newServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		res, err := AugmentTopic(cmd.Context(), store, svc.generator, AugmentRequest{
			TopicID:    augmentFlags.topicID,
			Sentences:  augmentFlags.sentences,
			HintRounds: augmentFlags.hintRounds,
			LabellerID: labellerID(),
			DryRun:     augmentFlags.dryRun,
		})
		if err != nil {
			return err
		}
		for _, s := range res.Sentences {
			log.Printf("  [%s] %s", s.Label, s.SentenceText)
		}
		return nil
	},
}

func init() {
	AugmentTopicCmd.Flags().StringVarP(&augmentFlags.topicID, "topic", "t", "", "topic id")
	AugmentTopicCmd.Flags().IntVarP(&augmentFlags.sentences, "sentences", "n", 5, "number of sentences to generate")
	AugmentTopicCmd.Flags().IntVar(&augmentFlags.hintRounds, "hint-rounds", 1, "keyword/name-variation/difficult-case rounds before generating")
	AugmentTopicCmd.Flags().BoolVar(&augmentFlags.dryRun, "dry-run", false, "print the sentences without storing them")
}

// AugmentRequest configures AugmentTopic.
type AugmentRequest struct {
	TopicID    string
	Sentences  int
	HintRounds int
	LabellerID string
	// DryRun skips writing to the store.
	DryRun bool
}

// AugmentResult holds what AugmentTopic generated.
type AugmentResult struct {
	Sentences   []LabelledSentence
	SentenceIDs []string
	Rejected    int
	Hints       TopicHints
}

// AugmentTopic loads a topic, enriches its prompt with generated hints,
// generates sentences and stores the valid ones as generated sentences.
func AugmentTopic(ctx context.Context, store DocumentStore, gen SentenceGenerator, req AugmentRequest) (*AugmentResult, error) {
	topic, err := LoadTopic(ctx, store, req.TopicID)
	if err != nil {
		return nil, err
	}

	res := &AugmentResult{}
	for i := 0; i < req.HintRounds; i++ {
		hints, err := gen.GenerateHints(ctx, *topic)
		if err != nil {
			return nil, fmt.Errorf("generate hints: %w", err)
		}
		res.Hints.Keywords = append(res.Hints.Keywords, hints.Keywords...)
		res.Hints.NameVariations = append(res.Hints.NameVariations, hints.NameVariations...)
		res.Hints.DifficultCases = append(res.Hints.DifficultCases, hints.DifficultCases...)
	}
	// Hints only steer this generation; the stored definition is left as written.
	topic.Keywords = append(topic.Keywords, res.Hints.Keywords...)
	topic.NameVariations = append(topic.NameVariations, res.Hints.NameVariations...)
	topic.DifficultCases = append(topic.DifficultCases, res.Hints.DifficultCases...)

	generated, err := gen.GenerateSentences(ctx, req.Sentences, *topic)
	if err != nil {
		return nil, fmt.Errorf("generate sentences: %w", err)
	}
	valid, rejected := ValidateGenerated(generated)
	res.Sentences = valid
	res.Rejected = len(rejected)

	if req.DryRun {
		log.Printf("Generated %d sentences for %s (%d rejected), not stored", len(valid), req.TopicID, len(rejected))
		return res, nil
	}
	ids, err := SaveGeneratedSentences(ctx, store, req.TopicID, req.LabellerID, valid)
	if err != nil {
		return nil, err
	}
	res.SentenceIDs = ids
	log.Printf("✅ Stored %d generated sentences for %s (%d rejected)", len(ids), req.TopicID, len(rejected))
	return res, nil
}
