package topicseed

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var suggestFlags struct {
	topicID     string
	generate    int
	hintRounds  int
	selections  int
	onImbalance string
	shuffle     bool
	seed        uint64
	output      string
}

var SuggestSentencesCmd = &cobra.Command{
	Use:   "suggest -t <topic-id>",
	Short: "Cluster a topic's labelled sentences and suggest a diverse training subset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if suggestFlags.topicID == "" {
			return fmt.Errorf("flag -t is required")
		}
		policy, err := ParseImbalancePolicy(suggestFlags.onImbalance)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer closeStore(store)

		topic, err := LoadTopic(cmd.Context(), store, suggestFlags.topicID)
		if err != nil {
			return err
		}
		log.Printf("Loaded topic %q with %d labelled sentences", topic.Name, len(topic.LabelledSentences))

		svc, err := newServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		m := &Maximiser{Generator: svc.generator, Clusterer: svc.clusterer()}
		result, err := m.Maximise(cmd.Context(), MaximiseRequest{
			Topic:        *topic,
			HintRounds:   suggestFlags.hintRounds,
			NewSentences: suggestFlags.generate,
			Selections:   suggestFlags.selections,
			Shuffle:      suggestFlags.shuffle,
			Seed:         suggestFlags.seed,
			OnImbalance:  policy,
		})
		if err != nil {
			return err
		}
		for _, s := range result.Summaries {
			log.Printf("Clusters: %d, silhouette: %.4f, threshold: %.4f (%s)",
				s.Clusters, s.Silhouette, s.Threshold, s.QualityAssessment)
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal suggestions: %w", err)
		}
		if err := os.WriteFile(suggestFlags.output, data, 0644); err != nil {
			return fmt.Errorf("failed to write suggestions: %w", err)
		}
		log.Printf("Suggestions written to %s", suggestFlags.output)
		return nil
	},
}

func init() {
	f := SuggestSentencesCmd.Flags()
	f.StringVarP(&suggestFlags.topicID, "topic", "t", "", "topic id")
	f.IntVarP(&suggestFlags.generate, "generate", "n", 0, "sentences to generate before clustering")
	f.IntVar(&suggestFlags.hintRounds, "hint-rounds", 0, "hint rounds before clustering")
	f.IntVar(&suggestFlags.selections, "select", 0, "also let the language model select this many sentences")
	f.StringVar(&suggestFlags.onImbalance, "on-imbalance", "fail", "what to do when a label has too few sentences: fail, unstratified or include")
	f.BoolVar(&suggestFlags.shuffle, "shuffle", false, "shuffle the sentence pool before clustering")
	f.Uint64Var(&suggestFlags.seed, "seed", 42, "shuffle seed")
	f.StringVarP(&suggestFlags.output, "output", "o", "suggestions.json", "output file")
}
