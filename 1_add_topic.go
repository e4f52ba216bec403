package topicseed

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var addTopicFile string

var AddTopicCmd = &cobra.Command{
	Use:   "add-topic -f <topic.yaml>",
	Short: "Save a new topic with its definition and labelled sentences",
	Long: `Save a new topic from a YAML file:

  name: Bonds
  definition: Debt securities issued by governments or companies.
  parent_topic_id: none0
  keywords: [bond, coupon, yield]
  sentences:
    - sentence_text: The company issued new bonds
      label: "Yes"
      explanation: Mentions bonds directly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addTopicFile == "" {
			return fmt.Errorf("flag -f is required")
		}
		in, err := LoadTopicFile(addTopicFile)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer closeStore(store)

		id, err := SaveTopic(cmd.Context(), store, *in, labellerID())
		if err != nil {
			return err
		}
		log.Printf("✅ Topic %q saved as %s", in.Name, id)
		return nil
	},
}

func init() {
	AddTopicCmd.Flags().StringVarP(&addTopicFile, "file", "f", "", "topic YAML file")
}
