package topicseed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go/v3"
)

// TopicContext is what the language model is told about a topic.
type TopicContext struct {
	Name              string             `json:"name" yaml:"name"`
	Definition        string             `json:"definition" yaml:"definition"`
	Keywords          []string           `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	NameVariations    []string           `json:"name_variations,omitempty" yaml:"name_variations,omitempty"`
	DifficultCases    []string           `json:"difficult_cases,omitempty" yaml:"difficult_cases,omitempty"`
	LabelledSentences []LabelledSentence `json:"labelled_sentences,omitempty" yaml:"labelled_sentences,omitempty"`
}

// TopicHints are additional keywords, name variations and difficult cases.
type TopicHints struct {
	Keywords       []string `json:"keywords" jsonschema:"description=Keywords often associated with the topic"`
	NameVariations []string `json:"name_variations" jsonschema:"description=Alternative ways in which the topic is referred to"`
	DifficultCases []string `json:"difficult_cases" jsonschema:"description=Contexts or scenarios that would make it difficult to label for the topic"`
}

// SentenceGenerator is the language-model collaborator of the suggestion pipeline.
type SentenceGenerator interface {
	GenerateSentences(ctx context.Context, n int, topic TopicContext) ([]GeneratedSentence, error)
	GenerateHints(ctx context.Context, topic TopicContext) (*TopicHints, error)
	SelectSentences(ctx context.Context, n int, pool []LabelledSentence, topic TopicContext) ([]LabelledSentence, error)
}

// Generator implements SentenceGenerator with OpenAI structured outputs.
type Generator struct {
	client *openai.Client
	model  string
}

var _ SentenceGenerator = (*Generator)(nil)

func NewGenerator(client *openai.Client, model string) *Generator {
	if model == "" {
		model = DefaultChatModel
	}
	return &Generator{client: client, model: model}
}

type generatedSentences struct {
	Sentences []GeneratedSentence `json:"sentences" jsonschema:"description=Generated difficult sentences"`
}

type selectedSentences struct {
	SentenceTexts []string `json:"sentence_texts" jsonschema:"description=The exact sentence_text of every selected sentence"`
}

const introduction = "Imagine that you are a Named Entity Recognition service that predicts whether a topic is present in a given sentence. " +
	"You are an expert within financial news, and you identify these topics in sentences taken from financial sources.\n\n"

// GenerateSentences asks for n sentences that would be difficult to label.
// The result is unvalidated; pass it through ValidateGenerated.
func (g *Generator) GenerateSentences(ctx context.Context, n int, topic TopicContext) ([]GeneratedSentence, error) {
	if n <= 0 {
		return nil, nil
	}
	system := "You are a Sentence Generation expert, creating sentences that would be difficult for a Named Entity Recognition expert. " +
		"You are self-reflective, being aware of cases that would be difficult for you."
	user := introduction + writeTopicInformation(topic, true) + "\n\n" + fmt.Sprintf(
		"Provide %d sentences, each with a sentence, a label and an explanation, that you would have a difficult time labelling. "+
			"The label is \"Yes\" if the topic is present in the sentence and \"No\" otherwise. "+
			"Use the name variations, difficult cases and labelled sentences above as inspiration, but do not repeat them.", n)

	var out generatedSentences
	if err := completeJSON(ctx, g.client, g.model, "sentence_generation",
		"Generate sentences for a given topic that would be difficult to label", system, user, &out); err != nil {
		return nil, err
	}
	if len(out.Sentences) != n {
		log.Printf("Requested %d generated sentences, received %d", n, len(out.Sentences))
	}
	return out.Sentences, nil
}

// GenerateHints asks for keywords, name variations and difficult cases not
// already listed in topic.
func (g *Generator) GenerateHints(ctx context.Context, topic TopicContext) (*TopicHints, error) {
	system := "You are a financial expert, knowledgeable in Named Entity Recognition, proficient at analysing given contexts and identifying features that are characteristic of them. " +
		"For a financial topic you find keywords, name variations and difficult cases that are useful for labelling sentences."
	user := introduction + writeTopicInformation(topic, true) + "\n\n" +
		"The keywords, name variations and descriptions of difficult cases above are by no means exhaustive. " +
		"Using the definition of the topic, the labelled sentences and the given lists, provide any others that are not already listed."

	var out TopicHints
	if err := completeJSON(ctx, g.client, g.model, "keyword_name_variation_difficult_cases_lists",
		"Generate lists of keywords, name variations and descriptions of difficult cases", system, user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectSentences asks the model for the n most useful training sentences
// from pool and returns the matching pool members in pool order.
func (g *Generator) SelectSentences(ctx context.Context, n int, pool []LabelledSentence, topic TopicContext) ([]LabelledSentence, error) {
	if n <= 0 || len(pool) == 0 {
		return nil, nil
	}
	system := "You are a training-sample optimisation expert, proficient at selecting the most efficient training set for a Named Entity Recognition model."
	poolJSON, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentences: %w", err)
	}
	user := "You are an assistant in a Named Entity Recognition model-training environment. You select the training sentences that, " +
		"using the smallest possible number of sentences, provide the largest possible variation in the data.\n\n" +
		writeTopicInformation(topic, false) + "\n\n" +
		fmt.Sprintf("Here are the candidate sentences:\n%s\n\n", poolJSON) +
		fmt.Sprintf("Choose %d of these sentences according to the utility they provide, considering the interplay between them. "+
			"Return the sentence_text of each chosen sentence exactly as given.", n)

	var out selectedSentences
	if err := completeJSON(ctx, g.client, g.model, "sentence_selection",
		"Select the most useful training sentences", system, user, &out); err != nil {
		return nil, err
	}
	return matchSelection(pool, out.SentenceTexts), nil
}

// matchSelection keeps the pool members whose text was selected, in pool order.
func matchSelection(pool []LabelledSentence, texts []string) []LabelledSentence {
	selected := make(map[string]bool, len(texts))
	for _, t := range texts {
		selected[t] = true
	}
	var l []LabelledSentence
	for _, s := range pool {
		if selected[s.SentenceText] {
			l = append(l, s)
		}
	}
	return l
}

func writeTopicInformation(topic TopicContext, withSentences bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are tasked with labelling the following topic:\n\n%s\n%s", topic.Name, topic.Definition)

	b.WriteString("\n\nHere are some keywords that are often associated with the topic. " +
		"Note, the mere presence of a keyword in a sentence does not guarantee the presence of the topic.")
	for _, k := range topic.Keywords {
		b.WriteString("\n" + k)
	}

	b.WriteString("\n\nHere are some name variations for the topic: other ways in which it is commonly referred to.")
	for _, nv := range topic.NameVariations {
		b.WriteString("\n" + nv)
	}

	b.WriteString("\n\nHere are some descriptions of difficult cases for the topic. " +
		"These are cases which might confuse the labeller and lead them to place an incorrect label.")
	for _, dc := range topic.DifficultCases {
		b.WriteString("\n" + dc)
	}

	if withSentences && len(topic.LabelledSentences) > 0 {
		b.WriteString("\n\nHere are some sample sentences, with labels attached and an explanation for the label.")
		for _, s := range topic.LabelledSentences {
			fmt.Fprintf(&b, "\nSentence: %s\nLabel: %s\nExplanation: %s", s.SentenceText, s.Label, s.Explanation)
		}
	}
	return b.String()
}
