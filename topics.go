package topicseed

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// NoParentTopic is the parent id of top-level topics.
const NoParentTopic = "none0"

const (
	firstTopicNumber = 40
	definitionDraft  = "Draft"
	defaultLanguage  = "English"
)

// TopicEntity is a record of the topic_entity collection.
type TopicEntity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	ParentTopicID string `json:"parent_topic_id"`
	LabellerID    string `json:"labeller_id"`
}

// TopicDefinition is a record of the topic_entity_definition collection.
type TopicDefinition struct {
	TopicID        string   `json:"topic_id"`
	Name           string   `json:"name"`
	Definition     string   `json:"definition"`
	Language       string   `json:"language"`
	Status         string   `json:"status"`
	Keywords       []string `json:"keywords"`
	NameVariations []string `json:"name_variations"`
	DifficultCases []string `json:"difficult_cases"`
}

// SentenceRecord is a record of the labelled_sentence collection.
type SentenceRecord struct {
	SentenceText     string `json:"sentence_text"`
	Translated       bool   `json:"translated"`
	Generated        bool   `json:"generated"`
	ParentSentenceID string `json:"parent_sentence_id"`
}

// SentenceLabelRecord is a record of the sentence_label collection. It links
// a sentence to a topic.
type SentenceLabelRecord struct {
	LabellerID     string  `json:"labeller_id"`
	SentenceID     string  `json:"sentence_id"`
	TopicID        string  `json:"topic_id"`
	PositionInText int     `json:"position_in_text"`
	Confidence     float64 `json:"confidence"`
	Label          Label   `json:"label"`
	Explanation    string  `json:"explanation"`
}

// TopicInput is a new topic as written by a labeller.
type TopicInput struct {
	Name           string             `json:"name" yaml:"name"`
	Definition     string             `json:"definition" yaml:"definition"`
	ParentTopicID  string             `json:"parent_topic_id,omitempty" yaml:"parent_topic_id,omitempty"`
	Language       string             `json:"language,omitempty" yaml:"language,omitempty"`
	Keywords       []string           `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	NameVariations []string           `json:"name_variations,omitempty" yaml:"name_variations,omitempty"`
	DifficultCases []string           `json:"difficult_cases,omitempty" yaml:"difficult_cases,omitempty"`
	Sentences      []LabelledSentence `json:"sentences,omitempty" yaml:"sentences,omitempty"`
}

func (in *TopicInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: topic name is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Definition) == "" {
		return fmt.Errorf("%w: topic %q has no definition", ErrInvalidInput, in.Name)
	}
	for i, s := range in.Sentences {
		if strings.TrimSpace(s.SentenceText) == "" {
			return &MalformedSentenceError{Index: i, Reason: "empty sentence text"}
		}
		if s.Label != LabelYes && s.Label != LabelNo {
			return &MalformedSentenceError{Index: i, Reason: "label must be Yes or No"}
		}
	}
	return nil
}

// SaveTopic writes a new topic with its definition and labelled sentences and
// returns the allocated topic id.
func SaveTopic(ctx context.Context, store DocumentStore, in TopicInput, labellerID string) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.ParentTopicID == "" {
		in.ParentTopicID = NoParentTopic
	}
	if in.Language == "" {
		in.Language = defaultLanguage
	}

	docs, err := store.Search(ctx, CollectionTopicEntity, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list topics: %w", err)
	}
	ids := make(map[string]bool, len(docs))
	for _, doc := range docs {
		var topic TopicEntity
		if err := doc.Decode(&topic); err != nil {
			return "", fmt.Errorf("failed to decode topic %s: %w", doc.ID, err)
		}
		if topic.Name == in.Name {
			return "", fmt.Errorf("%w: topic %q already exists as %s", ErrInvalidInput, in.Name, topic.ID)
		}
		ids[topic.ID] = true
	}
	if in.ParentTopicID != NoParentTopic && !ids[in.ParentTopicID] {
		return "", fmt.Errorf("%w: parent topic %s", ErrNotFound, in.ParentTopicID)
	}

	id := nextTopicID(ids)
	topicType := "subtopic"
	if in.ParentTopicID == NoParentTopic {
		topicType = "topic"
	}

	if _, err := store.Insert(ctx, CollectionTopicEntity, TopicEntity{
		ID:            id,
		Name:          in.Name,
		Type:          topicType,
		ParentTopicID: in.ParentTopicID,
		LabellerID:    labellerID,
	}); err != nil {
		return "", fmt.Errorf("failed to save topic: %w", err)
	}
	if _, err := store.Insert(ctx, CollectionTopicDefinition, TopicDefinition{
		TopicID:        id,
		Name:           in.Name,
		Definition:     in.Definition,
		Language:       in.Language,
		Status:         definitionDraft,
		Keywords:       nonNil(in.Keywords),
		NameVariations: nonNil(in.NameVariations),
		DifficultCases: nonNil(in.DifficultCases),
	}); err != nil {
		return "", fmt.Errorf("failed to save topic definition: %w", err)
	}
	if _, err := saveSentences(ctx, store, id, labellerID, in.Sentences, false); err != nil {
		return "", err
	}

	log.Printf("Saved %s %s (%q) with %d labelled sentences", topicType, id, in.Name, len(in.Sentences))
	return id, nil
}

func nextTopicID(taken map[string]bool) string {
	for i := firstTopicNumber; ; i++ {
		id := fmt.Sprintf("c%d", i)
		if !taken[id] {
			return id
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SaveGeneratedSentences stores language-model sentences for a topic, marked
// as generated, and returns their sentence ids.
func SaveGeneratedSentences(ctx context.Context, store DocumentStore, topicID, labellerID string, sentences []LabelledSentence) ([]string, error) {
	return saveSentences(ctx, store, topicID, labellerID, sentences, true)
}

func saveSentences(ctx context.Context, store DocumentStore, topicID, labellerID string, sentences []LabelledSentence, generated bool) ([]string, error) {
	if len(sentences) == 0 {
		return nil, nil
	}
	records := make([]any, len(sentences))
	for i, s := range sentences {
		records[i] = SentenceRecord{
			SentenceText:     s.SentenceText,
			Generated:        generated,
			ParentSentenceID: NoParentTopic,
		}
	}
	ids, err := store.InsertMany(ctx, CollectionLabelledSentence, records)
	if err != nil {
		return nil, fmt.Errorf("failed to save sentences: %w", err)
	}

	labels := make([]any, len(sentences))
	for i, s := range sentences {
		labels[i] = SentenceLabelRecord{
			LabellerID:     labellerID,
			SentenceID:     ids[i],
			TopicID:        topicID,
			PositionInText: -1,
			Confidence:     labelConfidence(s.Label),
			Label:          s.Label,
			Explanation:    s.Explanation,
		}
	}
	if _, err := store.InsertMany(ctx, CollectionSentenceLabel, labels); err != nil {
		return nil, fmt.Errorf("failed to save sentence labels: %w", err)
	}
	return ids, nil
}

func labelConfidence(l Label) float64 {
	if l == LabelYes {
		return 1
	}
	return 0
}

// LoadTopic reads a topic, its latest definition and its labelled sentences.
func LoadTopic(ctx context.Context, store DocumentStore, topicID string) (*TopicContext, error) {
	docs, err := store.Search(ctx, CollectionTopicEntity, map[string]any{"id": topicID})
	if err != nil {
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: topic %s", ErrNotFound, topicID)
	}
	var topic TopicEntity
	if err := docs[0].Decode(&topic); err != nil {
		return nil, fmt.Errorf("failed to decode topic %s: %w", topicID, err)
	}

	defs, err := store.Search(ctx, CollectionTopicDefinition, map[string]any{"topic_id": topicID})
	if err != nil {
		return nil, fmt.Errorf("failed to find topic definition: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: definition of topic %s", ErrNotFound, topicID)
	}
	var def TopicDefinition
	if err := defs[len(defs)-1].Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to decode topic definition: %w", err)
	}

	sentences, err := LoadLabelledSentences(ctx, store, topicID)
	if err != nil {
		return nil, err
	}
	return &TopicContext{
		Name:              topic.Name,
		Definition:        def.Definition,
		Keywords:          def.Keywords,
		NameVariations:    def.NameVariations,
		DifficultCases:    def.DifficultCases,
		LabelledSentences: sentences,
	}, nil
}

// LoadLabelledSentences joins a topic's sentence labels with their sentences.
// A sentence labelled more than once keeps its first position and its latest label.
func LoadLabelledSentences(ctx context.Context, store DocumentStore, topicID string) ([]LabelledSentence, error) {
	labelDocs, err := store.Search(ctx, CollectionSentenceLabel, map[string]any{"topic_id": topicID})
	if err != nil {
		return nil, fmt.Errorf("failed to find sentence labels: %w", err)
	}
	if len(labelDocs) == 0 {
		return nil, nil
	}
	sentenceDocs, err := store.Search(ctx, CollectionLabelledSentence, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find sentences: %w", err)
	}
	texts := make(map[string]string, len(sentenceDocs))
	for _, doc := range sentenceDocs {
		var s SentenceRecord
		if err := doc.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode sentence %s: %w", doc.ID, err)
		}
		texts[doc.ID] = s.SentenceText
	}

	var result []LabelledSentence
	position := make(map[string]int)
	for _, doc := range labelDocs {
		var l SentenceLabelRecord
		if err := doc.Decode(&l); err != nil {
			return nil, fmt.Errorf("failed to decode sentence label %s: %w", doc.ID, err)
		}
		text, ok := texts[l.SentenceID]
		if !ok {
			log.Printf("Sentence label %s refers to missing sentence %s", doc.ID, l.SentenceID)
			continue
		}
		s := LabelledSentence{SentenceText: text, Label: l.Label, Explanation: l.Explanation}
		if i, ok := position[l.SentenceID]; ok {
			result[i] = s
			continue
		}
		position[l.SentenceID] = len(result)
		result = append(result, s)
	}
	return result, nil
}
