package topicseed

import (
	"log"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// GeneratedSentence is a raw sentence as returned by the language model.
type GeneratedSentence struct {
	Sentence    string `json:"sentence" jsonschema:"description=A sentence that would be difficult to label with respect to the topic"`
	Label       string `json:"label" jsonschema:"enum=Yes,enum=No,description=Yes or No depending on whether the topic is present in the sentence"`
	Explanation string `json:"explanation" jsonschema:"description=One or two sentences explaining why the sentence is difficult and why it gets its label"`
}

// ValidateGenerated converts generated sentences into labelled sentences.
// Items with empty text or a label other than Yes/No are logged and dropped;
// the returned errors are *MalformedSentenceError values.
func ValidateGenerated(generated []GeneratedSentence) ([]LabelledSentence, []error) {
	valid := make([]LabelledSentence, 0, len(generated))
	var rejected []error
	for i, g := range generated {
		s, err := validateGenerated(i, g)
		if err != nil {
			log.Printf("Rejected %v", err)
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, s)
	}
	return valid, rejected
}

func validateGenerated(i int, g GeneratedSentence) (LabelledSentence, error) {
	text := norm.NFC.String(strings.TrimSpace(g.Sentence))
	if text == "" {
		return LabelledSentence{}, &MalformedSentenceError{Index: i, Reason: "empty sentence text"}
	}
	label, err := ParseLabel(strings.TrimSpace(g.Label))
	if err != nil || label == LabelNone {
		return LabelledSentence{}, &MalformedSentenceError{Index: i, Reason: "label must be Yes or No, got " + strconv.Quote(g.Label)}
	}
	return LabelledSentence{
		SentenceText: text,
		Label:        label,
		Explanation:  norm.NFC.String(strings.TrimSpace(g.Explanation)),
	}, nil
}
