package topicseed

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Label is the two-valued topic presence label. LabelNone marks items that
// are clustered on text alone.
type Label int

const (
	LabelNone Label = iota
	LabelYes
	LabelNo
)

// Labels is the fixed label vocabulary used for one-hot encoding.
var Labels = [...]Label{LabelYes, LabelNo}

func (l Label) String() string {
	switch l {
	case LabelYes:
		return "Yes"
	case LabelNo:
		return "No"
	case LabelNone:
		return ""
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel parses "Yes" or "No". The empty string yields LabelNone.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "Yes":
		return LabelYes, nil
	case "No":
		return LabelNo, nil
	case "":
		return LabelNone, nil
	}
	return LabelNone, fmt.Errorf("%w: unknown label %q", ErrInvalidInput, s)
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Label) MarshalYAML() (any, error) {
	return l.String(), nil
}

func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LabelledSentence is a sentence with its label and the labeller's
// explanation. Values compare with ==.
type LabelledSentence struct {
	SentenceText string `json:"sentence_text" yaml:"sentence_text"`
	Label        Label  `json:"label,omitempty" yaml:"label,omitempty"`
	Explanation  string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// ClusterGroup is the set of sentences that share a cluster id, in input order.
// Label is set when the group came out of a label-stratified run.
type ClusterGroup struct {
	ClusterID int                `json:"cluster_id"`
	Label     Label              `json:"label,omitempty"`
	Sentences []LabelledSentence `json:"sentences"`
}
