package topicseed

import "strings"

// ComposeSuggestion picks one representative per group, in group order. The
// representative is the first member whose text does not contain topicName;
// when every member contains it, the group's last member is used.
func ComposeSuggestion(groups []ClusterGroup, topicName string) []LabelledSentence {
	suggestion := make([]LabelledSentence, 0, len(groups))
	for _, g := range groups {
		if rep, ok := representative(g, topicName); ok {
			suggestion = append(suggestion, rep)
		}
	}
	return suggestion
}

func representative(g ClusterGroup, topicName string) (LabelledSentence, bool) {
	if len(g.Sentences) == 0 {
		return LabelledSentence{}, false
	}
	for _, s := range g.Sentences {
		if !strings.Contains(s.SentenceText, topicName) {
			return s, true
		}
	}
	return g.Sentences[len(g.Sentences)-1], true
}
