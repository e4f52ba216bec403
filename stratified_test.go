package topicseed

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func labelledEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vecs: map[string][]float64{
			"yes bonds 1":  twoGroups[0],
			"yes bonds 2":  twoGroups[1],
			"yes equity":   twoGroups[3],
			"no rates 1":   twoGroups[4],
			"no rates 2":   twoGroups[5],
			"no credit":    twoGroups[2],
			"no credit 2":  twoGroups[1],
			"no currently": twoGroups[0],
		},
		fallback: []float64{0, 0, 1},
	}
}

func stratifiedInput() []LabelledSentence {
	return []LabelledSentence{
		{SentenceText: "no rates 1", Label: LabelNo},
		{SentenceText: "yes bonds 1", Label: LabelYes},
		{SentenceText: "no credit", Label: LabelNo},
		{SentenceText: "yes equity", Label: LabelYes},
		{SentenceText: "yes bonds 2", Label: LabelYes},
		{SentenceText: "no rates 2", Label: LabelNo},
	}
}

func TestClusterByLabel(t *testing.T) {
	c := &Clusterer{Embedder: labelledEmbedder()}
	items := stratifiedInput()
	groups, summaries, err := c.ClusterByLabel(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Errorf("len(summaries) = %d, want 2", len(summaries))
	}

	// Yes groups come first and every group is single-label.
	seenNo := false
	var yes, no []string
	for _, g := range groups {
		for _, s := range g.Sentences {
			if s.Label != g.Label {
				t.Errorf("group %d (%s) holds %q labelled %s", g.ClusterID, g.Label, s.SentenceText, s.Label)
			}
			if g.Label == LabelYes {
				yes = append(yes, s.SentenceText)
			} else {
				no = append(no, s.SentenceText)
			}
		}
		switch g.Label {
		case LabelYes:
			if seenNo {
				t.Errorf("Yes group after a No group")
			}
		case LabelNo:
			seenNo = true
		default:
			t.Errorf("group without label: %+v", g)
		}
	}

	sort.Strings(yes)
	sort.Strings(no)
	if want := []string{"yes bonds 1", "yes bonds 2", "yes equity"}; !reflect.DeepEqual(yes, want) {
		t.Errorf("yes sentences = %v, want %v", yes, want)
	}
	if want := []string{"no credit", "no rates 1", "no rates 2"}; !reflect.DeepEqual(no, want) {
		t.Errorf("no sentences = %v, want %v", no, want)
	}

	// Yes: {bonds 1, bonds 2} {equity}. No: {rates 1, rates 2} {credit}.
	if len(groups) != 4 {
		t.Fatalf("len(groups) = %d, want 4", len(groups))
	}
	if got := groups[0].Sentences; len(got) != 2 || got[0].SentenceText != "yes bonds 1" || got[1].SentenceText != "yes bonds 2" {
		t.Errorf("first Yes group = %+v", got)
	}
	if got := groups[2].Sentences; len(got) != 2 || got[0].SentenceText != "no rates 1" {
		t.Errorf("first No group = %+v", got)
	}
}

func TestClusterByLabelMissingYes(t *testing.T) {
	c := &Clusterer{Embedder: labelledEmbedder()}
	items := []LabelledSentence{
		{SentenceText: "no rates 1", Label: LabelNo},
		{SentenceText: "no rates 2", Label: LabelNo},
		{SentenceText: "no credit", Label: LabelNo},
		{SentenceText: "no credit 2", Label: LabelNo},
	}
	groups, _, err := c.ClusterByLabel(context.Background(), items)
	if groups != nil {
		t.Errorf("groups = %+v, want none", groups)
	}
	assertErrorIs(t, err, ErrLabelImbalance)
	var imbalance *LabelImbalanceError
	if !errors.As(err, &imbalance) {
		t.Fatalf("error %v is not a *LabelImbalanceError", err)
	}
	if imbalance.Label != LabelYes || imbalance.Count != 0 {
		t.Errorf("imbalance = %+v, want Yes with 0 items", imbalance)
	}
	assertErrorIs(t, err, ErrDegenerateClustering)
}

func TestClusterByLabelRejectsUnlabelled(t *testing.T) {
	c := &Clusterer{Embedder: labelledEmbedder()}
	items := append(stratifiedInput(), LabelledSentence{SentenceText: "unlabelled"})
	_, _, err := c.ClusterByLabel(context.Background(), items)
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestClusterByLabelBackendFailure(t *testing.T) {
	backendDown := errors.New("backend down")
	c := &Clusterer{Embedder: &fakeEmbedder{err: backendDown}}
	_, _, err := c.ClusterByLabel(context.Background(), stratifiedInput())
	assertErrorIs(t, err, backendDown)
	if errors.Is(err, ErrLabelImbalance) {
		t.Errorf("backend failure reported as label imbalance: %v", err)
	}
}

func TestClusterSentencesTooFew(t *testing.T) {
	c := &Clusterer{Embedder: labelledEmbedder()}
	_, err := c.ClusterSentences(context.Background(), stratifiedInput()[:2], ModeTextOnly)
	assertErrorIs(t, err, ErrDegenerateClustering)
}

func TestClusterSentencesTextOnly(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float64{1, 0, 0}, vecs: map[string][]float64{}}
	var items []LabelledSentence
	for i, v := range twoGroups {
		text := string(rune('a' + i))
		embedder.vecs[text] = v
		items = append(items, LabelledSentence{SentenceText: text})
	}
	res, err := (&Clusterer{Embedder: embedder}).ClusterSentences(context.Background(), items, ModeTextOnly)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(res.Groups))
	}
	for id, g := range res.Groups {
		if g.ClusterID != id || len(g.Sentences) != 3 {
			t.Errorf("group %d = %+v", id, g)
		}
	}
	// Only sentence texts are embedded in text_only mode.
	if embedder.textsEmbedded() != len(items) {
		t.Errorf("embedded %d texts, want %d", embedder.textsEmbedded(), len(items))
	}
}
