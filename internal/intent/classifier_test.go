package intent_test

import (
	"errors"
	"testing"

	"github.com/deshkavote/voicebridge/internal/intent"
)

func TestClassify_ShowElections(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())

	m, err := c.Classify("show me the elections")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if m.Intent != intent.ShowElections {
		t.Errorf("Classify(%q): intent=%q, want %q", "show me the elections", m.Intent, intent.ShowElections)
	}
	if !c.Accepts(m) {
		t.Errorf("Classify(%q): confidence=%f, want >= %f", "show me the elections", m.Confidence, c.MinConfidence())
	}
}

func TestClassify_SingleIntentCatalog(t *testing.T) {
	t.Parallel()

	catalog := intent.Catalog{{
		ID:       intent.ShowElections,
		Phrases:  []string{"show election"},
		Keywords: []string{"show", "election"},
	}}
	c := intent.New(catalog)

	m, err := c.Classify("show me the elections")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if m.Intent != intent.ShowElections {
		t.Errorf("intent=%q, want %q", m.Intent, intent.ShowElections)
	}
	if m.Confidence < 0.3 {
		t.Errorf("confidence=%f, want >= 0.3", m.Confidence)
	}
}

func TestClassify_UnrelatedUtteranceRejected(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())

	m, err := c.Classify("banana pancake recipe")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if c.Accepts(m) {
		t.Errorf("Classify(%q): confidence=%f for intent %q, want < %f",
			"banana pancake recipe", m.Confidence, m.Intent, c.MinConfidence())
	}
}

func TestClassify_EmptyUtteranceRejected(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())

	m, err := c.Classify("")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if c.Accepts(m) {
		t.Errorf("empty utterance: confidence=%f, want < %f", m.Confidence, c.MinConfidence())
	}
}

func TestClassify_EmptyCatalog(t *testing.T) {
	t.Parallel()

	c := intent.New(nil)

	_, err := c.Classify("help")
	if !errors.Is(err, intent.ErrNoIntents) {
		t.Fatalf("Classify with empty catalog: err=%v, want ErrNoIntents", err)
	}
}

func TestClassify_TieBreakFollowsCatalogOrder(t *testing.T) {
	t.Parallel()

	// Two intents with identical definitions score exactly equal; the one
	// declared first must win. Swapping the order must flip the winner.
	defA := intent.Definition{ID: "a", Phrases: []string{"do the thing"}, Keywords: []string{"thing"}}
	defB := intent.Definition{ID: "b", Phrases: []string{"do the thing"}, Keywords: []string{"thing"}}

	first, err := intent.New(intent.Catalog{defA, defB}).Classify("do the thing")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if first.Intent != "a" {
		t.Errorf("catalog [a, b]: winner=%q, want %q", first.Intent, "a")
	}

	swapped, err := intent.New(intent.Catalog{defB, defA}).Classify("do the thing")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if swapped.Intent != "b" {
		t.Errorf("catalog [b, a]: winner=%q, want %q", swapped.Intent, "b")
	}
}

func TestClassifyBest_PicksBestAlternative(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())

	// The primary transcript is garbled; the second alternative is an exact
	// phrase and must win.
	m, err := c.ClassifyBest("xyzzy plugh", []string{"quux corge", "show election"})
	if err != nil {
		t.Fatalf("ClassifyBest: %v", err)
	}
	if m.Intent != intent.ShowElections {
		t.Errorf("intent=%q, want %q", m.Intent, intent.ShowElections)
	}
	if m.Input != "show election" {
		t.Errorf("input=%q, want the winning alternative %q", m.Input, "show election")
	}
}

func TestClassifyBest_PrimaryWinsTies(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())

	// Identical inputs produce identical scores; the primary transcript's
	// result must be kept.
	m, err := c.ClassifyBest("confirm", []string{"confirm"})
	if err != nil {
		t.Fatalf("ClassifyBest: %v", err)
	}
	if m.Intent != intent.ConfirmVote {
		t.Errorf("intent=%q, want %q", m.Intent, intent.ConfirmVote)
	}
}

func TestClassify_ConfidenceWithinRange(t *testing.T) {
	t.Parallel()

	c := intent.New(intent.DefaultCatalog())
	for _, utterance := range []string{
		"help", "vote in the mumbai election", "confirm my vote",
		"go to my profile", "completely unrelated text here",
	} {
		m, err := c.Classify(utterance)
		if err != nil {
			t.Fatalf("Classify(%q): %v", utterance, err)
		}
		if m.Confidence < 0 || m.Confidence > 1 {
			t.Errorf("Classify(%q): confidence=%f, want within [0, 1]", utterance, m.Confidence)
		}
	}
}
