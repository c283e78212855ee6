package services

import (
	"math/rand"
	"testing"

	"bandhub/models"
)

func testBank() []models.QARecord {
	return []models.QARecord{
		{ID: "work-1", Topic: "work", Question: "Do you work or are you a student?", SampleAnswers: []string{"I work."}},
		{ID: "work-2", Topic: "work", Question: "What do you like about your job?", SampleAnswers: []string{"The people."}},
		{ID: "home-1", Topic: "hometown", Question: "Where is your hometown?", SampleAnswers: []string{"A small town."}},
		{ID: "food-1", Topic: "food", Question: "What kind of food do you like?", SampleAnswers: []string{"Spicy food."}},
		{ID: "food-2", Topic: "food", Question: "Do you often cook at home?", SampleAnswers: []string{"Most evenings."}},
	}
}

func TestRetrieveRanksByOverlapWithTopicBonus(t *testing.T) {
	r := NewRetriever(testBank(), rand.New(rand.NewSource(1)))

	got := r.Retrieve("What food do you like to cook?", "food", 3)
	if len(got) == 0 {
		t.Fatal("expected matches, got none")
	}
	if got[0].Topic != "food" {
		t.Errorf("expected a food record ranked first, got %s", got[0].ID)
	}
	for _, rec := range got[:2] {
		if rec.Topic != "food" {
			t.Errorf("topic bonus should rank food records ahead, got %s", rec.ID)
		}
	}
}

func TestRetrieveHonorsTopK(t *testing.T) {
	r := NewRetriever(testBank(), rand.New(rand.NewSource(1)))

	got := r.Retrieve("What food do you like to cook at home for work?", "", 2)
	if len(got) > 2 {
		t.Fatalf("expected at most 2 records, got %d", len(got))
	}
}

func TestRetrieveTopicBonusRanksWithoutLexicalOverlap(t *testing.T) {
	r := NewRetriever(testBank(), rand.New(rand.NewSource(42)))

	// No query token overlaps, so only the +2 topic bonus puts the food
	// records on the ranked path.
	got := r.Retrieve("zzz qqq xxx", "food", 5)
	if len(got) != 2 {
		t.Fatalf("expected the 2 food records, got %d", len(got))
	}
	for _, rec := range got {
		if rec.Topic != "food" {
			t.Errorf("only topic-bonus records should rank, got %s", rec.ID)
		}
	}
}

func TestRetrieveZeroOverlapUnknownTopicSamplesWholeBank(t *testing.T) {
	r := NewRetriever(testBank(), rand.New(rand.NewSource(7)))

	got := r.Retrieve("zzz qqq xxx", "astronomy", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 sampled records, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, rec := range got {
		if seen[rec.ID] {
			t.Errorf("record %s sampled twice", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestRetrieveEmptyBank(t *testing.T) {
	r := NewRetriever(nil, rand.New(rand.NewSource(1)))
	if got := r.Retrieve("anything", "work", 5); got != nil {
		t.Fatalf("expected nil for an empty bank, got %v", got)
	}
}

func TestTokenizeDropsStopwords(t *testing.T) {
	tokens := tokenize("Do you like the food in your city?")
	for _, stop := range []string{"do", "you", "the", "in"} {
		if _, ok := tokens[stop]; ok {
			t.Errorf("stopword %q survived tokenization", stop)
		}
	}
	if _, ok := tokens["food"]; !ok {
		t.Error("expected content word 'food' to survive")
	}
}
