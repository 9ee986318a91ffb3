package scoring

import (
	"testing"

	"go.uber.org/zap"

	"github.com/lvonguyen/narcosignal/internal/lexicon"
	"github.com/lvonguyen/narcosignal/internal/risk"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()

	table, err := lexicon.NewTable([]lexicon.Entry{
		{Term: "cocaine", Category: "stimulant", Severity: 5, Aliases: []string{"snow", "white girl"}},
		{Term: "weed", Category: "cannabis", Severity: 3, Aliases: []string{"loud", "za"}},
		{Term: "marijuana", Category: "cannabis", Severity: 3},
		{Term: "fentanyl", Category: "opioid", Severity: 5, Aliases: []string{"fent"}},
		{Term: "scale", Category: "paraphernalia", Severity: 1},
	})
	if err != nil {
		t.Fatalf("building test lexicon: %v", err)
	}

	return NewAnalyzer(lexicon.NewStore(table), DefaultWeights(), DefaultIndicators(), zap.NewNop())
}

// =============================================================================
// Worked Example Tests
// =============================================================================

// TestAnalyze_SellingPost verifies a classic dealing post scores above the
// flagging threshold with selling intent.
func TestAnalyze_SellingPost(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("Fresh batch of cocaine available. DM for prices. Cash only.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Intent != IntentSelling {
		t.Errorf("expected selling intent, got %s", result.Intent)
	}
	if result.SuspicionScore < 70 {
		t.Errorf("expected score >= 70, got %d", result.SuspicionScore)
	}
	if !result.IsFlagged {
		t.Error("expected content to be flagged")
	}
	if result.Signals.PaymentIndicators == 0 {
		t.Error("expected payment indicator for 'cash only'")
	}
}

// TestAnalyze_BuyingPost verifies a seeking post lands in the moderate band
// without flagging.
func TestAnalyze_BuyingPost(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("Looking for some good weed in the area.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Intent != IntentBuying {
		t.Errorf("expected buying intent, got %s", result.Intent)
	}
	if result.SuspicionScore < 40 || result.SuspicionScore > 60 {
		t.Errorf("expected score in [40,60], got %d", result.SuspicionScore)
	}
	if result.IsFlagged {
		t.Error("buying post should not be flagged")
	}
}

// TestAnalyze_InformationalPost verifies research-style language stays low.
func TestAnalyze_InformationalPost(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("What are the effects of marijuana on the brain?")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Intent != IntentInformational {
		t.Errorf("expected informational intent, got %s", result.Intent)
	}
	if result.SuspicionScore < 20 || result.SuspicionScore > 30 {
		t.Errorf("expected score in [20,30], got %d", result.SuspicionScore)
	}
	if result.IsFlagged {
		t.Error("informational post should not be flagged")
	}
}

// TestAnalyze_BenignPost verifies clean text scores zero with unknown intent.
func TestAnalyze_BenignPost(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("Just had a great workout today!")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.SuspicionScore != 0 {
		t.Errorf("expected score 0, got %d", result.SuspicionScore)
	}
	if result.Intent != IntentUnknown {
		t.Errorf("expected unknown intent, got %s", result.Intent)
	}
	if result.IsFlagged {
		t.Error("benign post should not be flagged")
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", result.Confidence)
	}
}

// =============================================================================
// Invariant Tests
// =============================================================================

// TestAnalyze_EmptyText verifies empty input is a valid zero result.
func TestAnalyze_EmptyText(t *testing.T) {
	a := testAnalyzer(t)

	for _, input := range []string{"", "   ", "\n"} {
		result, err := a.Analyze(input)
		if err != nil {
			t.Fatalf("Analyze(%q) should not error: %v", input, err)
		}
		if result.SuspicionScore != 0 || result.Intent != IntentUnknown || result.IsFlagged {
			t.Errorf("Analyze(%q): expected zero assessment, got %+v", input, result)
		}
	}
}

// TestAnalyze_ScoreClamped verifies the score never exceeds 100 even with
// many overlapping signals.
func TestAnalyze_ScoreClamped(t *testing.T) {
	a := testAnalyzer(t)

	text := "cocaine weed fentanyl available for sale dm me hmu in stock prices menu " +
		"cashapp venmo cash only meet local delivery asap today only right now"

	result, err := a.Analyze(text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.SuspicionScore != 100 {
		t.Errorf("expected clamped score 100, got %d", result.SuspicionScore)
	}
	if result.Confidence > 1.0 {
		t.Errorf("confidence must not exceed 1.0, got %f", result.Confidence)
	}
}

// TestAnalyze_NoCompoundingByRepetition verifies repeating a term many times
// contributes the same as a single occurrence.
func TestAnalyze_NoCompoundingByRepetition(t *testing.T) {
	a := testAnalyzer(t)

	once, err := a.Analyze("weed")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	many, err := a.Analyze("weed weed weed weed weed weed weed weed")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if once.SuspicionScore != many.SuspicionScore {
		t.Errorf("repetition changed score: %d vs %d", once.SuspicionScore, many.SuspicionScore)
	}
	if len(many.MatchedTerms) != 1 {
		t.Errorf("expected 1 matched term, got %d", len(many.MatchedTerms))
	}
}

// TestAnalyze_AliasCountsAsCategory verifies slang matches score like their
// primary term and the same category is not double counted.
func TestAnalyze_AliasCountsAsCategory(t *testing.T) {
	a := testAnalyzer(t)

	aliasOnly, err := a.Analyze("got that loud")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(aliasOnly.MatchedTerms) != 1 || aliasOnly.MatchedTerms[0].Category != "cannabis" {
		t.Fatalf("expected cannabis match via alias, got %+v", aliasOnly.MatchedTerms)
	}

	both, err := a.Analyze("weed and loud and marijuana")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if both.Signals.DistinctCategories != 1 {
		t.Errorf("expected 1 distinct category, got %d", both.Signals.DistinctCategories)
	}
}

// TestAnalyze_MultiWordSlang verifies n-gram matching catches multi-word
// aliases.
func TestAnalyze_MultiWordSlang(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("anybody seen that white girl around")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.MatchedTerms) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.MatchedTerms))
	}
	if result.MatchedTerms[0].Category != "stimulant" {
		t.Errorf("expected stimulant via 'white girl', got %s", result.MatchedTerms[0].Category)
	}
}

// TestAnalyze_SellingWithoutLexicon verifies strong selling language scores
// non-zero even with no drug terms.
func TestAnalyze_SellingWithoutLexicon(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("New stuff available, dm me, cash only, going fast")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.SuspicionScore == 0 {
		t.Error("selling language alone should score non-zero")
	}
	if result.Intent != IntentSelling {
		t.Errorf("expected selling intent, got %s", result.Intent)
	}
	if len(result.MatchedTerms) != 0 {
		t.Errorf("expected no lexicon matches, got %v", result.MatchedKeys)
	}
}

// TestAnalyze_SellingPriorityOverInformational verifies intent priority:
// selling indicators mask informational language.
func TestAnalyze_SellingPriorityOverInformational(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("What is the best you got? Weed available, dm me")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Intent != IntentSelling {
		t.Errorf("expected selling to take priority, got %s", result.Intent)
	}
}

// TestAnalyze_CompoundBonus verifies the multi-category selling bonus.
func TestAnalyze_CompoundBonus(t *testing.T) {
	a := testAnalyzer(t)

	single, err := a.Analyze("weed available")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	multi, err := a.Analyze("weed and fentanyl available")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// 30 + 10 selling vs 30 + 50 + 10 selling + 10 bonus.
	wantDelta := 50 + DefaultWeights().CompoundBonus
	if multi.SuspicionScore-single.SuspicionScore != wantDelta {
		t.Errorf("expected compound delta %d, got %d (single=%d multi=%d)",
			wantDelta, multi.SuspicionScore-single.SuspicionScore, single.SuspicionScore, multi.SuspicionScore)
	}
}

// TestAnalyze_MatchOrderIsFirstOccurrence verifies matched term ordering.
func TestAnalyze_MatchOrderIsFirstOccurrence(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("fentanyl then weed then cocaine then fentanyl again")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	expected := []string{"fentanyl", "weed", "cocaine"}
	if len(result.MatchedKeys) != len(expected) {
		t.Fatalf("expected %d matches, got %v", len(expected), result.MatchedKeys)
	}
	for i := range expected {
		if result.MatchedKeys[i] != expected[i] {
			t.Errorf("match %d: expected %s, got %s", i, expected[i], result.MatchedKeys[i])
		}
	}
}

// TestAnalyze_ConfidenceGrowsWithSignalFamilies verifies corroborating signal
// types raise confidence.
func TestAnalyze_ConfidenceGrowsWithSignalFamilies(t *testing.T) {
	a := testAnalyzer(t)

	weak, err := a.Analyze("weed")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	strong, err := a.Analyze("weed available cash only meet local asap")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if weak.Confidence >= strong.Confidence {
		t.Errorf("expected confidence to grow with signals: weak=%f strong=%f",
			weak.Confidence, strong.Confidence)
	}
	if weak.Confidence > 0.4 {
		t.Errorf("single weak match should be low confidence, got %f", weak.Confidence)
	}
}

// TestAnalyze_CustomThreshold verifies the flag threshold is configurable.
func TestAnalyze_CustomThreshold(t *testing.T) {
	table, err := lexicon.NewTable([]lexicon.Entry{
		{Term: "weed", Category: "cannabis", Severity: 3},
	})
	if err != nil {
		t.Fatalf("building lexicon: %v", err)
	}

	weights := DefaultWeights()
	weights.FlagThreshold = 30
	a := NewAnalyzer(lexicon.NewStore(table), weights, DefaultIndicators(), zap.NewNop())

	result, err := a.Analyze("weed")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !result.IsFlagged {
		t.Errorf("score %d should flag at threshold 30", result.SuspicionScore)
	}
}

// TestAnalyze_FlaggedImpliesElevatedRisk verifies the shared classifier keeps
// the two vocabularies aligned: flagged content is never low risk.
func TestAnalyze_FlaggedImpliesElevatedRisk(t *testing.T) {
	a := testAnalyzer(t)

	result, err := a.Analyze("Fresh batch of cocaine available. DM for prices. Cash only.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !result.IsFlagged {
		t.Fatal("expected flagged content")
	}
	if result.RiskLevel == risk.LevelLow {
		t.Errorf("flagged content should not be low risk, got %s", result.RiskLevel)
	}
}

// TestResolveIntent covers the priority table directly.
func TestResolveIntent(t *testing.T) {
	tests := []struct {
		signals  Signals
		expected Intent
	}{
		{Signals{SellingIndicators: 1, BuyingIndicators: 2, InfoIndicators: 3}, IntentSelling},
		{Signals{BuyingIndicators: 1, InfoIndicators: 2}, IntentBuying},
		{Signals{InfoIndicators: 1}, IntentInformational},
		{Signals{}, IntentUnknown},
	}

	for _, tt := range tests {
		if got := resolveIntent(tt.signals); got != tt.expected {
			t.Errorf("resolveIntent(%+v): expected %s, got %s", tt.signals, tt.expected, got)
		}
	}
}

// TestCountPhrases_DistinctNotOccurrences verifies phrase counting ignores
// repetition.
func TestCountPhrases_DistinctNotOccurrences(t *testing.T) {
	n := countPhrases("dm me dm me dm me", []string{"dm me", "hmu"})
	if n != 1 {
		t.Errorf("expected 1 distinct phrase, got %d", n)
	}
}

// TestCountPhrases_WordBoundaries verifies substrings inside words do not
// match.
func TestCountPhrases_WordBoundaries(t *testing.T) {
	if n := countPhrases("he is a needy person", []string{"need"}); n != 0 {
		t.Errorf("'need' should not match inside 'needy', got %d", n)
	}
	if n := countPhrases("i need this", []string{"need"}); n != 1 {
		t.Errorf("'need' should match as a word, got %d", n)
	}
}
