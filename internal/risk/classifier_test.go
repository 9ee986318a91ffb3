package risk

import (
	"errors"
	"testing"
)

// TestClassify_Bands verifies count-based classification bands.
func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		value      int
		confidence Confidence
		expected   Level
	}{
		{0, ConfidenceHigh, LevelLow},
		{2, ConfidenceHigh, LevelLow},
		{3, ConfidenceHigh, LevelMedium},
		{7, ConfidenceHigh, LevelMedium},
		{8, ConfidenceHigh, LevelHigh},
		{14, ConfidenceHigh, LevelHigh},
		{15, ConfidenceHigh, LevelCritical},
		{50, ConfidenceHigh, LevelCritical},
	}

	for _, tt := range tests {
		level, err := Classify(tt.value, tt.confidence)
		if err != nil {
			t.Fatalf("Classify(%d, %s) failed: %v", tt.value, tt.confidence, err)
		}
		if level != tt.expected {
			t.Errorf("Classify(%d, %s): expected %s, got %s", tt.value, tt.confidence, tt.expected, level)
		}
	}
}

// TestClassify_LowConfidenceCapsAtMedium verifies many findings at low
// confidence do not escalate past medium.
func TestClassify_LowConfidenceCapsAtMedium(t *testing.T) {
	level, err := Classify(30, ConfidenceLow)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if level != LevelMedium {
		t.Errorf("expected medium at low confidence, got %s", level)
	}
}

// TestClassify_MediumConfidenceCapsAtHigh verifies the critical band requires
// high confidence.
func TestClassify_MediumConfidenceCapsAtHigh(t *testing.T) {
	level, err := Classify(30, ConfidenceMedium)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if level != LevelHigh {
		t.Errorf("expected high at medium confidence, got %s", level)
	}
}

// TestClassify_NegativeRejected verifies negative inputs are rejected.
func TestClassify_NegativeRejected(t *testing.T) {
	if _, err := Classify(-1, ConfidenceHigh); !errors.Is(err, ErrNegativeInput) {
		t.Errorf("expected ErrNegativeInput, got %v", err)
	}
	if _, err := ClassifyScore(-5, ConfidenceHigh); !errors.Is(err, ErrNegativeInput) {
		t.Errorf("expected ErrNegativeInput, got %v", err)
	}
}

// TestClassifyScore_Bands verifies score-based bands align with the flagging
// threshold: a flagged score (>= 70) is at least high risk.
func TestClassifyScore_Bands(t *testing.T) {
	tests := []struct {
		score      int
		confidence Confidence
		expected   Level
	}{
		{0, ConfidenceHigh, LevelLow},
		{39, ConfidenceHigh, LevelLow},
		{40, ConfidenceHigh, LevelMedium},
		{69, ConfidenceHigh, LevelMedium},
		{70, ConfidenceHigh, LevelHigh},
		{84, ConfidenceMedium, LevelHigh},
		{85, ConfidenceHigh, LevelCritical},
		{100, ConfidenceHigh, LevelCritical},
		{90, ConfidenceLow, LevelMedium},
	}

	for _, tt := range tests {
		level, err := ClassifyScore(tt.score, tt.confidence)
		if err != nil {
			t.Fatalf("ClassifyScore(%d, %s) failed: %v", tt.score, tt.confidence, err)
		}
		if level != tt.expected {
			t.Errorf("ClassifyScore(%d, %s): expected %s, got %s", tt.score, tt.confidence, tt.expected, level)
		}
	}
}

// TestLess verifies the ordinal ordering Low < Medium < High < Critical.
func TestLess(t *testing.T) {
	ordered := []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}
	for i := 0; i < len(ordered)-1; i++ {
		if !Less(ordered[i], ordered[i+1]) {
			t.Errorf("expected %s < %s", ordered[i], ordered[i+1])
		}
		if Less(ordered[i+1], ordered[i]) {
			t.Errorf("did not expect %s < %s", ordered[i+1], ordered[i])
		}
	}
}
