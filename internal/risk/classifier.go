// Package risk provides the shared ordinal risk vocabulary used by both the
// content scorer and the investigation aggregator.
package risk

import (
	"errors"
	"fmt"
)

// ErrNegativeInput is returned when a score or count below zero is classified.
var ErrNegativeInput = errors.New("risk input must be non-negative")

// Level is an ordinal risk level.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Confidence qualifies how much trust to place in the input value.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// rank orders levels for comparisons.
var rank = map[Level]int{
	LevelLow:      0,
	LevelMedium:   1,
	LevelHigh:     2,
	LevelCritical: 3,
}

// Less reports whether a is strictly below b in the ordinal scale.
func Less(a, b Level) bool {
	return rank[a] < rank[b]
}

// Classify maps a non-negative value (a suspicion score or a linked-profile
// count) and a confidence qualifier to a risk level. Low confidence caps the
// result at medium so flaky inputs cannot drive escalation on their own.
func Classify(value int, confidence Confidence) (Level, error) {
	if value < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeInput, value)
	}

	var level Level
	switch {
	case value >= 15:
		level = LevelCritical
	case value >= 8:
		level = LevelHigh
	case value >= 3:
		level = LevelMedium
	default:
		level = LevelLow
	}

	switch confidence {
	case ConfidenceLow:
		if Less(LevelMedium, level) {
			level = LevelMedium
		}
	case ConfidenceMedium:
		if level == LevelCritical {
			level = LevelHigh
		}
	}

	return level, nil
}

// ClassifyScore maps a 0-100 suspicion score to a risk level using the same
// vocabulary. Scores use wider bands than profile counts.
func ClassifyScore(score int, confidence Confidence) (Level, error) {
	if score < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeInput, score)
	}

	var level Level
	switch {
	case score >= 85:
		level = LevelCritical
	case score >= 70:
		level = LevelHigh
	case score >= 40:
		level = LevelMedium
	default:
		level = LevelLow
	}

	if confidence == ConfidenceLow && Less(LevelMedium, level) {
		level = LevelMedium
	}

	return level, nil
}
