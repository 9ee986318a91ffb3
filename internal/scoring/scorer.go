// Package scoring classifies text against the drug lexicon and computes a
// suspicion score with a flagging decision.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvonguyen/narcosignal/internal/lexicon"
	"github.com/lvonguyen/narcosignal/internal/risk"
	"github.com/lvonguyen/narcosignal/internal/textproc"
)

// ErrAnalysis indicates preprocessing failed on the supplied input. Text with
// no matches is a valid zero-score result, never an error.
var ErrAnalysis = errors.New("content analysis failed")

// Intent is the inferred transactional posture of a text.
type Intent string

const (
	IntentSelling       Intent = "selling"
	IntentBuying        Intent = "buying"
	IntentInformational Intent = "informational"
	IntentUnknown       Intent = "unknown"
)

// Signals is the per-indicator breakdown behind a score.
type Signals struct {
	SellingIndicators  int `json:"selling_indicators"`
	BuyingIndicators   int `json:"buying_indicators"`
	InfoIndicators     int `json:"informational_indicators"`
	PaymentIndicators  int `json:"payment_indicators"`
	LocationIndicators int `json:"location_indicators"`
	UrgencyIndicators  int `json:"urgency_indicators"`
	DistinctCategories int `json:"distinct_categories"`
}

// ContentAssessment is the immutable result of one analysis call.
type ContentAssessment struct {
	MatchedTerms   []lexicon.Entry `json:"matched_terms"`
	MatchedKeys    []string        `json:"matched_keywords"`
	Intent         Intent          `json:"intent"`
	SuspicionScore int             `json:"suspicion_score"`
	IsFlagged      bool            `json:"is_flagged"`
	Confidence     float64         `json:"confidence"`
	RiskLevel      risk.Level      `json:"risk_level"`
	Signals        Signals         `json:"analysis_data"`
}

// Weights holds the score contributions. Defaults reproduce the tuned
// production behavior; treat them as a starting point, not ground truth.
type Weights struct {
	CategorySeverity int `yaml:"category_severity"` // multiplier on each distinct category's severity
	SellingMatch     int `yaml:"selling_match"`
	BuyingMatch      int `yaml:"buying_match"`
	PaymentPresent   int `yaml:"payment_present"`
	LocationPresent  int `yaml:"location_present"`
	UrgencyPresent   int `yaml:"urgency_present"`
	CompoundBonus    int `yaml:"compound_bonus"` // >= 2 categories plus a selling indicator
	FlagThreshold    int `yaml:"flag_threshold"`
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		CategorySeverity: 10,
		SellingMatch:     10,
		BuyingMatch:      5,
		PaymentPresent:   8,
		LocationPresent:  6,
		UrgencyPresent:   5,
		CompoundBonus:    10,
		FlagThreshold:    70,
	}
}

// Analyzer scores text against the active lexicon. It holds no per-call
// state, so one analyzer is safe for arbitrarily many concurrent calls.
type Analyzer struct {
	store      *lexicon.Store
	pre        *textproc.Preprocessor
	weights    Weights
	indicators Indicators
	logger     *zap.Logger
}

// NewAnalyzer creates an analyzer over the given lexicon store.
func NewAnalyzer(store *lexicon.Store, weights Weights, indicators Indicators, logger *zap.Logger) *Analyzer {
	if weights.FlagThreshold == 0 {
		weights.FlagThreshold = DefaultWeights().FlagThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		store:      store,
		pre:        textproc.New(),
		weights:    weights,
		indicators: indicators,
		logger:     logger,
	}
}

// Analyze classifies text and returns its assessment. Empty text returns a
// zero-score, unknown-intent assessment.
func (a *Analyzer) Analyze(text string) (*ContentAssessment, error) {
	tokens, err := a.pre.Tokens(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	table := a.store.Table()
	matched := a.matchLexicon(table, tokens)

	// Indicator phrases match against the token-normalized text so
	// punctuation never blocks a phrase boundary.
	normText := strings.Join(tokens, " ")
	signals := Signals{
		SellingIndicators:  countPhrases(normText, a.indicators.Selling),
		BuyingIndicators:   countPhrases(normText, a.indicators.Buying),
		InfoIndicators:     countPhrases(normText, a.indicators.Informational),
		PaymentIndicators:  countPhrases(normText, a.indicators.Payment),
		LocationIndicators: countPhrases(normText, a.indicators.Location),
		UrgencyIndicators:  countPhrases(normText, a.indicators.Urgency),
	}

	categories := make(map[string]int)
	for _, e := range matched {
		if _, seen := categories[e.Category]; !seen {
			categories[e.Category] = e.Severity
		}
	}
	signals.DistinctCategories = len(categories)

	intent := resolveIntent(signals)
	score := a.accumulate(categories, signals)
	confidence := deriveConfidence(signals)

	level, err := risk.ClassifyScore(score, confidenceBand(confidence))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	keys := make([]string, len(matched))
	for i, e := range matched {
		keys[i] = e.Term
	}

	assessment := &ContentAssessment{
		MatchedTerms:   matched,
		MatchedKeys:    keys,
		Intent:         intent,
		SuspicionScore: score,
		IsFlagged:      score >= a.weights.FlagThreshold,
		Confidence:     confidence,
		RiskLevel:      level,
		Signals:        signals,
	}

	a.logger.Debug("content analyzed",
		zap.Int("score", score),
		zap.String("intent", string(intent)),
		zap.Int("matched_terms", len(matched)),
		zap.Bool("flagged", assessment.IsFlagged),
	)

	return assessment, nil
}

// FlagThreshold returns the active flagging threshold.
func (a *Analyzer) FlagThreshold() int { return a.weights.FlagThreshold }

// matchLexicon scans tokens for lexicon terms up to 3-grams, longest match
// first. Each distinct term is recorded once, at its first occurrence.
func (a *Analyzer) matchLexicon(table *lexicon.Table, tokens []string) []lexicon.Entry {
	maxN := table.MaxNGram()
	if maxN > 3 {
		maxN = 3
	}

	var matched []lexicon.Entry
	seen := make(map[string]bool)

	for i := 0; i < len(tokens); {
		advance := 1
		for n := maxN; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			gram := strings.Join(tokens[i:i+n], " ")
			entry, ok := table.Match(gram)
			if !ok {
				continue
			}
			if !seen[entry.Term] {
				seen[entry.Term] = true
				matched = append(matched, *entry)
			}
			advance = n
			break
		}
		i += advance
	}

	return matched
}

// accumulate computes the clamped suspicion score.
func (a *Analyzer) accumulate(categories map[string]int, s Signals) int {
	score := 0
	for _, severity := range categories {
		score += severity * a.weights.CategorySeverity
	}

	score += s.SellingIndicators * a.weights.SellingMatch
	score += s.BuyingIndicators * a.weights.BuyingMatch

	if s.PaymentIndicators > 0 {
		score += a.weights.PaymentPresent
	}
	if s.LocationIndicators > 0 {
		score += a.weights.LocationPresent
	}
	if s.UrgencyIndicators > 0 {
		score += a.weights.UrgencyPresent
	}

	// Multiple drug categories plus active selling language reads as a
	// dealing operation, not casual mention.
	if len(categories) >= 2 && s.SellingIndicators > 0 {
		score += a.weights.CompoundBonus
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// resolveIntent applies the fixed priority selling > buying > informational.
// Selling signals are the highest-value investigative lead and must not be
// masked by incidental informational language.
func resolveIntent(s Signals) Intent {
	switch {
	case s.SellingIndicators > 0:
		return IntentSelling
	case s.BuyingIndicators > 0:
		return IntentBuying
	case s.InfoIndicators > 0:
		return IntentInformational
	default:
		return IntentUnknown
	}
}

// deriveConfidence counts independent corroborating signal families. A single
// weak match stays low confidence regardless of its score contribution.
func deriveConfidence(s Signals) float64 {
	families := 0
	if s.DistinctCategories > 0 {
		families++
	}
	if s.DistinctCategories >= 2 {
		families++
	}
	if s.SellingIndicators > 0 || s.BuyingIndicators > 0 || s.InfoIndicators > 0 {
		families++
	}
	if s.PaymentIndicators > 0 {
		families++
	}
	if s.LocationIndicators > 0 {
		families++
	}
	if s.UrgencyIndicators > 0 {
		families++
	}

	confidence := float64(families) * 0.2
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// confidenceBand maps the float confidence to the shared ordinal vocabulary.
func confidenceBand(confidence float64) risk.Confidence {
	switch {
	case confidence >= 0.7:
		return risk.ConfidenceHigh
	case confidence >= 0.4:
		return risk.ConfidenceMedium
	default:
		return risk.ConfidenceLow
	}
}

// countPhrases counts the distinct phrases present in normalized text on word
// boundaries. Distinct phrases, not occurrences: repeating one phrase should
// not inflate the count.
func countPhrases(normText string, phrases []string) int {
	if normText == "" {
		return 0
	}
	padded := " " + normText + " "
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			count++
		}
	}
	return count
}
