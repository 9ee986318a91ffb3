// Package investigation fans out a username to the configured OSINT source
// adapters and merges their findings into one risk-rated profile. Tool
// failures never fail an investigation; they are folded into the per-tool
// result map so callers can tell "confirmed clean" from "could not check".
package investigation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lvonguyen/narcosignal/internal/osint"
	"github.com/lvonguyen/narcosignal/internal/risk"
)

// ErrInvalidUsername is the only hard error Investigate returns.
var ErrInvalidUsername = errors.New("username must not be empty")

// Config bounds the fan-out.
type Config struct {
	// PerToolTimeout caps each adapter call independently.
	PerToolTimeout time.Duration `yaml:"per_tool_timeout"`
	// OverallBudget caps the whole investigation; adapters still running
	// when it expires are cancelled and recorded as timed out.
	OverallBudget time.Duration `yaml:"overall_budget"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PerToolTimeout: 30 * time.Second,
		OverallBudget:  60 * time.Second,
	}
}

// ToolResult is the raw outcome of one adapter, kept for auditability even
// when the tool failed.
type ToolResult struct {
	Tool       osint.SourceTool         `json:"tool"`
	Status     osint.LookupStatus       `json:"status"`
	Candidates []osint.ProfileCandidate `json:"candidates,omitempty"`
	Error      string                   `json:"error,omitempty"`
	DurationMS int64                    `json:"duration_ms"`
}

// LinkedProfile is one deduplicated finding. Source is the adapter whose
// record won the merge; CorroboratedBy lists every adapter that reported the
// same (platform, url) pair.
type LinkedProfile struct {
	Platform       string             `json:"platform"`
	URL            string             `json:"url"`
	Source         osint.SourceTool   `json:"source"`
	Confidence     osint.Confidence   `json:"confidence"`
	CorroboratedBy []osint.SourceTool `json:"corroborated_by"`
}

// Profile is the immutable result of one investigation.
type Profile struct {
	Username           string                           `json:"username"`
	OriginPlatform     string                           `json:"origin_platform"`
	LinkedProfiles     []LinkedProfile                  `json:"linked_profiles"`
	TotalProfilesFound int                              `json:"total_profiles_found"`
	ToolsUsed          []osint.SourceTool               `json:"tools_used"`
	OverallRiskLevel   risk.Level                       `json:"overall_risk_level"`
	OverallConfidence  risk.Confidence                  `json:"overall_confidence"`
	PerToolResults     map[osint.SourceTool]*ToolResult `json:"raw_results"`
	GeneratedAt        time.Time                        `json:"generated_at"`
}

// profileCache is the caching contract the aggregator relies on.
type profileCache interface {
	Get(ctx context.Context, username, platform string) (*Profile, bool)
	Set(ctx context.Context, profile *Profile)
}

// Aggregator coordinates the adapter fan-out.
type Aggregator struct {
	adapters []osint.ProfileLookup
	config   Config
	cache    profileCache
	logger   *zap.Logger
}

// NewAggregator creates an aggregator over the given adapters. cache may be
// nil to disable result caching.
func NewAggregator(adapters []osint.ProfileLookup, config Config, cache *Cache, logger *zap.Logger) *Aggregator {
	if config.PerToolTimeout <= 0 {
		config.PerToolTimeout = DefaultConfig().PerToolTimeout
	}
	if config.OverallBudget <= 0 {
		config.OverallBudget = DefaultConfig().OverallBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{adapters: adapters, config: config, logger: logger}
	if cache != nil {
		a.cache = cache
	}
	return a
}

// Investigate runs every adapter concurrently and merges whatever completed
// before the overall budget expired. It returns a valid profile even when
// every tool fails.
func (a *Aggregator) Investigate(ctx context.Context, username, originPlatform string) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, username, originPlatform); ok {
			return cached, nil
		}
	}

	start := time.Now()
	perTool := a.fanOut(ctx, username)

	merged := mergeCandidates(perTool)
	toolsUsed := completedTools(perTool)
	confidence := deriveConfidence(merged, perTool)

	level, err := risk.Classify(len(merged), confidence)
	if err != nil {
		// Unreachable with a non-negative count; fail closed to low.
		level = risk.LevelLow
	}

	profile := &Profile{
		Username:           username,
		OriginPlatform:     originPlatform,
		LinkedProfiles:     merged,
		TotalProfilesFound: len(merged),
		ToolsUsed:          toolsUsed,
		OverallRiskLevel:   level,
		OverallConfidence:  confidence,
		PerToolResults:     perTool,
		GeneratedAt:        time.Now().UTC(),
	}

	a.logger.Info("investigation completed",
		zap.String("username", username),
		zap.String("origin_platform", originPlatform),
		zap.Int("profiles_found", profile.TotalProfilesFound),
		zap.String("risk", string(level)),
		zap.String("confidence", string(confidence)),
		zap.Duration("elapsed", time.Since(start)),
	)

	// A run where no tool completed says nothing about the username; caching
	// it would pin "could not check" for the full TTL after tools recover.
	if a.cache != nil && len(profile.ToolsUsed) > 0 {
		a.cache.Set(ctx, profile)
	}
	return profile, nil
}

// fanOut runs all adapters in parallel, each with its own timeout, under the
// overall budget. Adapters that miss the budget are recorded as timed out.
func (a *Aggregator) fanOut(ctx context.Context, username string) map[osint.SourceTool]*ToolResult {
	overallCtx, cancel := context.WithTimeout(ctx, a.config.OverallBudget)
	defer cancel()

	type outcome struct {
		tool       osint.SourceTool
		candidates []osint.ProfileCandidate
		err        error
		elapsed    time.Duration
	}

	results := make(chan outcome, len(a.adapters))
	for _, adapter := range a.adapters {
		go func(adapter osint.ProfileLookup) {
			toolCtx, toolCancel := context.WithTimeout(overallCtx, a.config.PerToolTimeout)
			defer toolCancel()

			started := time.Now()
			candidates, err := adapter.Lookup(toolCtx, username)
			results <- outcome{
				tool:       adapter.Name(),
				candidates: candidates,
				err:        err,
				elapsed:    time.Since(started),
			}
		}(adapter)
	}

	perTool := make(map[osint.SourceTool]*ToolResult, len(a.adapters))
	pending := len(a.adapters)
	for pending > 0 {
		select {
		case out := <-results:
			pending--
			perTool[out.tool] = toToolResult(out.tool, out.candidates, out.err, out.elapsed)
		case <-overallCtx.Done():
			// Budget exhausted: whatever has not reported is timed out.
			for _, adapter := range a.adapters {
				if _, ok := perTool[adapter.Name()]; !ok {
					perTool[adapter.Name()] = &ToolResult{
						Tool:       adapter.Name(),
						Status:     osint.StatusTimeout,
						Error:      "investigation budget exceeded",
						DurationMS: a.config.OverallBudget.Milliseconds(),
					}
				}
			}
			return perTool
		}
	}
	return perTool
}

func toToolResult(tool osint.SourceTool, candidates []osint.ProfileCandidate, err error, elapsed time.Duration) *ToolResult {
	result := &ToolResult{
		Tool:       tool,
		Candidates: candidates,
		DurationMS: elapsed.Milliseconds(),
	}
	switch {
	case err == nil && len(candidates) > 0:
		result.Status = osint.StatusFound
	case err == nil:
		result.Status = osint.StatusNotFound
	case errors.Is(err, osint.ErrAdapterTimeout):
		result.Status = osint.StatusTimeout
		result.Error = err.Error()
		result.Candidates = nil
	default:
		result.Status = osint.StatusError
		result.Error = err.Error()
		result.Candidates = nil
	}
	return result
}

// mergeCandidates groups findings by (platform, url), keeping one record per
// pair: highest raw confidence wins, ties broken by adapter priority. Output
// order is deterministic.
func mergeCandidates(perTool map[osint.SourceTool]*ToolResult) []LinkedProfile {
	merged := make(map[string]*LinkedProfile)

	// Walk tools in priority order so tie-breaks are deterministic.
	for _, tool := range toolsByPriority(perTool) {
		result := perTool[tool]
		if result.Status != osint.StatusFound {
			continue
		}
		for _, c := range result.Candidates {
			key := c.Platform + "\n" + c.URL
			existing, ok := merged[key]
			if !ok {
				merged[key] = &LinkedProfile{
					Platform:       c.Platform,
					URL:            c.URL,
					Source:         c.SourceTool,
					Confidence:     c.RawConfidence,
					CorroboratedBy: []osint.SourceTool{c.SourceTool},
				}
				continue
			}
			existing.CorroboratedBy = appendTool(existing.CorroboratedBy, c.SourceTool)
			if c.RawConfidence.Rank() > existing.Confidence.Rank() {
				existing.Confidence = c.RawConfidence
				existing.Source = c.SourceTool
			}
		}
	}

	out := make([]LinkedProfile, 0, len(merged))
	for _, lp := range merged {
		out = append(out, *lp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// completedTools returns the tools that finished without error or timeout,
// in priority order.
func completedTools(perTool map[osint.SourceTool]*ToolResult) []osint.SourceTool {
	var used []osint.SourceTool
	for _, tool := range toolsByPriority(perTool) {
		status := perTool[tool].Status
		if status == osint.StatusFound || status == osint.StatusNotFound {
			used = append(used, tool)
		}
	}
	return used
}

// deriveConfidence implements the corroboration rules: cross-tool agreement
// is high; a single contributing tool is medium, unless that tool is the bare
// URL probe; zero findings alongside tool failures is low because the cause
// is uncertainty, not absence.
func deriveConfidence(merged []LinkedProfile, perTool map[osint.SourceTool]*ToolResult) risk.Confidence {
	anyFailure := false
	for _, result := range perTool {
		if result.Status == osint.StatusError || result.Status == osint.StatusTimeout {
			anyFailure = true
			break
		}
	}

	if len(merged) == 0 {
		if anyFailure {
			return risk.ConfidenceLow
		}
		// Every tool answered and agreed there is nothing.
		return risk.ConfidenceMedium
	}

	contributors := make(map[osint.SourceTool]bool)
	for _, lp := range merged {
		if len(lp.CorroboratedBy) >= 2 {
			return risk.ConfidenceHigh
		}
		for _, tool := range lp.CorroboratedBy {
			contributors[tool] = true
		}
	}

	if len(contributors) == 1 && contributors[osint.ToolURLCheck] {
		return risk.ConfidenceLow
	}
	return risk.ConfidenceMedium
}

func toolsByPriority(perTool map[osint.SourceTool]*ToolResult) []osint.SourceTool {
	tools := make([]osint.SourceTool, 0, len(perTool))
	for tool := range perTool {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Priority() < tools[j].Priority()
	})
	return tools
}

func appendTool(tools []osint.SourceTool, tool osint.SourceTool) []osint.SourceTool {
	for _, t := range tools {
		if t == tool {
			return tools
		}
	}
	tools = append(tools, tool)
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Priority() < tools[j].Priority()
	})
	return tools
}

// String renders a short audit line for logs and debugging.
func (p *Profile) String() string {
	return fmt.Sprintf("profile(%s@%s: %d linked, risk=%s, confidence=%s)",
		p.Username, p.OriginPlatform, p.TotalProfilesFound, p.OverallRiskLevel, p.OverallConfidence)
}
