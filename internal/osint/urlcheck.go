package osint

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// URLCheckConfig holds settings for the direct URL probe.
type URLCheckConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency bounds the in-flight probes.
	Concurrency int `yaml:"concurrency"`
}

// DefaultURLCheckConfig returns sensible defaults.
func DefaultURLCheckConfig() URLCheckConfig {
	return URLCheckConfig{
		Enabled:     true,
		Timeout:     15 * time.Second,
		Concurrency: 8,
	}
}

// platformPatterns lists well-known profile URL shapes; %s is the username.
// Platforms that always redirect unauthenticated requests to a login page
// are deliberately absent.
var platformPatterns = []struct {
	name    string
	pattern string
}{
	{"twitter", "https://twitter.com/%s"},
	{"instagram", "https://instagram.com/%s"},
	{"tiktok", "https://tiktok.com/@%s"},
	{"reddit", "https://reddit.com/user/%s"},
	{"github", "https://github.com/%s"},
	{"youtube", "https://youtube.com/@%s"},
	{"twitch", "https://twitch.tv/%s"},
	{"telegram", "https://t.me/%s"},
	{"snapchat", "https://snapchat.com/add/%s"},
	{"medium", "https://medium.com/@%s"},
	{"keybase", "https://keybase.io/%s"},
	{"linktree", "https://linktr.ee/%s"},
}

// URLCheckAdapter probes profile URLs directly. It is the fast fallback when
// the heavier tools are unavailable; an existing page only proves the
// username is taken, so every finding reports low confidence.
type URLCheckAdapter struct {
	config     URLCheckConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewURLCheckAdapter creates the adapter.
func NewURLCheckAdapter(config URLCheckConfig, logger *zap.Logger) *URLCheckAdapter {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultURLCheckConfig().Concurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &URLCheckAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect off the profile path usually means "no such
				// user"; stop and inspect the first response instead.
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Name returns the tool identifier.
func (u *URLCheckAdapter) Name() SourceTool { return ToolURLCheck }

// Lookup probes each known platform pattern concurrently. Only the whole
// batch failing is an error; individual unreachable platforms are skipped.
func (u *URLCheckAdapter) Lookup(ctx context.Context, username string) ([]ProfileCandidate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrAdapter)
	}

	type probeResult struct {
		candidate ProfileCandidate
		found     bool
		err       error
	}

	results := make([]probeResult, len(platformPatterns))
	sem := make(chan struct{}, u.config.Concurrency)
	var wg sync.WaitGroup

	for i, p := range platformPatterns {
		wg.Add(1)
		go func(i int, name, pattern string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			profileURL := fmt.Sprintf(pattern, username)
			found, err := u.exists(ctx, profileURL)
			if err != nil {
				results[i] = probeResult{err: err}
				return
			}
			if found {
				results[i] = probeResult{
					candidate: ProfileCandidate{
						Platform:      name,
						URL:           profileURL,
						SourceTool:    ToolURLCheck,
						RawConfidence: ConfidenceLow,
						Status:        StatusFound,
					},
					found: true,
				}
			}
		}(i, p.name, p.pattern)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", classifyErr(ctx, err), err)
	}

	var candidates []ProfileCandidate
	var probeErrs int
	var lastErr error
	for _, r := range results {
		if r.err != nil {
			probeErrs++
			lastErr = r.err
			continue
		}
		if r.found {
			candidates = append(candidates, r.candidate)
		}
	}

	// Individual unreachable platforms are tolerable noise, but when not a
	// single probe got an answer there is no basis to report "not found".
	if probeErrs == len(platformPatterns) {
		return nil, fmt.Errorf("%w: all %d probes failed: %v", classifyErr(ctx, lastErr), probeErrs, lastErr)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Platform < candidates[j].Platform
	})

	u.logger.Debug("url check completed",
		zap.String("username", username),
		zap.Int("probed", len(platformPatterns)),
		zap.Int("found", len(candidates)),
	)
	return candidates, nil
}

// exists reports whether a profile URL answers with a 2xx. A transport
// failure is returned as an error, never folded into "absent".
func (u *URLCheckAdapter) exists(ctx context.Context, profileURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; narcosignal/1.0)")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
